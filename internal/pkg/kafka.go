package pkg

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer outbox 中继用的发送端
type Producer interface {
	Send(ctx context.Context, key string, value []byte) error
	Close() error
}

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// LogProducer 没有配置 broker 时把事件写到日志
type LogProducer struct {
	Log *logrus.Logger
}

func (p *LogProducer) Send(_ context.Context, key string, value []byte) error {
	p.Log.WithFields(logrus.Fields{"key": key, "payload": string(value)}).Info("community event")
	return nil
}

func (p *LogProducer) Close() error { return nil }

func MakeKeyFromID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

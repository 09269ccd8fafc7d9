package service

import (
	"context"
	"time"

	"alumni_network/internal/model"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OutboxRelayer 从 community_outbox 读取事件交给 producer，key 为 community_id
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	producer  pkg.Producer
	log       *logrus.Logger
	batchSize int
	interval  time.Duration
}

func NewOutboxRelayer(db *gorm.DB, producer pkg.Producer, log *logrus.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		producer:  producer,
		log:       log,
		batchSize: 200,
		interval:  time.Second,
	}
}

// Run 阻塞直到 ctx 取消
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.WithError(err).Error("outbox query")
		return 0
	}
	sent := 0
	for i := range rows {
		ob := &rows[i]
		if err = r.send(ctx, ob); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"outbox_id": ob.ID,
				"event":     ob.EventType,
				"retry":     ob.Retry + 1,
			}).Warn("outbox send failed")
			if err = r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.WithError(err).WithField("outbox_id", ob.ID).Error("outbox retry update")
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.WithError(err).WithField("outbox_id", ob.ID).Error("outbox success update")
			continue
		}
		sent++
	}
	return sent
}

func (r *OutboxRelayer) send(ctx context.Context, ob *model.CommunityOutbox) error {
	return r.producer.Send(ctx, pkg.MakeKeyFromID(ob.CommunityID), []byte(ob.Payload))
}

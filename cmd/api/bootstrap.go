package main

import (
	"fmt"

	"alumni_network/internal/config"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"
	"alumni_network/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
	rdb *goredis.Client
	jwt *pkg.JWTManager
}

// bootstrap 读取配置并连上 MySQL，withRedis 为 false 时不连 redis
func bootstrap(withRedis bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := pkg.NewLogger(cfg.LogLevel, cfg.IsProduction())

	db, err := mysql.InitDB(cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	a := &app{
		cfg: cfg,
		log: log,
		db:  db,
		jwt: pkg.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret),
	}
	if withRedis {
		if a.rdb, err = redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// mailer 没配 SMTP 时只打日志
func (a *app) mailer() pkg.Mailer {
	if a.cfg.SMTPHost == "" {
		a.log.Warn("SMTP_HOST not set, verification codes are logged instead of mailed")
		return &pkg.LogMailer{Log: a.log}
	}
	return pkg.NewSMTPMailer(pkg.SMTPConfig{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		Username: a.cfg.SMTPUsername,
		Password: a.cfg.SMTPPassword,
		From:     a.cfg.SMTPFrom,
	})
}

// producer 没配 broker 时只打日志
func (a *app) producer() pkg.Producer {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.log.Warn("KAFKA_BROKERS not set, community events are logged instead of published")
		return &pkg.LogProducer{Log: a.log}
	}
	return pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: a.cfg.KafkaBrokers, Topic: a.cfg.KafkaTopic})
}

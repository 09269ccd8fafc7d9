package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"alumni_network/internal/repository/mysql"
	"alumni_network/internal/router"
	"alumni_network/internal/service"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the community event relayer",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer a.close()

		if err = sentry.Init(sentry.ClientOptions{Dsn: a.cfg.SentryDSN, Environment: a.cfg.Env}); err != nil {
			a.log.WithError(err).Warn("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)

		// 自动建表（开发阶段 OK）
		if !a.cfg.IsProduction() {
			if err = mysql.Migrate(a.db); err != nil {
				return err
			}
		}

		if a.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		engine := router.InitRouter(router.Deps{
			DB:       a.db,
			RDB:      a.rdb,
			Mailer:   a.mailer(),
			JWT:      a.jwt,
			Log:      a.log,
			Registry: reg,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		producer := a.producer()
		defer producer.Close()
		relayer := service.NewOutboxRelayer(a.db, producer, a.log)
		relayerDone := make(chan struct{})
		go func() {
			defer close(relayerDone)
			relayer.Run(ctx)
		}()

		srv := &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			a.log.WithField("addr", a.cfg.HTTPAddr).Info("http server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
		case err = <-errCh:
			stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.log.WithError(serr).Error("http shutdown")
		}
		<-relayerDone
		return err
	},
}

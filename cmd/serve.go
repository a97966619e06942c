package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/auditlog"
	"github.com/jmehdipour/wablast/internal/config"
	"github.com/jmehdipour/wablast/internal/db"
	"github.com/jmehdipour/wablast/internal/dispatch"
	"github.com/jmehdipour/wablast/internal/gateway"
	httpSrv "github.com/jmehdipour/wablast/internal/http"
	"github.com/jmehdipour/wablast/internal/logger"
	"github.com/jmehdipour/wablast/internal/metrics"
	"github.com/jmehdipour/wablast/internal/normalize"
	"github.com/jmehdipour/wablast/internal/recipients"
	"github.com/jmehdipour/wablast/internal/repository"
	"github.com/jmehdipour/wablast/internal/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the broadcast API, schedule registry and retention sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		defer logger.Sync()
		log := logger.Log

		ctx := cmd.Context()

		// storage (two embedded databases, as deployed)
		schedulesDB, err := db.NewSQLiteConnection(cfg.Storage.SchedulesDSN, db.SQLiteOpts{})
		if err != nil {
			return fmt.Errorf("open schedules db: %w", err)
		}
		defer schedulesDB.Close()

		logsDB, err := db.NewSQLiteConnection(cfg.Storage.LogsDSN, db.SQLiteOpts{})
		if err != nil {
			return fmt.Errorf("open logs db: %w", err)
		}
		defer logsDB.Close()

		schedulesRepo := repository.NewSchedulesRepository(schedulesDB)
		audit := auditlog.NewStore(logsDB, log)
		if err := schedulesRepo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate schedules: %w", err)
		}
		if err := audit.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate logs: %w", err)
		}

		// redis backs the request rate limiter only; run without it if absent
		var rds *redis.Client
		if cfg.Redis.Addr != "" {
			rds, err = db.NewRedisClient(db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
				rds = nil
			} else {
				defer func() { _ = rds.Close() }()
			}
		}

		metrics.MustRegister(prometheus.DefaultRegisterer)

		// gateway + core services
		gwClient := gateway.NewHTTPClient(gateway.Config{
			BaseURL:  cfg.Gateway.BaseURL,
			SendPath: cfg.Gateway.SendPath,
			APIKey:   cfg.Gateway.APIKey,
			Sender:   cfg.Gateway.Sender,
			Timeout:  cfg.Gateway.Timeout,
		})
		notifier := gateway.NewAdminNotifier(gwClient, cfg.Admin.Number, audit, log)
		normalizer := normalize.New(audit)
		recipientStore := recipients.NewStore()

		engine := dispatch.NewEngine(gwClient, audit, notifier, log)
		if cfg.Dispatch.PaceMin > 0 {
			engine.PaceMin = cfg.Dispatch.PaceMin
		}
		if cfg.Dispatch.PaceMax > 0 {
			engine.PaceMax = cfg.Dispatch.PaceMax
		}

		registry, err := schedule.NewRegistry(schedule.Config{
			Timezone: cfg.Schedule.Timezone,
			Grace:    cfg.Schedule.Grace,
		}, schedulesRepo, engine, recipientStore, notifier, audit, log)
		if err != nil {
			return fmt.Errorf("schedule registry: %w", err)
		}
		if err := registry.Start(ctx); err != nil {
			return fmt.Errorf("start schedule registry: %w", err)
		}
		defer registry.Shutdown()

		// daily retention sweep on the registry's cron
		retentionDays := cfg.Retention.Days
		if retentionDays <= 0 {
			retentionDays = 30
		}
		err = registry.AddDailyJob("0 0 * * *", func() {
			n, err := audit.PurgeOlderThan(context.Background(), retentionDays)
			if err != nil {
				log.Error("log retention sweep failed", zap.Error(err))
				return
			}
			log.Info("old logs deleted", zap.Int64("rows", n))
		})
		if err != nil {
			return fmt.Errorf("register retention sweep: %w", err)
		}

		server := httpSrv.NewServer(cfg, httpSrv.Deps{
			Engine:     engine,
			Registry:   registry,
			Audit:      audit,
			Recipients: recipientStore,
			Normalizer: normalizer,
			Redis:      rds,
			Log:        log,
		})

		errCh := make(chan error, 1)
		go func() {
			log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				log.Error("http server exited", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)

		return nil
	},
}

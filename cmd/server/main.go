package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"courierhub/internal/auth"
	"courierhub/internal/chat"
	"courierhub/internal/commons"
	"courierhub/internal/config"
	"courierhub/internal/courier"
	"courierhub/internal/infrastructure/logger"
	"courierhub/internal/infrastructure/metrics"
	"courierhub/internal/infrastructure/mysql"
	"courierhub/internal/marker"
	"courierhub/internal/notification"
	"courierhub/internal/order"
	"courierhub/internal/server"
)

const (
	limiterCleanupSchedule = "@every 10m"
	limiterIdleTTL         = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	db, err := mysql.NewConnection(startupCtx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if err := mysql.Migrate(startupCtx, db); err != nil {
		zapLogger.Fatal("applying schema", zap.Error(err))
	}
	if err := metrics.RegisterDBStats(db, cfg.Database.Name); err != nil {
		zapLogger.Warn("registering database metrics", zap.Error(err))
	}

	credentials, err := commons.LoadCredentials(cfg.Auth.CredentialsFile)
	if err != nil {
		zapLogger.Fatal("loading credentials", zap.Error(err))
	}
	zapLogger.Info("credentials loaded", zap.Int("couriers", credentials.Len()))

	hub := notification.NewHub(cfg.Hub, zapLogger)

	courierModule := courier.NewModule(db, zapLogger)
	authModule := auth.NewModule(db, cfg, courierModule.Service, credentials, zapLogger)
	orderModule := order.NewModule(db, cfg, courierModule.Service, hub, zapLogger)
	chatModule := chat.NewModule(db, orderModule.UseCase, hub, zapLogger)
	markerCtrl := marker.NewModule(db, courierModule.Service, zapLogger)

	loginLimiter := server.NewRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst, zapLogger)

	scheduler := cron.New()
	if _, err := auth.ScheduleReaper(scheduler, cfg.Auth.ReapSchedule, authModule.Service, cfg.Database.QueryTimeout, zapLogger); err != nil {
		zapLogger.Fatal("scheduling session reaper", zap.Error(err))
	}
	if _, err := server.ScheduleCleanup(scheduler, limiterCleanupSchedule, loginLimiter, limiterIdleTTL); err != nil {
		zapLogger.Fatal("scheduling rate limiter cleanup", zap.Error(err))
	}
	scheduler.Start()

	lookup := server.SessionCourierLookup(authModule.Sessions, authModule.Service, courierModule.Service, zapLogger)

	router := server.NewRouter(server.Handlers{
		Auth:         authModule.Controller,
		Sessions:     authModule.Sessions,
		Courier:      courierModule.Controller,
		Orders:       orderModule.Controller,
		Chat:         chatModule.Controller,
		Markers:      markerCtrl,
		WebSocket:    notification.NewHandler(hub, lookup, zapLogger),
		LoginLimiter: loginLimiter,
		TrustProxy:   cfg.Server.TrustProxy,
		Ping:         db.PingContext,
	}, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)
	srv.OnShutdown(hub.Shutdown)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dailyroster/rosterd/internal/api"
	"github.com/dailyroster/rosterd/internal/config"
	"github.com/dailyroster/rosterd/internal/factory"
	"github.com/dailyroster/rosterd/internal/scheduler"
	"github.com/dailyroster/rosterd/internal/services/attendance"
	"github.com/dailyroster/rosterd/internal/services/auth"
	"github.com/dailyroster/rosterd/internal/services/policy"
	redisstorage "github.com/dailyroster/rosterd/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("failed to resolve timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	schedCfg, err := buildSchedulerConfig(cfg, loc)
	if err != nil {
		logger.Error("invalid phase configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	factoryCfg := factory.Config{
		Location:   loc,
		AuthConfig: auth.Config{IdleTimeout: cfg.SessionIdleTimeout},
		AttendanceConfig: attendance.Config{
			MarkWindow: cfg.MarkWindow,
		},
		PolicyConfig: policy.Config{
			WarningThreshold:        cfg.WarningThreshold,
			MissedDaysThreshold:     cfg.MissedDaysThreshold,
			InvalidDeclineThreshold: cfg.InvalidDeclineThreshold,
		},
		SchedulerConfig: schedCfg,
		Logger:          logger,
		StorageType:     cfg.StorageType,
	}

	if cfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("ROSTERD_REDIS_URL required when ROSTERD_STORAGE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		RosterService:     app.RosterService,
		AttendanceService: app.AttendanceService,
		Scheduler:         app.Scheduler,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.ListenHost
	serverConfig.Port = cfg.ListenPort
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start the daily cycle
	go app.Scheduler.Run(ctx)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// buildSchedulerConfig parses the HH:MM phase offsets into a scheduler config
func buildSchedulerConfig(cfg *config.Config, loc *time.Location) (scheduler.Config, error) {
	schedCfg := scheduler.DefaultConfig(loc)
	schedCfg.Quorum = cfg.Quorum
	schedCfg.QuorumTick = cfg.QuorumTick

	offsets := []struct {
		value  string
		target *scheduler.TimeOfDay
	}{
		{cfg.EntryCreationAt, &schedCfg.EntryCreationAt},
		{cfg.ReminderAt, &schedCfg.ReminderAt},
		{cfg.LockAt, &schedCfg.LockAt},
		{cfg.PolicySweepAt, &schedCfg.PolicySweepAt},
		{cfg.ResolutionAt, &schedCfg.ResolutionAt},
	}
	for _, o := range offsets {
		tod, err := scheduler.ParseTimeOfDay(o.value)
		if err != nil {
			return scheduler.Config{}, err
		}
		*o.target = tod
	}

	return schedCfg, nil
}

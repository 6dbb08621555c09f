package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/remindly/remind-api/internal/config"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/logger"
	"github.com/remindly/remind-api/internal/notify"
	"github.com/remindly/remind-api/internal/recurrence"
	"github.com/remindly/remind-api/internal/scheduler"
	"go.uber.org/zap"
)

// schedulerd runs the due-reminder scan loop as a standalone daemon, for
// deployments that keep the API and the scheduler in separate processes.
func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	onceFlag := flag.Bool("once", false, "Run a single scan and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.SchedulerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_scheduler",
		zap.Bool("debug_mode", debugMode),
		zap.Duration("check_interval", cfg.CheckInterval),
		zap.Duration("detection_window", cfg.DetectionWindow),
	)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	taskRepo := database.NewTaskRepository(db)

	var tracker scheduler.Tracker
	if cfg.RedisURL != "" {
		redisTracker, err := scheduler.NewRedisTracker(cfg.RedisURL, scheduler.DefaultTrackerRetention)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisTracker.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		tracker = redisTracker
		zapLogger.Info("connected_to_redis")
	} else {
		tracker = scheduler.NewMemoryTracker(scheduler.DefaultTrackerRetention)
		zapLogger.Info("using_in_memory_notification_tracker")
	}

	channels, err := config.LoadChannels(cfg.ChannelsFile)
	if err != nil {
		zapLogger.Fatal("failed_to_load_notification_channels", zap.Error(err))
	}
	notifyHandlers := notify.Build(cfg, channels, zapLogger)
	if len(notifyHandlers) == 0 {
		zapLogger.Fatal("no_notification_channels_configured")
	}

	clock := recurrence.SystemClock()
	scanner := scheduler.NewScanner(taskRepo, cfg.DetectionWindow)
	dispatcher := scheduler.NewDispatcher(notifyHandlers, tracker, cfg.HandlerTimeout, zapLogger)
	loop := scheduler.NewLoop(scanner, dispatcher, taskRepo, clock, cfg.CheckInterval, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *onceFlag {
		loop.RunOnce(ctx)
		zapLogger.Info("single_scan_complete")
		return
	}

	if err := loop.Start(ctx); err != nil {
		zapLogger.Fatal("failed_to_start_scheduler_loop", zap.Error(err))
	}
	zapLogger.Info("scheduler_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("shutdown_signal_received")
	loop.Stop()
	cancel()
	zapLogger.Info("scheduler_stopped")
}

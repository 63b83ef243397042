package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syncdeck/core/internal/config"
	"github.com/syncdeck/core/pkg/database/pool"
	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/notifier"
	"github.com/syncdeck/core/pkg/registry"
	"github.com/syncdeck/core/pkg/runner"
	"github.com/syncdeck/core/pkg/scheduler"
	"github.com/syncdeck/core/pkg/server"
	"github.com/syncdeck/core/pkg/store"
)

func main() {
	// Parse command line flags
	var (
		jobID = flag.Int64("job", 0, "Trigger a specific job by id")
		once  = flag.Bool("once", false, "Run the job once and exit")
	)
	flag.Parse()

	logger.SetupLogger()
	cfg := config.Load()

	ctx := context.Background()

	// Connect to database
	db, err := pool.New(ctx, cfg.DatabaseURL(), pool.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Advisory locks are session scoped, so the lock manager gets its own
	// single-connection pool. Every lock call then lands on the same
	// session and unlock releases what lock acquired.
	lockPoolCfg := pool.DefaultConfig()
	lockPoolCfg.MaxConns = 1
	lockPoolCfg.MinConns = 1
	lockDB, err := pool.New(ctx, cfg.DatabaseURL(), lockPoolCfg)
	if err != nil {
		log.Fatalf("Failed to connect lock session: %v", err)
	}
	defer lockDB.Close()

	st := store.NewPostgresStore(db)
	locks := store.NewPostgresLockManager(lockDB)

	var notify notifier.Notifier = notifier.Noop{}
	if cfg.Notifier.WebhookURL != "" {
		notify = notifier.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout)
	}

	reg := registry.New(cfg.SyncTool.StopGracePeriod, logger.New("process-registry"))

	run := runner.New(runner.Config{
		BinaryPath:       cfg.SyncTool.BinaryPath,
		ConfigPath:       cfg.SyncTool.ConfigPath,
		BandwidthLimit:   cfg.SyncTool.BandwidthLimit,
		SnapshotInterval: cfg.SyncTool.SnapshotInterval,
	}, st, notify, reg, locks, nil)

	// Handle single job execution
	if *once && *jobID != 0 {
		ctx, cancel := context.WithTimeout(ctx, 12*time.Hour)
		defer cancel()

		job, err := st.GetJob(ctx, *jobID)
		if err != nil {
			log.Fatalf("Failed to load job %d: %v", *jobID, err)
		}
		log.Printf("Running job %q once...", job.Name)
		run.Execute(ctx, *job)
		log.Printf("Job %q finished", job.Name)
		return
	}

	loop := scheduler.New(scheduler.Config{
		Timezone:       cfg.Scheduler.Timezone,
		TickInterval:   cfg.Scheduler.TickInterval,
		StartupDelay:   cfg.Scheduler.StartupDelay,
		DebounceWindow: cfg.Scheduler.DebounceWindow,
		MaxConcurrent:  cfg.Scheduler.MaxConcurrent,
	}, st, run, reg, scheduler.NewDebounce(cfg.Scheduler.DebounceWindow))

	if err := loop.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := server.New(cfg, st, run, logger.New("status-api"))
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Status server failed: %v", err)
		}
	}()

	log.Printf("Sync engine started on port %s", cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sync engine...")
	loop.Stop()
	reg.StopAll(registry.StopReasonShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Status server shutdown: %v", err)
	}

	// Give signaled processes their grace period to finalize their runs.
	time.Sleep(cfg.SyncTool.StopGracePeriod + time.Second)
	log.Println("Sync engine stopped")
}

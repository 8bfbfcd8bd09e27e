package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"papersum/internal/auth"
	"papersum/internal/config"
	"papersum/internal/extract"
	"papersum/internal/jobs"
	"papersum/internal/metrics"
	"papersum/internal/ratelimiter"
	"papersum/internal/scheduler"
	"papersum/internal/server"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	log := newLogger(os.Stdout, cfg)
	start := time.Now()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	repo, closeStore, err := openUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	authSvc, err := auth.NewService(ctx, repo, log)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	m := metrics.New()

	p, err := newPipeline(ctx, cfg, m, log)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	jobMgr, err := jobs.NewManager(ctx, p, m, log, jobs.Config{
		MaxConcurrent:    cfg.MaxConcurrentJobs,
		TTL:              cfg.JobTTL,
		MaxEntries:       cfg.JobsMaxEntries,
		ProgressInterval: cfg.ProgressInterval,
	})
	if err != nil {
		return fmt.Errorf("initialize jobs: %w", err)
	}

	limiter := ratelimiter.New(cfg.SubmitInterval)

	sched := scheduler.New(ctx, cfg.SweepSpec, log, jobMgr, limiter)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", sched.Spec())

		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec(),
		"timezone", scheduler.Timezone)

	srv := server.New(authSvc, jobMgr, extract.New(cfg.PDFDelay, log), m, log, server.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Limiter:        limiter,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTPAddr)
	}()
	log.InfoContext(ctx, "Server is started",
		"addr", cfg.HTTPAddr)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-errCh:
		if err != nil {
			log.ErrorContext(ctx, "Failed to serve",
				"error", err,
				"addr", cfg.HTTPAddr)

			return fmt.Errorf("serve: %w", err)
		}
	case <-parent.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Failed to shut down server",
			"error", err)
	}

	cancel()
	jobMgr.Wait()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}

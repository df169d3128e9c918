// @title           Payreview API
// @version         1.0
// @description     Invoice line item review and skonto discount service.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"payreview/internal/config"
	"payreview/internal/handler"
	"payreview/internal/logger"
	"payreview/internal/port"
	boltrepo "payreview/internal/repository/bolt"
	"payreview/internal/repository/postgres"
	"payreview/internal/router"
	"payreview/internal/service"
	s3storage "payreview/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// stores bundles the repositories of the configured store driver.
type stores struct {
	sessions port.ReviewSessionRepository
	feedback port.FeedbackRepository
	health   port.HealthChecker
	closer   io.Closer
}

func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverBolt:
		db, err := boltrepo.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			sessions: boltrepo.NewReviewSessionRepo(db),
			feedback: boltrepo.NewFeedbackRepo(db),
			health:   boltrepo.NewHealthChecker(db),
			closer:   db,
		}, nil
	default:
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &stores{
			sessions: postgres.NewReviewSessionRepo(db),
			feedback: postgres.NewFeedbackRepo(db),
			health:   postgres.NewHealthChecker(db),
			closer:   db,
		}, nil
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.closer.Close()

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	reviewSvc := service.NewReviewService(st.sessions, st.feedback, s3Client, cfg)

	worker := service.NewFeedbackWorker(st.feedback, s3Client, service.FeedbackWorkerConfig{
		PollInterval: cfg.Feedback.PollInterval(),
		MaxAttempts:  cfg.Feedback.MaxAttempts,
		Concurrency:  cfg.Feedback.Concurrency,
		Bucket:       cfg.S3.Bucket,
		Prefix:       cfg.S3.FeedbackPrefix,
	})
	workerDone := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(workerDone)
	}()

	// Initialize handlers
	reviewH := handler.NewReviewHandler(reviewSvc)
	healthH := handler.NewHealthHandler(st.health)

	// Setup router
	r := router.Setup(cfg, authSvc, reviewH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("store", cfg.Store.Driver).
			Str("environment", cfg.Server.Environment).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-workerDone
	log.Info().Msg("shutdown complete")
	return nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"payreview/internal/domain"
	"payreview/internal/port"
)

// FeedbackWorkerConfig holds settings for the feedback delivery worker.
type FeedbackWorkerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	Concurrency  int
	Bucket       string
	Prefix       string
}

// FeedbackWorker polls for pending feedback submissions and archives their
// payloads in object storage.
type FeedbackWorker struct {
	feedbackRepo port.FeedbackRepository
	storage      port.ObjectStorage
	cfg          FeedbackWorkerConfig
	wg           sync.WaitGroup
}

// NewFeedbackWorker creates a new FeedbackWorker.
func NewFeedbackWorker(feedbackRepo port.FeedbackRepository, storage port.ObjectStorage, cfg FeedbackWorkerConfig) *FeedbackWorker {
	return &FeedbackWorker{
		feedbackRepo: feedbackRepo,
		storage:      storage,
		cfg:          cfg,
	}
}

// FeedbackObjectKey is where the payload of a session's feedback is stored.
func FeedbackObjectKey(prefix string, fb *domain.FeedbackSubmission) string {
	return path.Join(prefix, fb.TenantID.String(), fb.SessionID.String()+".json")
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight deliveries have finished.
func (w *FeedbackWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Info().
		Dur("poll", w.cfg.PollInterval).
		Int("concurrency", w.cfg.Concurrency).
		Int("max_attempts", w.cfg.MaxAttempts).
		Msg("feedbackWorker: started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("feedbackWorker: shutting down, waiting for in-flight deliveries...")
			w.wg.Wait()
			log.Info().Msg("feedbackWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			pending, err := w.feedbackRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error().Err(err).Msg("feedbackWorker: ClaimPending error")
				continue
			}

			for i := range pending {
				fb := pending[i]

				sem <- struct{}{}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()

					// Deliveries finish even during shutdown.
					deliverCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
					defer cancel()

					w.Deliver(deliverCtx, &fb)
				}()
			}
		}
	}
}

// Deliver uploads one claimed submission and records the outcome. A failure
// on the last allowed attempt marks the submission failed for good.
func (w *FeedbackWorker) Deliver(ctx context.Context, fb *domain.FeedbackSubmission) {
	key := FeedbackObjectKey(w.cfg.Prefix, fb)
	logger := log.With().
		Stringer("feedback_id", fb.ID).
		Stringer("session_id", fb.SessionID).
		Int("attempt", fb.Attempts).
		Logger()

	_, err := w.storage.Upload(ctx, port.UploadInput{
		Bucket:      w.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(fb.Payload),
		ContentType: "application/json",
		Metadata: map[string]string{
			"tenant-id":  fb.TenantID.String(),
			"session-id": fb.SessionID.String(),
		},
	})
	if err != nil {
		w.fail(ctx, fb, fmt.Errorf("uploading feedback: %w", err))
		return
	}

	if err := w.feedbackRepo.MarkDelivered(ctx, fb.ID, key); err != nil {
		// The next attempt uploads again under the same key.
		if delErr := w.storage.Delete(ctx, w.cfg.Bucket, key); delErr != nil {
			logger.Warn().Err(delErr).Str("key", key).Msg("feedbackWorker: removing orphaned upload failed")
		}
		w.fail(ctx, fb, fmt.Errorf("marking delivered: %w", err))
		return
	}
	logger.Info().Str("key", key).Msg("feedbackWorker: feedback delivered")
}

func (w *FeedbackWorker) fail(ctx context.Context, fb *domain.FeedbackSubmission, cause error) {
	final := fb.Attempts >= w.cfg.MaxAttempts
	log.Error().Err(cause).
		Stringer("feedback_id", fb.ID).
		Int("attempt", fb.Attempts).
		Bool("final", final).
		Msg("feedbackWorker: delivery failed")

	if err := w.feedbackRepo.MarkFailed(ctx, fb.ID, cause.Error(), final); err != nil {
		log.Error().Err(err).Stringer("feedback_id", fb.ID).Msg("feedbackWorker: MarkFailed error")
	}
}

package port

import (
	"context"

	"github.com/google/uuid"

	"payreview/internal/domain"
)

// ReviewSessionRepository defines the contract for review session persistence.
// All query methods include tenantID to enforce tenant isolation at the data layer.
type ReviewSessionRepository interface {
	Create(ctx context.Context, session *domain.ReviewSession) error
	GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, error)
	// Update writes the session if its stored version still equals
	// session.Version and bumps the version. A stale version yields
	// domain.ErrSessionConflict.
	Update(ctx context.Context, session *domain.ReviewSession) error
	// Close stores the final session state and, when feedback is non-nil,
	// the feedback submission in one transaction.
	Close(ctx context.Context, session *domain.ReviewSession, feedback *domain.FeedbackSubmission) error
}

// FeedbackRepository defines the contract for feedback submission persistence.
type FeedbackRepository interface {
	GetBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.FeedbackSubmission, error)
	// ClaimPending moves up to limit pending submissions to processing,
	// increments their attempt counter and returns them.
	ClaimPending(ctx context.Context, limit int) ([]domain.FeedbackSubmission, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, objectKey string) error
	// MarkFailed records a delivery error. Non-final failures go back to
	// pending for another attempt.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"payreview/internal/domain"
	"payreview/internal/port"
)

type feedbackRepo struct {
	db *sqlx.DB
}

// NewFeedbackRepo creates a new PostgreSQL-backed FeedbackRepository.
func NewFeedbackRepo(db *sqlx.DB) port.FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) GetBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.FeedbackSubmission, error) {
	var fb domain.FeedbackSubmission
	err := r.db.GetContext(ctx, &fb,
		"SELECT * FROM feedback_submissions WHERE session_id = $1 AND tenant_id = $2", sessionID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("feedbackRepo.GetBySession: %w", err)
	}
	return &fb, nil
}

// ClaimPending uses SKIP LOCKED so several server instances can poll the
// same table without delivering a submission twice.
func (r *feedbackRepo) ClaimPending(ctx context.Context, limit int) ([]domain.FeedbackSubmission, error) {
	var claimed []domain.FeedbackSubmission
	err := r.db.SelectContext(ctx, &claimed,
		`UPDATE feedback_submissions SET
			status = $1, attempts = attempts + 1, updated_at = $2
		 WHERE id IN (
			SELECT id FROM feedback_submissions
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED)
		 RETURNING *`,
		domain.FeedbackStatusProcessing, time.Now().UTC(), domain.FeedbackStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("feedbackRepo.ClaimPending: %w", err)
	}
	return claimed, nil
}

func (r *feedbackRepo) MarkDelivered(ctx context.Context, id uuid.UUID, objectKey string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE feedback_submissions SET
			status = $1, object_key = $2, last_error = '', delivered_at = $3, updated_at = $3
		 WHERE id = $4`,
		domain.FeedbackStatusDelivered, objectKey, now, id)
	if err != nil {
		return fmt.Errorf("feedbackRepo.MarkDelivered: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *feedbackRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error {
	status := domain.FeedbackStatusPending
	if final {
		status = domain.FeedbackStatusFailed
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE feedback_submissions SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`,
		status, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("feedbackRepo.MarkFailed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

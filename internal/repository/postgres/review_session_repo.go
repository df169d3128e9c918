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

type reviewSessionRepo struct {
	db *sqlx.DB
}

// NewReviewSessionRepo creates a new PostgreSQL-backed ReviewSessionRepository.
func NewReviewSessionRepo(db *sqlx.DB) port.ReviewSessionRepository {
	return &reviewSessionRepo{db: db}
}

func (r *reviewSessionRepo) Create(ctx context.Context, s *domain.ReviewSession) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	query := `INSERT INTO review_sessions (
			id, tenant_id, status, extractions, compound_extractions, return_reasons,
			line_items, skonto_data, skonto_active, skonto_error, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.Status, s.Extractions, s.CompoundExtractions, s.ReturnReasons,
		s.LineItems, s.SkontoData, s.SkontoActive, s.SkontoError, s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("reviewSessionRepo.Create: %w", err)
	}
	return nil
}

func (r *reviewSessionRepo) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	var s domain.ReviewSession
	err := r.db.GetContext(ctx, &s,
		"SELECT * FROM review_sessions WHERE id = $1 AND tenant_id = $2", sessionID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("reviewSessionRepo.GetByID: %w", err)
	}
	return &s, nil
}

func (r *reviewSessionRepo) Update(ctx context.Context, s *domain.ReviewSession) error {
	if err := updateSession(ctx, r.db, s); err != nil {
		return fmt.Errorf("reviewSessionRepo.Update: %w", err)
	}
	return nil
}

func (r *reviewSessionRepo) Close(ctx context.Context, s *domain.ReviewSession, fb *domain.FeedbackSubmission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reviewSessionRepo.Close begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateSession(ctx, tx, s); err != nil {
		return fmt.Errorf("reviewSessionRepo.Close: %w", err)
	}
	if fb != nil {
		fb.CreatedAt = s.UpdatedAt
		fb.UpdatedAt = s.UpdatedAt
		_, err = tx.ExecContext(ctx,
			`INSERT INTO feedback_submissions (
				id, tenant_id, session_id, payload, status, attempts, last_error, object_key, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			fb.ID, fb.TenantID, fb.SessionID, fb.Payload, fb.Status, fb.Attempts, fb.LastError,
			fb.ObjectKey, fb.CreatedAt, fb.UpdatedAt)
		if err != nil {
			return fmt.Errorf("reviewSessionRepo.Close feedback: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reviewSessionRepo.Close commit: %w", err)
	}
	return nil
}

// updateSession writes s when the stored version matches and bumps s.Version.
func updateSession(ctx context.Context, ex sqlx.ExecerContext, s *domain.ReviewSession) error {
	updatedAt := time.Now().UTC()
	result, err := ex.ExecContext(ctx,
		`UPDATE review_sessions SET
			status = $1, line_items = $2, skonto_data = $3, skonto_active = $4,
			skonto_error = $5, closed_at = $6, updated_at = $7, version = version + 1
		 WHERE id = $8 AND tenant_id = $9 AND version = $10`,
		s.Status, s.LineItems, s.SkontoData, s.SkontoActive,
		s.SkontoError, s.ClosedAt, updatedAt,
		s.ID, s.TenantID, s.Version)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSessionConflict
	}
	s.UpdatedAt = updatedAt
	s.Version++
	return nil
}

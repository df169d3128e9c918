package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"payreview/internal/domain"
	"payreview/internal/port"
)

type reviewSessionRepo struct {
	db *bbolt.DB
}

// NewReviewSessionRepo creates a bbolt-backed ReviewSessionRepository.
func NewReviewSessionRepo(db *bbolt.DB) port.ReviewSessionRepository {
	return &reviewSessionRepo{db: db}
}

func (r *reviewSessionRepo) Create(_ context.Context, s *domain.ReviewSession) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b.Get([]byte(s.ID.String())) != nil {
			return fmt.Errorf("session %s already exists", s.ID)
		}
		return put(b, s.ID.String(), s)
	})
	if err != nil {
		return fmt.Errorf("reviewSessionRepo.Create: %w", err)
	}
	return nil
}

func (r *reviewSessionRepo) GetByID(_ context.Context, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	var s *domain.ReviewSession
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		s, err = getSession(tx, tenantID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *reviewSessionRepo) Update(_ context.Context, s *domain.ReviewSession) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return updateSession(tx, s)
	})
}

func (r *reviewSessionRepo) Close(_ context.Context, s *domain.ReviewSession, fb *domain.FeedbackSubmission) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := updateSession(tx, s); err != nil {
			return err
		}
		if fb == nil {
			return nil
		}
		fb.CreatedAt = s.UpdatedAt
		fb.UpdatedAt = s.UpdatedAt
		if err := put(tx.Bucket(feedbackBucket), fb.ID.String(), fb); err != nil {
			return fmt.Errorf("reviewSessionRepo.Close feedback: %w", err)
		}
		return tx.Bucket(feedbackBySessionIdx).Put([]byte(fb.SessionID.String()), []byte(fb.ID.String()))
	})
}

func getSession(tx *bbolt.Tx, tenantID, sessionID uuid.UUID) (*domain.ReviewSession, error) {
	data := tx.Bucket(sessionsBucket).Get([]byte(sessionID.String()))
	if data == nil {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.ReviewSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling session %s: %w", sessionID, err)
	}
	if s.TenantID != tenantID {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

// updateSession writes s over the stored copy when the versions match. Only
// the mutable columns are taken from s, like the postgres UPDATE.
func updateSession(tx *bbolt.Tx, s *domain.ReviewSession) error {
	stored, err := getSession(tx, s.TenantID, s.ID)
	if err != nil {
		return err
	}
	if stored.Version != s.Version {
		return domain.ErrSessionConflict
	}

	stored.Status = s.Status
	stored.LineItems = s.LineItems
	stored.SkontoData = s.SkontoData
	stored.SkontoActive = s.SkontoActive
	stored.SkontoError = s.SkontoError
	stored.ClosedAt = s.ClosedAt
	stored.UpdatedAt = time.Now().UTC()
	stored.Version++

	if err := put(tx.Bucket(sessionsBucket), stored.ID.String(), stored); err != nil {
		return fmt.Errorf("reviewSessionRepo.Update: %w", err)
	}
	s.UpdatedAt = stored.UpdatedAt
	s.Version = stored.Version
	return nil
}

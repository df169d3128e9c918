package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"payreview/internal/domain"
	"payreview/internal/port"
)

type feedbackRepo struct {
	db *bbolt.DB
}

// NewFeedbackRepo creates a bbolt-backed FeedbackRepository.
func NewFeedbackRepo(db *bbolt.DB) port.FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) GetBySession(_ context.Context, tenantID, sessionID uuid.UUID) (*domain.FeedbackSubmission, error) {
	var fb *domain.FeedbackSubmission
	err := r.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(feedbackBySessionIdx).Get([]byte(sessionID.String()))
		if id == nil {
			return domain.ErrNotFound
		}
		var err error
		fb, err = getFeedback(tx, string(id))
		if err != nil {
			return err
		}
		if fb.TenantID != tenantID {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (r *feedbackRepo) ClaimPending(_ context.Context, limit int) ([]domain.FeedbackSubmission, error) {
	var claimed []domain.FeedbackSubmission
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(feedbackBucket)
		var pending []domain.FeedbackSubmission
		err := b.ForEach(func(_, v []byte) error {
			var fb domain.FeedbackSubmission
			if err := json.Unmarshal(v, &fb); err != nil {
				return fmt.Errorf("unmarshaling feedback: %w", err)
			}
			if fb.Status == domain.FeedbackStatusPending {
				pending = append(pending, fb)
			}
			return nil
		})
		if err != nil {
			return err
		}

		sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
		if len(pending) > limit {
			pending = pending[:limit]
		}
		now := time.Now().UTC()
		for i := range pending {
			pending[i].Status = domain.FeedbackStatusProcessing
			pending[i].Attempts++
			pending[i].UpdatedAt = now
			if err := put(b, pending[i].ID.String(), pending[i]); err != nil {
				return err
			}
		}
		claimed = pending
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feedbackRepo.ClaimPending: %w", err)
	}
	return claimed, nil
}

func (r *feedbackRepo) MarkDelivered(_ context.Context, id uuid.UUID, objectKey string) error {
	return r.modify(id, func(fb *domain.FeedbackSubmission) {
		now := time.Now().UTC()
		fb.Status = domain.FeedbackStatusDelivered
		fb.ObjectKey = objectKey
		fb.LastError = ""
		fb.DeliveredAt = &now
		fb.UpdatedAt = now
	})
}

func (r *feedbackRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, final bool) error {
	return r.modify(id, func(fb *domain.FeedbackSubmission) {
		fb.Status = domain.FeedbackStatusPending
		if final {
			fb.Status = domain.FeedbackStatusFailed
		}
		fb.LastError = errMsg
		fb.UpdatedAt = time.Now().UTC()
	})
}

func (r *feedbackRepo) modify(id uuid.UUID, fn func(*domain.FeedbackSubmission)) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		fb, err := getFeedback(tx, id.String())
		if err != nil {
			return err
		}
		fn(fb)
		return put(tx.Bucket(feedbackBucket), id.String(), fb)
	})
}

func getFeedback(tx *bbolt.Tx, id string) (*domain.FeedbackSubmission, error) {
	data := tx.Bucket(feedbackBucket).Get([]byte(id))
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var fb domain.FeedbackSubmission
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("unmarshaling feedback %s: %w", id, err)
	}
	return &fb, nil
}

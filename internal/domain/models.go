package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReviewSession is the persisted state of one invoice review. The line item
// and skonto columns are snapshots the review aggregate is rebuilt from.
type ReviewSession struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	TenantID            uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	Status              SessionStatus   `db:"status" json:"status"`
	Extractions         json.RawMessage `db:"extractions" json:"extractions"`
	CompoundExtractions json.RawMessage `db:"compound_extractions" json:"compound_extractions"`
	ReturnReasons       json.RawMessage `db:"return_reasons" json:"return_reasons"`
	LineItems           json.RawMessage `db:"line_items" json:"line_items"`
	SkontoData          json.RawMessage `db:"skonto_data" json:"skonto_data"`
	SkontoActive        bool            `db:"skonto_active" json:"skonto_active"`
	SkontoError         string          `db:"skonto_error" json:"skonto_error"`
	Version             int             `db:"version" json:"version"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
	ClosedAt            *time.Time      `db:"closed_at" json:"closed_at"`
}

// IsOpen reports whether the session still accepts edits.
func (s *ReviewSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// FeedbackSubmission is a reviewed extraction payload waiting for, or done
// with, delivery to the feedback sink.
type FeedbackSubmission struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	TenantID    uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	SessionID   uuid.UUID       `db:"session_id" json:"session_id"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Status      FeedbackStatus  `db:"status" json:"status"`
	Attempts    int             `db:"attempts" json:"attempts"`
	LastError   string          `db:"last_error" json:"last_error"`
	ObjectKey   string          `db:"object_key" json:"object_key"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	DeliveredAt *time.Time      `db:"delivered_at" json:"delivered_at"`
}

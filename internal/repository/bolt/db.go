// Package bolt stores review sessions and feedback submissions in an
// embedded bbolt file for single-node deployments. Values are JSON documents
// keyed by ID.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"payreview/internal/port"
)

var (
	sessionsBucket       = []byte("review_sessions")
	feedbackBucket       = []byte("feedback_submissions")
	feedbackBySessionIdx = []byte("feedback_by_session")
	allBuckets           = [][]byte{sessionsBucket, feedbackBucket, feedbackBySessionIdx}
)

// Open opens or creates the database file and its buckets.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return db, nil
}

func put(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

type healthChecker struct {
	db *bbolt.DB
}

// NewHealthChecker reports whether the database file is usable.
func NewHealthChecker(db *bbolt.DB) port.HealthChecker {
	return &healthChecker{db: db}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(sessionsBucket) == nil {
			return fmt.Errorf("bolt ping: bucket %s missing", sessionsBucket)
		}
		return nil
	})
}

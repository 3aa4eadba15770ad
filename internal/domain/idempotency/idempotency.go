// Package idempotency defines the key store behind the X-Idempotency-Key header.
// A key remembers the first response to a mutating request so a retried
// request replays it instead of running twice.
package idempotency

import (
	"context"
	"time"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// DefaultTTL is how long a completed key is remembered.
const DefaultTTL = 24 * time.Hour

// StaleAfter is the age after which a pending key is assumed abandoned and reclaimed.
const StaleAfter = time.Minute

// Replay is the cached HTTP response for a completed key.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
type Store interface {
	// AcquireKey returns (nil, nil) when the caller now owns the key, a Replay
	// when the operation already finished, or Conflict when the key is in flight
	// or was used for a different request.
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// NormalizeReplay fills defaults for records stored without status or content type.
func NormalizeReplay(r *Replay) *Replay {
	if r.StatusCode == 0 {
		r.StatusCode = 200
	}
	if r.ContentType == "" {
		r.ContentType = "application/json"
	}
	return r
}

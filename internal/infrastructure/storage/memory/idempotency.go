package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bistro/internal/core/apperror"
	"bistro/internal/domain/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

type idemRecord struct {
	userID, operation, requestHash string
	status                         idempotency.Status
	replay                         idempotency.Replay
	updatedAt, expiresAt           time.Time
}

// IdempotencyStore keeps idempotency keys in memory. It sits outside the
// transactional state: a key outlives the rollback of the request it guards.
type IdempotencyStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]*idemRecord
}

// NewIdempotencyStore creates an in-memory idempotency store.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &IdempotencyStore{ttl: ttl, now: time.Now, keys: map[string]*idemRecord{}}
}

func (s *IdempotencyStore) AcquireKey(_ context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.keys[key]
	if !ok || now.After(rec.expiresAt) {
		s.keys[key] = &idemRecord{
			userID: userID, operation: operation, requestHash: requestHash,
			status: idempotency.StatusPending, updatedAt: now, expiresAt: now.Add(s.ttl),
		}
		return nil, nil
	}

	if rec.userID != userID || rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewConflict("idempotency key was used for a different request").
			WithDetail("idempotency_key", key)
	}
	if rec.status != idempotency.StatusPending {
		replay := rec.replay
		return idempotency.NormalizeReplay(&replay), nil
	}
	if now.Sub(rec.updatedAt) <= idempotency.StaleAfter {
		return nil, apperror.NewConflict("request with this idempotency key is still in progress").
			WithDetail("idempotency_key", key)
	}
	rec.updatedAt = now
	return nil, nil
}

func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, idempotency.StatusSuccess, statusCode, contentType, response)
}

func (s *IdempotencyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, idempotency.StatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(key string, status idempotency.Status, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return err
		}
		body = b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if !ok {
		return nil
	}
	rec.status = status
	rec.replay = idempotency.Replay{StatusCode: statusCode, ContentType: contentType, Body: body}
	rec.updatedAt = s.now()
	return nil
}

func (s *IdempotencyStore) CleanupExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for key, rec := range s.keys {
		if now.After(rec.expiresAt) {
			delete(s.keys, key)
			n++
		}
	}
	return n, nil
}

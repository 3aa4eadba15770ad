package memory

import (
	"context"
	"time"

	appctx "bistro/internal/core/context"
	"bistro/internal/core/id"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/events"
	"bistro/pkg/numerator"
)

var (
	_ numerator.Store  = (*Sequences)(nil)
	_ events.Publisher = (*Outbox)(nil)
	_ audit.Recorder   = (*AuditLog)(nil)
	_ audit.Reader     = (*AuditLog)(nil)
)

// Sequences implements numerator.Store. Counters roll back with the transaction.
type Sequences struct{ s *Store }

// NewSequences creates the counter store.
func NewSequences(s *Store) *Sequences { return &Sequences{s: s} }

func (q *Sequences) Increment(ctx context.Context, key string, by int64) (int64, error) {
	var v int64
	err := q.s.write(ctx, func(st *state) error {
		st.sequences[key] += by
		v = st.sequences[key]
		return nil
	})
	return v, err
}

func (q *Sequences) Set(ctx context.Context, key string, value int64) error {
	return q.s.write(ctx, func(st *state) error {
		st.sequences[key] = value
		return nil
	})
}

// Outbox records published events in the transaction.
type Outbox struct{ s *Store }

// NewOutbox creates the event outbox.
func NewOutbox(s *Store) *Outbox { return &Outbox{s: s} }

func (o *Outbox) Publish(ctx context.Context, event events.Event) error {
	return o.s.write(ctx, func(st *state) error {
		st.outbox = append(st.outbox, event)
		return nil
	})
}

// Events returns every committed event in publish order.
func (o *Outbox) Events() []events.Event {
	var out []events.Event
	o.s.read(func(st *state) {
		out = append(out, st.outbox...)
	})
	return out
}

// AuditLog keeps audit entries.
type AuditLog struct{ s *Store }

// NewAuditLog creates the audit log.
func NewAuditLog(s *Store) *AuditLog { return &AuditLog{s: s} }

func (a *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return a.s.write(ctx, func(st *state) error {
		st.audit = append(st.audit, entry)
		return nil
	})
}

func (a *AuditLog) History(_ context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []audit.Entry
	a.s.read(func(st *state) {
		for i := len(st.audit) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.audit[i]
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

// Package audit defines the change log written alongside every state-changing operation.
package audit

import (
	"context"
	"time"

	"bistro/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionStatus Action = "status"
)

// Entry is one audit record. UserID is filled from the request context when empty.
type Entry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     Action         `json:"action"`
	UserID     string         `json:"userId,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Recorder persists audit entries in the transaction carried by ctx.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader returns the history of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

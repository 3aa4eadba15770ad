package postgres

import (
	"context"
	"fmt"

	"bistro/pkg/numerator"
)

var _ numerator.Store = (*Sequences)(nil)

// Sequences implements numerator.Store on sys_sequences. The upsert runs in
// the caller's transaction, so a rolled-back document releases its number.
type Sequences struct {
	txManager *TxManager
}

// NewSequences creates the counter store.
func NewSequences(txManager *TxManager) *Sequences {
	return &Sequences{txManager: txManager}
}

// Increment adds by to key, creating it at by, and returns the new value.
func (s *Sequences) Increment(ctx context.Context, key string, by int64) (int64, error) {
	var v int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val
		RETURNING current_val
	`, key, by).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", key, err)
	}
	return v, nil
}

// Set overwrites the current value of key.
func (s *Sequences) Set(ctx context.Context, key string, value int64) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = EXCLUDED.current_val
	`, key, value)
	if err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}
	return nil
}

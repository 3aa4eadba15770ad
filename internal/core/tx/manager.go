// Package tx defines the unit-of-work boundary used by domain services.
// Implementations live in infrastructure/storage (postgres, memory).
package tx

import (
	"context"
)

// Manager runs a function as one all-or-nothing unit of work.
//
// The transaction travels in the returned context; repositories pick it up from there.
// Nested calls reuse the transaction already present in ctx, so a service may call
// another service's transactional method without opening a second transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error every write issued through ctx is rolled back.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

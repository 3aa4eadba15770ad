package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/core/apperror"
	"bistro/internal/core/id"
	"bistro/internal/domain/orders"
)

// tableStore is an orders.TableStore over a fixed set of tables.
type tableStore struct {
	occupied map[id.ID]bool
	active   map[id.ID]bool
}

func (s *tableStore) LockTable(_ context.Context, tableID id.ID) error {
	if _, ok := s.occupied[tableID]; !ok {
		return apperror.NewNotFound("table", tableID.String())
	}
	return nil
}

func (s *tableStore) HasActiveOrder(_ context.Context, tableID, _ id.ID) (bool, error) {
	return s.active[tableID], nil
}

func (s *tableStore) SetTableOccupied(_ context.Context, tableID id.ID, occupied bool) error {
	if _, ok := s.occupied[tableID]; !ok {
		return apperror.NewNotFound("table", tableID.String())
	}
	s.occupied[tableID] = occupied
	return nil
}

func TestRecompute_SkipsMissingTables(t *testing.T) {
	busy, free, gone := id.New(), id.New(), id.New()
	store := &tableStore{
		occupied: map[id.ID]bool{busy: false, free: true},
		active:   map[id.ID]bool{busy: true},
	}
	tracker := orders.NewOccupancyTracker(store)

	require.NoError(t, tracker.Recompute(context.Background(), &gone, &busy, nil, &free, &busy))
	assert.Equal(t, map[id.ID]bool{busy: true, free: false}, store.occupied)
}

func TestClaim(t *testing.T) {
	busy, free := id.New(), id.New()
	store := &tableStore{
		occupied: map[id.ID]bool{busy: true, free: false},
		active:   map[id.ID]bool{busy: true},
	}
	tracker := orders.NewOccupancyTracker(store)
	ctx := context.Background()

	assert.NoError(t, tracker.Claim(ctx, free, id.New()))
	assert.True(t, apperror.HasCode(tracker.Claim(ctx, busy, id.New()), apperror.CodeTableOccupied))
	assert.True(t, apperror.IsNotFound(tracker.Claim(ctx, id.New(), id.New())))
}

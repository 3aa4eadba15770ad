// Package memory is a transactional in-memory implementation of every repository.
// It backs the service tests and the STORAGE_DRIVER=memory mode.
//
// Transactions are serialized by a store-wide lock. The state is snapshotted
// when a transaction starts and restored if it fails, so a failed unit of work
// leaves no partial writes. Stored records are never mutated in place: every
// write installs a fresh copy, which makes the snapshot a shallow map copy.
// Reads outside a transaction may observe writes of a transaction still in flight.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/core/tx"
	"bistro/internal/domain"
	"bistro/internal/domain/audit"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/domain/events"
	"bistro/internal/domain/inventory"
	"bistro/internal/domain/orders"
	"bistro/internal/domain/purchases"
	"bistro/internal/domain/sales"
	"bistro/internal/domain/waste"
)

type state struct {
	materials  map[id.ID]*inventory.Material
	categories map[id.ID]*catalog.Category
	products   map[id.ID]*catalog.Product
	tables     map[id.ID]*dining.Table
	zones      map[id.ID]*dining.Zone
	drivers    map[id.ID]*dining.Driver
	orders     map[id.ID]*orders.Order
	sales      map[id.ID]*sales.Sale
	purchases  map[id.ID]*purchases.Purchase
	waste      map[id.ID]*waste.Waste
	roles      map[id.ID]*auth.Role
	users      map[id.ID]*auth.User
	sessions   map[string]*auth.Session
	sequences  map[string]int64
	outbox     []events.Event
	audit      []audit.Entry
}

func newState() *state {
	return &state{
		materials:  map[id.ID]*inventory.Material{},
		categories: map[id.ID]*catalog.Category{},
		products:   map[id.ID]*catalog.Product{},
		tables:     map[id.ID]*dining.Table{},
		zones:      map[id.ID]*dining.Zone{},
		drivers:    map[id.ID]*dining.Driver{},
		orders:     map[id.ID]*orders.Order{},
		sales:      map[id.ID]*sales.Sale{},
		purchases:  map[id.ID]*purchases.Purchase{},
		waste:      map[id.ID]*waste.Waste{},
		roles:      map[id.ID]*auth.Role{},
		users:      map[id.ID]*auth.User{},
		sessions:   map[string]*auth.Session{},
		sequences:  map[string]int64{},
	}
}

func (s *state) snapshot() *state {
	return &state{
		materials:  copyMap(s.materials),
		categories: copyMap(s.categories),
		products:   copyMap(s.products),
		tables:     copyMap(s.tables),
		zones:      copyMap(s.zones),
		drivers:    copyMap(s.drivers),
		orders:     copyMap(s.orders),
		sales:      copyMap(s.sales),
		purchases:  copyMap(s.purchases),
		waste:      copyMap(s.waste),
		roles:      copyMap(s.roles),
		users:      copyMap(s.users),
		sessions:   copyMap(s.sessions),
		sequences:  copyMap(s.sequences),
		outbox:     append([]events.Event(nil), s.outbox...),
		audit:      append([]audit.Entry(nil), s.audit...),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds all data.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

var _ tx.Manager = (*TxManager)(nil)

// TxManager provides all-or-nothing units of work over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for s.
func NewTxManager(s *Store) *TxManager {
	return &TxManager{store: s}
}

// RunInTransaction executes fn under the store-wide transaction lock.
// Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s := m.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.data.snapshot()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// read runs fn with shared access to the current state.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write runs fn with exclusive access. Outside a transaction the write is its
// own unit of work, so it cannot be undone by another transaction's rollback.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func containsFold(haystack, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func byName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}

func newestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(items[i]).After(at(items[j]))
	})
}

func paginate[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	f = f.Normalize()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return domain.NewListResult(items[start:end], int64(total), f)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu       sync.Mutex
	values   map[string]int64
	calls    int
	failNext bool
}

func newMockStore() *mockStore {
	return &mockStore{values: map[string]int64{}}
}

func (m *mockStore) Increment(_ context.Context, key string, by int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failNext {
		m.failNext = false
		return 0, errors.New("connection reset")
	}
	m.values[key] += by
	return m.values[key], nil
}

func (m *mockStore) Set(_ context.Context, key string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

var period = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	store := newMockStore()
	svc := New(store)
	ctx := context.Background()

	num, err := svc.Next(ctx, "INV", period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", num)

	num, err = svc.Next(ctx, "INV", period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", num)

	// Another prefix has its own counter.
	num, err = svc.Next(ctx, "PUR", period)
	require.NoError(t, err)
	assert.Equal(t, "PUR-2026-00001", num)

	assert.Equal(t, 3, store.calls)
}

func TestGetNextNumber_ResetsYearly(t *testing.T) {
	svc := New(newMockStore())
	ctx := context.Background()

	_, err := svc.Next(ctx, "INV", period)
	require.NoError(t, err)

	num, err := svc.Next(ctx, "INV", period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", num)
}

func TestGetNextNumber_StoreError(t *testing.T) {
	store := newMockStore()
	store.failNext = true
	svc := New(store)

	_, err := svc.Next(context.Background(), "INV", period)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INV_2026")
}

func TestSetNextNumber(t *testing.T) {
	svc := New(newMockStore())
	ctx := context.Background()
	cfg := DefaultConfig("INV")

	_, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00101", num)
}

func TestResync(t *testing.T) {
	store := newMockStore()
	store.values["PUR_2026"] = 9
	svc := New(store)
	ctx := context.Background()

	require.NoError(t, svc.Resync(ctx, []string{
		"INV-2026-00007",
		"INV-2026-00012",
		"INV-2025-00003",
		"ORD-260314-AB2C",
		"",
	}))
	assert.Equal(t, map[string]int64{"INV_2026": 12, "INV_2025": 3, "PUR_2026": 9}, store.values)

	num, err := svc.Next(ctx, "INV", period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00013", num)

	num, err = svc.Next(ctx, "INV", period.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-00004", num)
}

func TestFormatNumber_WithoutYear(t *testing.T) {
	svc := New(newMockStore())
	cfg := Config{Prefix: "T", PadWidth: 3, ResetPeriod: "never"}

	num, err := svc.GetNextNumber(context.Background(), cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "T-001", num)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("INV-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("T-007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

func TestParseYearly(t *testing.T) {
	prefix, at, num, ok := ParseYearly("PUR-2025-00042")
	require.True(t, ok)
	assert.Equal(t, "PUR", prefix)
	assert.Equal(t, 2025, at.Year())
	assert.Equal(t, int64(42), num)

	for _, bad := range []string{"", "garbage", "T-007", "ORD-260314-AB2C", "INV-20x6-00001", "-2026-00001"} {
		_, _, _, ok := ParseYearly(bad)
		assert.False(t, ok, bad)
	}
}

// Package numerator provides sequential document numbers such as INV-2026-00001.
// Counters live in a Store (the sys_sequences table in production).
package numerator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Store persists counters.
type Store interface {
	// Increment adds by to the counter at key, creating it at zero, and returns the new value.
	Increment(ctx context.Context, key string, by int64) (int64, error)
	// Set overwrites the counter at key.
	Set(ctx context.Context, key string, value int64) error
}

// Service provides document numbering functionality. Every number increments
// the stored counter, so inside a transaction it rolls back with the document
// and there are no gaps.
type Service struct {
	store Store
}

// New creates a new numerator service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "PUR")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly-reset PREFIX-YYYY-NNNNN config.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// GetNextNumber generates the next document number for period.
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := s.buildKey(cfg, period)
	num, err := s.store.Increment(ctx, key, 1)
	if err != nil {
		return "", fmt.Errorf("next %s: %w", key, err)
	}
	return s.formatNumber(cfg, period, num), nil
}

// SetNextNumber makes the next generated number value+1.
func (s *Service) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	key := s.buildKey(cfg, period)
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}
	return nil
}

// Resync moves each yearly counter to the highest of the given numbers
// (PREFIX-YYYY-NNNNN), so the next number follows the existing documents.
// Counters of prefixes and years absent from numbers are left alone.
// Malformed numbers are skipped.
func (s *Service) Resync(ctx context.Context, numbers []string) error {
	type counter struct {
		prefix string
		period time.Time
		max    int64
	}
	highest := make(map[string]*counter)
	for _, n := range numbers {
		prefix, period, num, ok := ParseYearly(n)
		if !ok {
			continue
		}
		key := prefix + "_" + period.Format("2006")
		c, exists := highest[key]
		if !exists {
			c = &counter{prefix: prefix, period: period}
			highest[key] = c
		}
		if num > c.max {
			c.max = num
		}
	}

	keys := make([]string, 0, len(highest))
	for k := range highest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := highest[k]
		if err := s.SetNextNumber(ctx, DefaultConfig(c.prefix), c.period, c.max); err != nil {
			return err
		}
	}
	return nil
}

// buildKey creates the sequence key based on config and period.
func (s *Service) buildKey(cfg Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func (s *Service) formatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the counter from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}

// ParseYearly splits a PREFIX-YYYY-NNNNN number into its parts.
func ParseYearly(formatted string) (prefix string, period time.Time, num int64, ok bool) {
	parts := strings.Split(formatted, "-")
	if len(parts) != 3 || parts[0] == "" || len(parts[1]) != 4 {
		return "", time.Time{}, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", time.Time{}, 0, false
	}
	if num = ParseNumber(formatted); num < 0 {
		return "", time.Time{}, 0, false
	}
	return parts[0], time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), num, true
}

// Next generates the next number for prefix in the year of at.
func (s *Service) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	return s.GetNextNumber(ctx, DefaultConfig(prefix), at)
}

// Package id provides entity identifiers.
// Identifiers are UUIDv7, so they sort by creation time.
package id

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// ID is the identifier type of every entity.
type ID = uuid.UUID

// New generates a new UUIDv7, falling back to V4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Ptr returns a pointer to v, or nil for the zero value.
func Ptr(v ID) *ID {
	if v == uuid.Nil {
		return nil
	}
	return &v
}

// Equal compares two optional IDs.
func Equal(a, b *ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Strings renders ids for error details and logs.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// Unique returns the distinct ids in ascending byte order.
// Stock and table updates are issued in this order so concurrent
// transactions acquire row locks consistently.
func Unique(ids []ID) []ID {
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	Sort(out)
	return out
}

// Sort orders ids in ascending byte order in place.
func Sort(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

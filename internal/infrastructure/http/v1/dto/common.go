// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bistro/internal/core/id"
	"bistro/internal/domain"
)

// --- Envelope ---

// Envelope wraps every JSON response: {ok:true, data} or {ok:false, error}.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Failure wraps an error body in a failed envelope.
func Failure(code, message string, details map[string]any) Envelope {
	return Envelope{OK: false, Error: &ErrorBody{Code: code, Message: message, Details: details}}
}

// --- List ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ToFilter converts the query to a domain list filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// --- ID Response ---

// IDResponse for operations that only report the affected id.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Nullable fields ---

// NullableID distinguishes an absent field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type NullableID struct {
	Set   bool
	Value *id.ID
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v id.ID
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// --- Dates ---

const dateLayout = "2006-01-02"

// Date accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

// ParseTime parses a calendar date or an RFC 3339 timestamp into UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
}

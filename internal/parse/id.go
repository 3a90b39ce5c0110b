package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when a value cannot be used as a record id.
var ErrInvalidID = errors.New("invalid id")

// ID parses a record id taken from a URL path segment. Only positive
// integers are accepted.
func ID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty id: %w", ErrInvalidID)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidID)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%q is not positive: %w", raw, ErrInvalidID)
	}
	return id, nil
}

// FlexibleID is a reference to another record as sent by clients, which may
// be a JSON number (7) or a numeric string ("7"). Decoding only checks the
// JSON type; Int64 does the numeric parsing so callers can report a missing
// value and a malformed one differently.
type FlexibleID struct {
	raw string
}

// NewFlexibleID returns a FlexibleID holding id.
func NewFlexibleID(id int64) FlexibleID {
	return FlexibleID{raw: strconv.FormatInt(id, 10)}
}

// UnmarshalJSON accepts a number, a string or null.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		f.raw = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.raw = strings.TrimSpace(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or a numeric string: %w", err)
	}
	f.raw = n.String()
	return nil
}

// MarshalJSON writes the id as a number when it parses, otherwise as null.
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	id, err := f.Int64()
	if err != nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(id, 10)), nil
}

// IsZero reports whether no value was supplied: absent, null or "".
func (f FlexibleID) IsZero() bool {
	return f.raw == ""
}

// Int64 returns the parsed id.
func (f FlexibleID) Int64() (int64, error) {
	return ID(f.raw)
}

// String returns the raw value as received.
func (f FlexibleID) String() string {
	return f.raw
}

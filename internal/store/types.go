package store

import (
	"bytes"
	"encoding/json"
)

// Optional marks a field of a partial update as present or absent. A field
// that is absent from the request body stays unset and is not written.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked for keys present in the body, which is what
// makes Set meaningful. An explicit null leaves Value at its zero value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// SectionUpdate holds the fields of a partial section update.
type SectionUpdate struct {
	Name      Optional[string]
	SectionID Optional[string]
	Location  Optional[string]
}

// Empty reports whether no field is set.
func (u SectionUpdate) Empty() bool {
	return !u.Name.Set && !u.SectionID.Set && !u.Location.Set
}

// MachineUpdate holds the fields of a partial machine update.
type MachineUpdate struct {
	Name      Optional[string]
	SectionID Optional[int64]
}

// Empty reports whether no field is set.
func (u MachineUpdate) Empty() bool {
	return !u.Name.Set && !u.SectionID.Set
}

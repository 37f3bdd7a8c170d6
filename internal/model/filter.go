package model

import (
	"errors"
	"fmt"
	"strings"
)

// Filter selects which todos a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in footer order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ErrInvalidFilter matches every *InvalidFilterError.
var ErrInvalidFilter = errors.New("invalid filter")

// InvalidFilterError carries the rejected filter name.
type InvalidFilterError struct {
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: want all, active or completed", e.Value)
}

func (e *InvalidFilterError) Is(target error) bool { return target == ErrInvalidFilter }

// ParseFilter accepts exactly the three filter names (case-insensitive, trimmed).
func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if !f.Valid() {
		return "", &InvalidFilterError{Value: name}
	}
	return f, nil
}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	}
	return false
}

// Matches reports whether t is visible under f.
func (f Filter) Matches(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.IsCompleted
	case FilterCompleted:
		return t.IsCompleted
	}
	return true
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Label is the capitalized name used in footers.
func (f Filter) Label() string {
	s := string(f)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

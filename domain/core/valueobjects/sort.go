package valueobjects

import (
	"fmt"
	"strings"
)

// SortField is a fact attribute the remote store can order by.
type SortField string

const (
	SortByVotesInteresting SortField = "votesInteresting"
	SortByCreatedAt        SortField = "createdAt"
)

// Column maps the field to its column in the facts table.
func (f SortField) Column() string {
	switch f {
	case SortByCreatedAt:
		return "created_at"
	default:
		return string(f)
	}
}

// Valid reports whether f is orderable.
func (f SortField) Valid() bool {
	return f == SortByVotesInteresting || f == SortByCreatedAt
}

// Direction is the ordering direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Sort is the (field, direction) pair pushed to the remote store.
type Sort struct {
	Field     SortField
	Direction Direction
}

// DefaultSort is oldest first.
var DefaultSort = Sort{Field: SortByCreatedAt, Direction: Asc}

// Validate rejects unknown fields and directions.
func (s Sort) Validate() error {
	if !s.Field.Valid() {
		return fmt.Errorf("unknown sort field %q", s.Field)
	}
	if !s.Direction.Valid() {
		return fmt.Errorf("unknown sort direction %q", s.Direction)
	}
	return nil
}

// Ascending reports whether the direction is ascending.
func (s Sort) Ascending() bool {
	return s.Direction == Asc
}

// String encodes the sort as "<column>_<direction>", e.g. "created_at_asc".
func (s Sort) String() string {
	return s.Field.Column() + "_" + string(s.Direction)
}

// ParseSort decodes a sort order string. Accepted forms are
// "<field>_<asc|desc>" where field is votesInteresting, createdAt or
// created_at, plus the bare forms "votesInteresting" (descending, most
// upvoted first) and "created_at" (ascending).
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort, nil
	}

	dir := Direction("")
	field := s
	switch {
	case strings.HasSuffix(s, "_asc"):
		dir, field = Asc, strings.TrimSuffix(s, "_asc")
	case strings.HasSuffix(s, "_desc"):
		dir, field = Desc, strings.TrimSuffix(s, "_desc")
	}

	var f SortField
	switch field {
	case "votesInteresting", "votes":
		f = SortByVotesInteresting
	case "createdAt", "created_at", "created":
		f = SortByCreatedAt
	default:
		return Sort{}, fmt.Errorf("unknown sort field %q", field)
	}

	if dir == "" {
		dir = Asc
		if f == SortByVotesInteresting {
			dir = Desc
		}
	}
	return Sort{Field: f, Direction: dir}, nil
}

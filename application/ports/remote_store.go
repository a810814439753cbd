package ports

import (
	"context"
)

// Tables used by the engines.
const (
	TableFacts    = "facts"
	TableComments = "comments"
)

// Column names shared by the engines and the store adapters.
const (
	ColumnID        = "id"
	ColumnCategory  = "category"
	ColumnCreatedAt = "created_at"
	ColumnFactID    = "facts_id"
)

// Row is one record as a column to value map.
type Row map[string]interface{}

// Condition is an equality filter on one column.
type Condition struct {
	Column string
	Value  string
}

// Filter is a conjunction of equality conditions.
type Filter []Condition

// Eq builds a single-condition filter.
func Eq(column, value string) Filter {
	return Filter{{Column: column, Value: value}}
}

// Order describes the ordering of a query result.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a read against one table. A zero Limit means no limit.
type Query struct {
	Filter Filter
	Order  *Order
	Limit  int
}

// RemoteStore is the contract of the remote table service. Implementations
// must be safe for concurrent use.
type RemoteStore interface {
	// Query returns the matching rows.
	Query(ctx context.Context, table string, q Query) ([]Row, error)

	// Insert stores rows and returns them as persisted, including
	// store-assigned columns such as id and created_at.
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)

	// Update applies patch to every row matching match and returns the
	// updated rows.
	Update(ctx context.Context, table string, patch Row, match Filter) ([]Row, error)

	// Delete removes every row matching match.
	Delete(ctx context.Context, table string, match Filter) error
}

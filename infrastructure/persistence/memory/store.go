// Package memory provides an in-process implementation of ports.RemoteStore
// for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// TimeLayout is the fixed-width timestamp format used for created_at so that
// lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// IDMode selects how the store assigns ids.
type IDMode int

const (
	// SequentialIDs hands out 1, 2, 3... per table, like a bigint identity.
	SequentialIDs IDMode = iota
	// UUIDs hands out random UUID strings.
	UUIDs
)

// Option configures a Store.
type Option func(*Store)

// WithIDMode selects the id strategy.
func WithIDMode(mode IDMode) Option {
	return func(s *Store) {
		s.idMode = mode
	}
}

// WithClock replaces time.Now for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// tableDefaults are the column defaults applied on insert.
var tableDefaults = map[string]ports.Row{
	ports.TableFacts: {
		"title":            "",
		"image_url":        "",
		"secret_key":       "",
		"user_id":          "",
		"votesInteresting": int64(0),
		"votesMindblowing": int64(0),
		"votesFalse":       int64(0),
	},
	ports.TableComments: {
		"user_id": "",
	},
}

// Store keeps each table as an ordered slice of rows.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]ports.Row
	nextID map[string]int64
	idMode IDMode
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string][]ports.Row),
		nextID: make(map[string]int64),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query implements ports.RemoteStore.
func (s *Store) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.Row
	for _, row := range s.tables[table] {
		if matches(row, q.Filter) {
			out = append(out, copyRow(row))
		}
	}

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][col], out[j][col])
			if asc {
				return c < 0
			}
			return c > 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Insert implements ports.RemoteStore.
func (s *Store) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.Row, 0, len(rows))
	for _, in := range rows {
		row := ports.Row{}
		for k, v := range tableDefaults[table] {
			row[k] = v
		}
		for k, v := range in {
			row[k] = normalize(v)
		}
		if id, ok := row[ports.ColumnID].(int64); ok {
			if id > s.nextID[table] {
				s.nextID[table] = id
			}
		} else if _, ok := row[ports.ColumnID]; !ok {
			row[ports.ColumnID] = s.newIDLocked(table)
		}
		if _, ok := row[ports.ColumnCreatedAt]; !ok {
			row[ports.ColumnCreatedAt] = s.now().UTC().Format(TimeLayout)
		}
		s.tables[table] = append(s.tables[table], row)
		out = append(out, copyRow(row))
	}
	return out, nil
}

// Update implements ports.RemoteStore.
func (s *Store) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := patch[ports.ColumnID]; ok {
		return nil, fmt.Errorf("update %s: id is immutable", table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ports.Row
	for _, row := range s.tables[table] {
		if !matches(row, match) {
			continue
		}
		for k, v := range patch {
			row[k] = normalize(v)
		}
		out = append(out, copyRow(row))
	}
	return out, nil
}

// Delete implements ports.RemoteStore.
func (s *Store) Delete(ctx context.Context, table string, match ports.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !matches(row, match) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	return nil
}

// Len returns the number of rows in table.
func (s *Store) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func (s *Store) newIDLocked(table string) interface{} {
	if s.idMode == UUIDs {
		return uuid.NewString()
	}
	s.nextID[table]++
	return s.nextID[table]
}

func matches(row ports.Row, filter ports.Filter) bool {
	for _, c := range filter {
		v, ok := row[c.Column]
		if !ok || text(v) != c.Value {
			return false
		}
	}
	return true
}

// normalize stores every integer as int64 and every string-kinded value as a
// plain string so filters and ordering see one representation.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case time.Time:
		return t.UTC().Format(TimeLayout)
	case fmt.Stringer:
		s := t.String()
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return s
	}
	return v
}

func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprint(v)
}

func compare(a, b interface{}) int {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	as, bs := text(a), text(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func copyRow(row ports.Row) ports.Row {
	out := make(ports.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

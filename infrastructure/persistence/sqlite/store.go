// Package sqlite implements ports.RemoteStore on an SQLite database, used as
// a self-hosted table service in place of Supabase.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

// TimeLayout matches the timestamps PostgREST returns for timestamptz.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL DEFAULT '',
	text               TEXT NOT NULL,
	source             TEXT NOT NULL,
	category           TEXT NOT NULL,
	image_url          TEXT NOT NULL DEFAULT '',
	secret_key         TEXT NOT NULL DEFAULT '',
	"votesInteresting" INTEGER NOT NULL DEFAULT 0,
	"votesMindblowing" INTEGER NOT NULL DEFAULT 0,
	"votesFalse"       INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL,
	user_id            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS facts_category_idx ON facts (category);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	facts_id   TEXT NOT NULL,
	content    TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_facts_id_idx ON comments (facts_id);
`

// columns lists the writable and filterable columns per table. Column names
// never come from user input unchecked.
var columns = map[string]map[string]bool{
	ports.TableFacts: set("id", "title", "text", "source", "category", "image_url", "secret_key",
		"votesInteresting", "votesMindblowing", "votesFalse", "created_at", "user_id"),
	ports.TableComments: set("id", "facts_id", "content", "user_id", "created_at"),
}

// Store runs the table operations as SQL statements.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers the way SQLite wants them.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Named("sqlite").Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger.Named("sqlite"), now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query implements ports.RemoteStore.
func (s *Store) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", table)
	where, args, err := whereClause(table, q.Filter)
	if err != nil {
		return nil, err
	}
	b.WriteString(where)
	if q.Order != nil {
		if !columns[table][q.Order.Column] {
			return nil, fmt.Errorf("unknown column %q on %s", q.Order.Column, table)
		}
		dir := "DESC"
		if q.Order.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quote(q.Order.Column), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return scanRows(rows)
}

// Insert implements ports.RemoteStore.
func (s *Store) Insert(ctx context.Context, table string, in []ports.Row) ([]ports.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	var out []ports.Row
	for _, row := range in {
		values := ports.Row{}
		for k, v := range row {
			values[k] = v
		}
		if _, ok := values[ports.ColumnID]; !ok {
			values[ports.ColumnID] = uuid.NewString()
		}
		if _, ok := values[ports.ColumnCreatedAt]; !ok {
			values[ports.ColumnCreatedAt] = s.now().UTC().Format(TimeLayout)
		}

		names := make([]string, 0, len(values))
		marks := make([]string, 0, len(values))
		args := make([]interface{}, 0, len(values))
		for k, v := range values {
			if !columns[table][k] {
				return nil, fmt.Errorf("unknown column %q on %s", k, table)
			}
			names = append(names, quote(k))
			marks = append(marks, "?")
			args = append(args, arg(v))
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			table, strings.Join(names, ", "), strings.Join(marks, ", "))
		rows, err := tx.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, err)
		}
		inserted, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return out, nil
}

// Update implements ports.RemoteStore.
func (s *Store) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("update %s: empty patch", table)
	}
	if _, ok := patch[ports.ColumnID]; ok {
		return nil, fmt.Errorf("update %s: id is immutable", table)
	}

	sets := make([]string, 0, len(patch))
	args := make([]interface{}, 0, len(patch)+len(match))
	for k, v := range patch {
		if !columns[table][k] {
			return nil, fmt.Errorf("unknown column %q on %s", k, table)
		}
		sets = append(sets, quote(k)+" = ?")
		args = append(args, arg(v))
	}
	where, whereArgs, err := whereClause(table, match)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", table, strings.Join(sets, ", "), where)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return scanRows(rows)
}

// Delete implements ports.RemoteStore.
func (s *Store) Delete(ctx context.Context, table string, match ports.Filter) error {
	if err := checkTable(table); err != nil {
		return err
	}
	where, args, err := whereClause(table, match)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+where, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func checkTable(table string) error {
	if _, ok := columns[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

func whereClause(table string, filter ports.Filter) (string, []interface{}, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filter))
	args := make([]interface{}, 0, len(filter))
	for _, c := range filter {
		if !columns[table][c.Column] {
			return "", nil, fmt.Errorf("unknown column %q on %s", c.Column, table)
		}
		conds = append(conds, quote(c.Column)+" = ?")
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func scanRows(rows *sql.Rows) ([]ports.Row, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []ports.Row
	for rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(ports.Row, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// arg converts a row value into a driver argument. Identifiers and other
// fmt.Stringer values are stored as text; whole JSON numbers as integers.
func arg(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case time.Time:
		return t.UTC().Format(TimeLayout)
	case fmt.Stringer:
		return t.String()
	}
	return v
}

func quote(column string) string {
	return `"` + column + `"`
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

package valueobjects

import (
	"strings"
	"sync"
)

// AllCategories is the pseudo category that disables the category filter.
const AllCategories = "all"

// Category is one entry of the category lookup table.
type Category struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// DefaultCategories is the table the application ships with.
var DefaultCategories = []Category{
	{Name: "technology", Color: "#3b82f6"},
	{Name: "science", Color: "#16a34a"},
	{Name: "finance", Color: "#ef4444"},
	{Name: "society", Color: "#eab308"},
	{Name: "entertainment", Color: "#db2777"},
	{Name: "health", Color: "#14b8a6"},
	{Name: "history", Color: "#f97316"},
	{Name: "news", Color: "#8b5cf6"},
}

// CategoryTable is a read-only lookup over an ordered category list.
// Replace swaps the whole table at once so a reload never exposes a
// partially updated list.
type CategoryTable struct {
	mu     sync.RWMutex
	list   []Category
	byName map[string]Category
}

// NewCategoryTable builds a table; an empty list falls back to the defaults.
func NewCategoryTable(categories []Category) *CategoryTable {
	t := &CategoryTable{}
	t.Replace(categories)
	return t
}

// Replace installs a new ordered list.
func (t *CategoryTable) Replace(categories []Category) {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	list := make([]Category, 0, len(categories))
	byName := make(map[string]Category, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" || name == AllCategories {
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		c.Name = name
		list = append(list, c)
		byName[name] = c
	}

	t.mu.Lock()
	t.list = list
	t.byName = byName
	t.mu.Unlock()
}

// List returns a copy of the table in display order.
func (t *CategoryTable) List() []Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Category, len(t.list))
	copy(out, t.list)
	return out
}

// Contains reports whether name is an enumerated category.
func (t *CategoryTable) Contains(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byName[name]
	return ok
}

// ColorOf returns the display color of a category, or "" if unknown.
func (t *CategoryTable) ColorOf(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[name].Color
}

// IsFilter reports whether name is usable as a list filter: a known
// category or AllCategories.
func (t *CategoryTable) IsFilter(name string) bool {
	return name == AllCategories || t.Contains(name)
}

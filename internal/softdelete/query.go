package softdelete

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conditions maps column names to values. A nil value matches SQL NULL and a slice
// matches any of its elements. Conditions are combined with AND. JSON columns stored
// through gorm.io/datatypes hold the text null rather than SQL NULL when empty.
type Conditions map[string]any

// Query is an immutable view over a table. Every method returns a new Query.
type Query[T any] struct {
	db          *gorm.DB
	insensitive map[string]struct{}
}

func newQuery[T any](db *gorm.DB, insensitive map[string]struct{}) *Query[T] {
	return &Query[T]{db: db.Session(&gorm.Session{}), insensitive: insensitive}
}

func (q *Query[T]) derive(db *gorm.DB) *Query[T] {
	return newQuery[T](db, q.insensitive)
}

// exact returns the same view with case-insensitive matching turned off.
func (q *Query[T]) exact() *Query[T] {
	return newQuery[T](q.db, nil)
}

// Filter narrows the view to rows matching every condition. String and []string
// values on case-insensitive columns are compared in lower case.
func (q *Query[T]) Filter(conds Conditions) *Query[T] {
	if len(conds) == 0 {
		return q
	}
	sql, vars := q.build(conds)
	return q.derive(q.db.Where(clause.Expr{SQL: sql, Vars: vars}))
}

// Exclude removes rows matching every condition from the view.
func (q *Query[T]) Exclude(conds Conditions) *Query[T] {
	if len(conds) == 0 {
		return q
	}
	sql, vars := q.build(conds)
	return q.derive(q.db.Where(clause.Expr{SQL: "NOT (" + sql + ")", Vars: vars}))
}

// OrderBy appends a sort column.
func (q *Query[T]) OrderBy(column string, desc bool) *Query[T] {
	return q.derive(q.db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}))
}

// Limit caps the number of rows returned. Negative values remove the cap.
func (q *Query[T]) Limit(n int) *Query[T] {
	return q.derive(q.db.Limit(n))
}

// Offset skips the first n rows.
func (q *Query[T]) Offset(n int) *Query[T] {
	return q.derive(q.db.Offset(n))
}

// Find returns every row in the view.
func (q *Query[T]) Find() ([]*T, error) {
	var out []*T
	if err := q.db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// First returns the first row ordered by primary key, or ErrNotFound.
func (q *Query[T]) First() (*T, error) {
	var out T
	if err := q.db.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Count returns the number of rows in the view.
func (q *Query[T]) Count() (int64, error) {
	var n int64
	if err := q.db.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Exists reports whether the view holds at least one row.
func (q *Query[T]) Exists() (bool, error) {
	n, err := q.Limit(1).Count()
	return n > 0, err
}

func (q *Query[T]) build(conds Conditions) (string, []any) {
	keys := make([]string, 0, len(conds))
	for key := range conds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	vars := make([]any, 0, 2*len(keys))
	for _, key := range keys {
		column := clause.Column{Name: key}
		value := conds[key]

		switch {
		case value == nil:
			parts = append(parts, "? IS NULL")
			vars = append(vars, column)
		case isList(value):
			if names, ok := value.([]string); ok && q.caseInsensitive(key) {
				parts = append(parts, "LOWER(?) IN ?")
				vars = append(vars, column, lowerAll(names))
				continue
			}
			parts = append(parts, "? IN ?")
			vars = append(vars, column, value)
		default:
			if s, ok := value.(string); ok && q.caseInsensitive(key) {
				parts = append(parts, "LOWER(?) = LOWER(?)")
				vars = append(vars, column, s)
				continue
			}
			parts = append(parts, "? = ?")
			vars = append(vars, column, value)
		}
	}
	return strings.Join(parts, " AND "), vars
}

func (q *Query[T]) caseInsensitive(column string) bool {
	_, ok := q.insensitive[column]
	return ok
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func isList(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

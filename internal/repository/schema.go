package repository

import (
	"fmt"
	"strings"

	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

// Column maps one table column onto a field of T.
type Column[T any] struct {
	Name string

	decode    func(t *T, src any) error
	encodeAny func(v any) (any, error)
}

// Field declares a column named name stored in the field returned by ptr
// and converted with codec.
func Field[T, V any](name string, codec Codec[V], ptr func(*T) *V) Column[T] {
	return Column[T]{
		Name: name,
		decode: func(t *T, src any) error {
			v, err := codec.Decode(src)
			if err != nil {
				return fmt.Errorf("column %s: %w", name, err)
			}
			*ptr(t) = v
			return nil
		},
		encodeAny: func(v any) (any, error) {
			typed, ok := v.(V)
			if !ok {
				var zero V
				return nil, sqlerr.Malformed("column %s expects a %T value, got %T", name, zero, v)
			}
			res, err := codec.Encode(typed)
			if err != nil {
				return nil, sqlerr.Malformed("column %s: %s", name, err)
			}
			return res, nil
		},
	}
}

// Schema describes how T is stored: its table, its int64 key column and the
// ordered list of the other columns.
type Schema[T any] struct {
	Table   string
	Key     string
	ID      func(*T) *int64
	Columns []Column[T]
}

// columnNames returns the key followed by the other columns, the order every
// SELECT and RETURNING list uses.
func (s *Schema[T]) columnNames(alias string) []string {
	names := make([]string, 0, len(s.Columns)+1)
	names = append(names, qualify(alias, s.Key))
	for _, c := range s.Columns {
		names = append(names, qualify(alias, c.Name))
	}
	return names
}

func (s *Schema[T]) selectList(alias string) string {
	return strings.Join(s.columnNames(alias), ", ")
}

func (s *Schema[T]) width() int {
	return len(s.Columns) + 1
}

func (s *Schema[T]) column(name string) (*Column[T], bool) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i], true
		}
	}
	return nil, false
}

// resolve implements columnResolver for filters and assignments.
func (s *Schema[T]) resolve(name string) (string, func(any) (any, error), error) {
	if name == s.Key {
		return s.Key, Field(s.Key, Int64, s.ID).encodeAny, nil
	}
	if c, ok := s.column(name); ok {
		return c.Name, c.encodeAny, nil
	}
	return "", nil, sqlerr.Malformed("unknown column %q on %s", name, s.Table)
}

// decodeRow fills a new T from src, laid out as columnNames.
func (s *Schema[T]) decodeRow(src []any) (T, error) {
	var res T

	id, err := Int64.Decode(src[0])
	if err != nil {
		return res, fmt.Errorf("column %s: %w", s.Key, err)
	}
	*s.ID(&res) = id

	for i, c := range s.Columns {
		if err := c.decode(&res, src[i+1]); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (s *Schema[T]) validate() {
	if s.Table == "" || s.Key == "" || s.ID == nil {
		panic(fmt.Sprintf("repository: schema %q needs Table, Key and ID", s.Table))
	}
}

func qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

// aliased resolves column names of schema against a table alias.
type aliased[T any] struct {
	schema *Schema[T]
	alias  string
}

func (a aliased[T]) resolve(name string) (string, func(any) (any, error), error) {
	col, enc, err := a.schema.resolve(name)
	if err != nil {
		return "", nil, err
	}
	return qualify(a.alias, col), enc, nil
}

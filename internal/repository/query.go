package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

// columnResolver maps a column name to its SQL expression and its encoder.
type columnResolver interface {
	resolve(name string) (string, func(any) (any, error), error)
}

// Filter is a WHERE clause over schema columns. Build one with Eq, Like and And.
type Filter interface {
	build(b *builder, cols columnResolver) error
}

type eqFilter struct {
	column string
	value  any
}

// Eq matches rows whose column equals v. A nil v matches NULL.
func Eq(column string, v any) Filter {
	return eqFilter{column: column, value: v}
}

func (f eqFilter) build(b *builder, cols columnResolver) error {
	name, enc, err := cols.resolve(f.column)
	if err != nil {
		return err
	}

	if f.value == nil {
		b.write(name + " IS NULL")
		return nil
	}

	v, err := enc(f.value)
	if err != nil {
		return err
	}
	if v == nil {
		b.write(name + " IS NULL")
		return nil
	}

	b.write(name + " = " + b.arg(v))
	return nil
}

type likeFilter struct {
	column  string
	pattern string
}

// Like matches rows whose text column matches an SQL LIKE pattern.
func Like(column, pattern string) Filter {
	return likeFilter{column: column, pattern: pattern}
}

func (f likeFilter) build(b *builder, cols columnResolver) error {
	name, _, err := cols.resolve(f.column)
	if err != nil {
		return err
	}

	b.write(name + " LIKE " + b.arg(f.pattern))
	return nil
}

type andFilter []Filter

// And matches rows matching every filter. And() matches every row.
func And(filters ...Filter) Filter {
	return andFilter(filters)
}

func (f andFilter) build(b *builder, cols columnResolver) error {
	if len(f) == 0 {
		b.write("1 = 1")
		return nil
	}

	for i, inner := range f {
		if i > 0 {
			b.write(" AND ")
		}
		b.write("(")
		if err := inner.build(b, cols); err != nil {
			return err
		}
		b.write(")")
	}
	return nil
}

// inFilter is used by relation loaders; ids are already encoded.
type inFilter struct {
	column string
	ids    []int64
}

func (f inFilter) build(b *builder, cols columnResolver) error {
	name := f.column
	if cols != nil {
		var err error
		if name, _, err = cols.resolve(f.column); err != nil {
			return err
		}
	}

	b.write(name + " IN (")
	for i, id := range f.ids {
		if i > 0 {
			b.write(", ")
		}
		b.write(b.arg(id))
	}
	b.write(")")
	return nil
}

// Order sorts List results by Column.
type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// ListOptions narrows and pages a List. The zero value lists every row in
// key order.
type ListOptions struct {
	Filter Filter
	Order  []Order
	Limit  int
	Offset int
}

// Assignment sets Column to Value in an insert or update.
type Assignment struct {
	Column string
	Value  any
}

// Set returns an Assignment. v must have the Go type of the column's codec.
func Set(column string, v any) Assignment {
	return Assignment{Column: column, Value: v}
}

// Changeset lists the columns an insert or update writes. Unlisted columns
// keep their default (insert) or current value (update).
type Changeset []Assignment

func (cs Changeset) encode(key string, cols columnResolver) ([]string, []any, error) {
	names := make([]string, 0, len(cs))
	values := make([]any, 0, len(cs))
	seen := make(map[string]struct{}, len(cs))

	for _, a := range cs {
		if a.Column == key {
			return nil, nil, sqlerr.Malformed("column %q is the key and cannot be written", key)
		}
		if _, dup := seen[a.Column]; dup {
			return nil, nil, sqlerr.Malformed("column %q is assigned twice", a.Column)
		}
		seen[a.Column] = struct{}{}

		name, enc, err := cols.resolve(a.Column)
		if err != nil {
			return nil, nil, err
		}

		v, err := enc(a.Value)
		if err != nil {
			return nil, nil, err
		}

		names = append(names, name)
		values = append(values, v)
	}

	return names, values, nil
}

// builder accumulates SQL text and bind arguments for one statement.
type builder struct {
	dialect database.Dialect
	sb      strings.Builder
	args    []any
}

func newBuilder(d database.Dialect) *builder {
	return &builder{dialect: d}
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

// arg appends v to the arguments and returns its placeholder.
func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *builder) where(f Filter, cols columnResolver) error {
	if f == nil {
		return nil
	}
	b.write(" WHERE ")
	return f.build(b, cols)
}

func (b *builder) orderBy(orders []Order, cols columnResolver, fallback string) error {
	b.write(" ORDER BY ")
	for i, o := range orders {
		name, _, err := cols.resolve(o.Column)
		if err != nil {
			return err
		}
		if i > 0 {
			b.write(", ")
		}
		b.write(name)
		if o.Desc {
			b.write(" DESC")
		}
	}

	if len(orders) > 0 {
		b.write(", ")
	}
	b.write(fallback)
	return nil
}

func (b *builder) page(limit, offset int) error {
	if limit < 0 || offset < 0 {
		return sqlerr.Malformed("limit and offset must not be negative")
	}

	switch {
	case limit > 0:
		b.write(" LIMIT " + strconv.Itoa(limit))
	case offset > 0:
		// MySQL and SQLite need a LIMIT before OFFSET.
		switch b.dialect {
		case database.MySQL:
			b.write(" LIMIT 18446744073709551615")
		case database.SQLite:
			b.write(" LIMIT -1")
		}
	}

	if offset > 0 {
		b.write(" OFFSET " + strconv.Itoa(offset))
	}
	return nil
}

func (b *builder) String() string {
	return b.sb.String()
}

// queryRows runs b and decodes every row with decode. Each row is scanned
// into width untyped values first, so decoding never depends on driver
// specific scan targets.
func queryRows[T any](ctx context.Context, q database.Querier, b *builder, width int, decode func([]any) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, b.String(), b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []T{}
	for rows.Next() {
		values := make([]any, width)
		dest := make([]any, width)
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		item, err := decode(values)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}

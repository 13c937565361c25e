package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

// Repository runs CRUD statements for one entity type described by a Schema.
//
// Every operation takes the database.Querier to run on, so callers decide
// whether it runs on a plain connection or inside a transaction.
type Repository[T any] struct {
	schema *Schema[T]
}

// New returns a Repository for schema. It panics on an incomplete schema,
// since schemas are declared once at package level.
func New[T any](schema *Schema[T]) *Repository[T] {
	schema.validate()
	return &Repository[T]{schema: schema}
}

func (r *Repository[T]) Schema() *Schema[T] {
	return r.schema
}

func (r *Repository[T]) decode(src []any) (T, error) {
	return r.schema.decodeRow(src)
}

// Create inserts one row and returns it as stored, key included.
func (r *Repository[T]) Create(ctx context.Context, q database.Querier, cs Changeset) (*T, error) {
	s := r.schema

	names, values, err := cs.encode(s.Key, s)
	if err != nil {
		return nil, err
	}

	b := newBuilder(q.Dialect())
	writeInsert(b, s.Table, names, [][]any{values})

	if !q.Dialect().SupportsReturning() {
		if _, err = q.Exec(ctx, b.String(), b.args...); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", s.Table, err)
		}

		id, err := lastInsertID(ctx, q)
		if err != nil {
			return nil, err
		}
		return r.Get(ctx, q, id)
	}

	b.write(" RETURNING " + s.selectList(""))

	rows, err := queryRows(ctx, q, b, s.width(), r.decode)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", s.Table, err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert into %s returned %d rows", s.Table, len(rows))
	}

	return &rows[0], nil
}

// CreateMany inserts all changesets with one statement where the dialect
// can return the inserted rows, and one statement per row otherwise. Every
// changeset must assign the same columns. Rows are returned in key order.
func (r *Repository[T]) CreateMany(ctx context.Context, q database.Querier, changesets []Changeset) ([]T, error) {
	if len(changesets) == 0 {
		return []T{}, nil
	}

	s := r.schema

	if !q.Dialect().SupportsReturning() {
		res := make([]T, 0, len(changesets))
		for _, cs := range changesets {
			item, err := r.Create(ctx, q, cs)
			if err != nil {
				return nil, err
			}
			res = append(res, *item)
		}
		return res, nil
	}

	var names []string
	rowsValues := make([][]any, 0, len(changesets))

	for i, cs := range changesets {
		n, values, err := cs.encode(s.Key, s)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			names = n
		} else if !slices.Equal(names, n) {
			return nil, sqlerr.Malformed("batch rows must assign the same columns in the same order")
		}

		rowsValues = append(rowsValues, values)
	}

	b := newBuilder(q.Dialect())
	writeInsert(b, s.Table, names, rowsValues)
	b.write(" RETURNING " + s.selectList(""))

	res, err := queryRows(ctx, q, b, s.width(), r.decode)
	if err != nil {
		return nil, fmt.Errorf("batch insert into %s: %w", s.Table, err)
	}

	slices.SortFunc(res, func(a, b T) int {
		return cmp.Compare(*s.ID(&a), *s.ID(&b))
	})

	return res, nil
}

func writeInsert(b *builder, table string, names []string, rows [][]any) {
	b.write("INSERT INTO " + table)

	if len(names) == 0 {
		if b.dialect == database.MySQL {
			b.write(" () VALUES ()")
		} else {
			b.write(" DEFAULT VALUES")
		}
		return
	}

	b.write(" (" + strings.Join(names, ", ") + ") VALUES ")
	for i, values := range rows {
		if i > 0 {
			b.write(", ")
		}
		b.write("(")
		for j, v := range values {
			if j > 0 {
				b.write(", ")
			}
			b.write(b.arg(v))
		}
		b.write(")")
	}
}

// lastInsertID reads the key assigned by the previous insert on the same
// connection (MySQL).
func lastInsertID(ctx context.Context, q database.Querier) (int64, error) {
	rows, err := q.Query(ctx, "SELECT LAST_INSERT_ID()")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("LAST_INSERT_ID returned no row")
	}

	var raw any
	if err := rows.Scan(&raw); err != nil {
		return 0, err
	}

	return Int64.Decode(raw)
}

// Get returns the row with key id, or a NotFound error.
func (r *Repository[T]) Get(ctx context.Context, q database.Querier, id int64) (*T, error) {
	item, err := r.Find(ctx, q, ListOptions{Filter: Eq(r.schema.Key, id)})
	if sqlerr.IsNotFound(err) {
		return nil, sqlerr.NotFound(r.schema.Table, id)
	}
	return item, err
}

// Find returns the first row matching opts, or a NotFound error. Callers
// that treat a missing row as absent check sqlerr.IsNotFound.
func (r *Repository[T]) Find(ctx context.Context, q database.Querier, opts ListOptions) (*T, error) {
	opts.Limit = 1

	items, err := r.List(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sqlerr.NotFound(r.schema.Table, nil)
	}

	return &items[0], nil
}

// List returns every row matching opts. An empty result is an empty slice.
func (r *Repository[T]) List(ctx context.Context, q database.Querier, opts ListOptions) ([]T, error) {
	s := r.schema

	b := newBuilder(q.Dialect())
	b.write("SELECT " + s.selectList("") + " FROM " + s.Table)

	if err := b.where(opts.Filter, s); err != nil {
		return nil, err
	}
	if err := b.orderBy(opts.Order, s, s.Key); err != nil {
		return nil, err
	}
	if err := b.page(opts.Limit, opts.Offset); err != nil {
		return nil, err
	}

	res, err := queryRows(ctx, q, b, s.width(), r.decode)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", s.Table, err)
	}
	return res, nil
}

// Count returns the number of rows matching f; a nil f counts every row.
func (r *Repository[T]) Count(ctx context.Context, q database.Querier, f Filter) (int64, error) {
	s := r.schema

	b := newBuilder(q.Dialect())
	b.write("SELECT COUNT(*) FROM " + s.Table)
	if err := b.where(f, s); err != nil {
		return 0, err
	}

	counts, err := queryRows(ctx, q, b, 1, func(src []any) (int64, error) {
		return Int64.Decode(src[0])
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.Table, err)
	}
	return counts[0], nil
}

// Update writes the columns in cs to the row with key id and returns the
// updated row. Columns not in cs keep their value. An empty cs only reads
// the row back.
func (r *Repository[T]) Update(ctx context.Context, q database.Querier, id int64, cs Changeset) (*T, error) {
	s := r.schema

	names, values, err := cs.encode(s.Key, s)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return r.Get(ctx, q, id)
	}

	b := newBuilder(q.Dialect())
	writeUpdate(b, s.Table, names, values)
	b.write(" WHERE " + s.Key + " = " + b.arg(id))

	if !q.Dialect().SupportsReturning() {
		if _, err = q.Exec(ctx, b.String(), b.args...); err != nil {
			return nil, fmt.Errorf("update %s: %w", s.Table, err)
		}
		// MySQL reports changed rather than matched rows, so read back instead.
		return r.Get(ctx, q, id)
	}

	b.write(" RETURNING " + s.selectList(""))

	rows, err := queryRows(ctx, q, b, s.width(), r.decode)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.Table, err)
	}
	if len(rows) == 0 {
		return nil, sqlerr.NotFound(s.Table, id)
	}

	return &rows[0], nil
}

// UpdateWhere writes cs to every row matching f and returns the number of
// rows written.
func (r *Repository[T]) UpdateWhere(ctx context.Context, q database.Querier, f Filter, cs Changeset) (int64, error) {
	s := r.schema

	names, values, err := cs.encode(s.Key, s)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, sqlerr.Malformed("update of %s assigns no columns", s.Table)
	}

	b := newBuilder(q.Dialect())
	writeUpdate(b, s.Table, names, values)
	if err := b.where(f, s); err != nil {
		return 0, err
	}

	n, err := q.Exec(ctx, b.String(), b.args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", s.Table, err)
	}
	return n, nil
}

func writeUpdate(b *builder, table string, names []string, values []any) {
	b.write("UPDATE " + table + " SET ")
	for i, name := range names {
		if i > 0 {
			b.write(", ")
		}
		b.write(name + " = " + b.arg(values[i]))
	}
}

// Delete removes the row with key id and returns it as it was.
func (r *Repository[T]) Delete(ctx context.Context, q database.Querier, id int64) (*T, error) {
	s := r.schema

	var existing *T
	if !q.Dialect().SupportsReturning() {
		var err error
		if existing, err = r.Get(ctx, q, id); err != nil {
			return nil, err
		}
	}

	b := newBuilder(q.Dialect())
	b.write("DELETE FROM " + s.Table + " WHERE " + s.Key + " = " + b.arg(id))

	if existing != nil {
		n, err := q.Exec(ctx, b.String(), b.args...)
		if err != nil {
			return nil, fmt.Errorf("delete from %s: %w", s.Table, err)
		}
		if n == 0 {
			return nil, sqlerr.NotFound(s.Table, id)
		}
		return existing, nil
	}

	b.write(" RETURNING " + s.selectList(""))

	rows, err := queryRows(ctx, q, b, s.width(), r.decode)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", s.Table, err)
	}
	if len(rows) == 0 {
		return nil, sqlerr.NotFound(s.Table, id)
	}

	return &rows[0], nil
}

// DeleteWhere removes every row matching f and returns how many were removed.
// A nil f is rejected rather than emptying the table.
func (r *Repository[T]) DeleteWhere(ctx context.Context, q database.Querier, f Filter) (int64, error) {
	s := r.schema

	if f == nil {
		return 0, sqlerr.Malformed("delete from %s needs a filter", s.Table)
	}

	b := newBuilder(q.Dialect())
	b.write("DELETE FROM " + s.Table)
	if err := b.where(f, s); err != nil {
		return 0, err
	}

	n, err := q.Exec(ctx, b.String(), b.args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", s.Table, err)
	}
	return n, nil
}

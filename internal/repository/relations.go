package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/deppfellow/bookshelf/internal/database"
)

// HasMany loads the children of many parents in batched queries. Child rows carry
// the parent key in ForeignKey.
type HasMany[C any] struct {
	Child      *Schema[C]
	ForeignKey string
	ParentID   func(*C) int64
	// BatchSize caps the ids sent per query; 0 means DefaultBatchSize.
	BatchSize int
}

// Load returns the children of every id in parentIDs, in child key order.
// Every requested parent has an entry, empty when it has no children.
func (h HasMany[C]) Load(ctx context.Context, q database.Querier, parentIDs []int64) (map[int64][]C, error) {
	ids := uniqueIDs(parentIDs)
	res := make(map[int64][]C, len(ids))
	for _, id := range ids {
		res[id] = []C{}
	}
	if len(ids) == 0 {
		return res, nil
	}

	s := h.Child

	for _, chunk := range chunkIDs(ids, batchSize(h.BatchSize, q.Dialect())) {
		b := newBuilder(q.Dialect())
		b.write("SELECT " + s.selectList("") + " FROM " + s.Table + " WHERE ")
		if err := (inFilter{column: h.ForeignKey, ids: chunk}).build(b, s); err != nil {
			return nil, err
		}
		b.write(" ORDER BY " + s.Key)

		children, err := queryRows(ctx, q, b, s.width(), s.decodeRow)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", s.Table, err)
		}

		for i := range children {
			parent := h.ParentID(&children[i])
			res[parent] = append(res[parent], children[i])
		}
	}

	return res, nil
}

// ManyToMany loads related rows through a join table holding two foreign
// keys: OwnerKey references the owner and TargetKey references Target.
type ManyToMany[R any] struct {
	Target    *Schema[R]
	JoinTable string
	OwnerKey  string
	TargetKey string
	// BatchSize caps the ids sent per query; 0 means DefaultBatchSize.
	BatchSize int
}

// Load returns the targets related to every id in ownerIDs, in target key
// order. Every requested owner has an entry.
func (m ManyToMany[R]) Load(ctx context.Context, q database.Querier, ownerIDs []int64) (map[int64][]R, error) {
	ids := uniqueIDs(ownerIDs)
	res := make(map[int64][]R, len(ids))
	for _, id := range ids {
		res[id] = []R{}
	}
	if len(ids) == 0 {
		return res, nil
	}

	s := m.Target
	owner := qualify("j", m.OwnerKey)

	type related struct {
		owner  int64
		target R
	}

	decode := func(src []any) (related, error) {
		ownerID, err := Int64.Decode(src[0])
		if err != nil {
			return related{}, fmt.Errorf("column %s: %w", m.OwnerKey, err)
		}
		target, err := s.decodeRow(src[1:])
		return related{owner: ownerID, target: target}, err
	}

	for _, chunk := range chunkIDs(ids, batchSize(m.BatchSize, q.Dialect())) {
		b := newBuilder(q.Dialect())
		b.write("SELECT " + owner + ", " + s.selectList("t") +
			" FROM " + s.Table + " t" +
			" INNER JOIN " + m.JoinTable + " j ON j." + m.TargetKey + " = t." + s.Key +
			" WHERE ")
		if err := (inFilter{column: owner, ids: chunk}).build(b, nil); err != nil {
			return nil, err
		}
		b.write(" ORDER BY " + owner + ", " + qualify("t", s.Key))

		rows, err := queryRows(ctx, q, b, s.width()+1, decode)
		if err != nil {
			return nil, fmt.Errorf("load %s through %s: %w", s.Table, m.JoinTable, err)
		}

		for _, r := range rows {
			res[r.owner] = append(res[r.owner], r.target)
		}
	}

	return res, nil
}

// DefaultBatchSize is the number of ids a relation load sends per query.
const DefaultBatchSize = 1000

// batchSize returns size, or DefaultBatchSize when size is not positive,
// capped by the bind parameter limit of d.
func batchSize(size int, d database.Dialect) int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return min(size, d.MaxParams())
}

// chunkIDs splits ids into consecutive slices of at most size ids.
func chunkIDs(ids []int64, size int) [][]int64 {
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func uniqueIDs(ids []int64) []int64 {
	res := slices.Clone(ids)
	slices.Sort(res)
	return slices.Compact(res)
}

// Pair is one row of a join. Right is nil when a left join found no match.
type Pair[L, R any] struct {
	Left  L  `json:"left"`
	Right *R `json:"right"`
}

// Join relates Left and Right rows where Left.LeftColumn = Right.RightColumn.
type Join[L, R any] struct {
	Left        *Schema[L]
	Right       *Schema[R]
	LeftColumn  string
	RightColumn string
}

// JoinOptions narrows a join. Filter columns refer to the left schema.
type JoinOptions struct {
	Filter Filter
	Limit  int
	Offset int
}

// InnerJoin returns the pairs of matching rows, ordered by left then right key.
func InnerJoin[L, R any](ctx context.Context, q database.Querier, j Join[L, R], opts JoinOptions) ([]Pair[L, R], error) {
	return runJoin(ctx, q, j, opts, "INNER")
}

// LeftJoin is InnerJoin that also returns left rows without a match, paired
// with a nil Right. It never returns fewer pairs than InnerJoin.
func LeftJoin[L, R any](ctx context.Context, q database.Querier, j Join[L, R], opts JoinOptions) ([]Pair[L, R], error) {
	return runJoin(ctx, q, j, opts, "LEFT")
}

func runJoin[L, R any](ctx context.Context, q database.Querier, j Join[L, R], opts JoinOptions, kind string) ([]Pair[L, R], error) {
	left := aliased[L]{schema: j.Left, alias: "l"}
	right := aliased[R]{schema: j.Right, alias: "r"}

	leftCol, _, err := left.resolve(j.LeftColumn)
	if err != nil {
		return nil, err
	}
	rightCol, _, err := right.resolve(j.RightColumn)
	if err != nil {
		return nil, err
	}

	b := newBuilder(q.Dialect())
	b.write("SELECT " + j.Left.selectList("l") + ", " + j.Right.selectList("r") +
		" FROM " + j.Left.Table + " l " + kind + " JOIN " + j.Right.Table + " r" +
		" ON " + leftCol + " = " + rightCol)

	if err := b.where(opts.Filter, left); err != nil {
		return nil, err
	}
	b.write(" ORDER BY " + qualify("l", j.Left.Key) + ", " + qualify("r", j.Right.Key))
	if err := b.page(opts.Limit, opts.Offset); err != nil {
		return nil, err
	}

	lw := j.Left.width()

	res, err := queryRows(ctx, q, b, lw+j.Right.width(), func(src []any) (Pair[L, R], error) {
		var p Pair[L, R]

		l, err := j.Left.decodeRow(src[:lw])
		if err != nil {
			return p, err
		}
		p.Left = l

		// A NULL right key means the left join found no match.
		if src[lw] == nil {
			return p, nil
		}

		r, err := j.Right.decodeRow(src[lw:])
		if err != nil {
			return p, err
		}
		p.Right = &r
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s join %s with %s: %w", kind, j.Left.Table, j.Right.Table, err)
	}

	return res, nil
}

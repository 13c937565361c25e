package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/bookshelf/internal/sqlerr"
)

// ErrTxDone is returned by operations on a transaction that was already
// committed or rolled back.
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// ErrTxBusy is returned by operations on a transaction while one of its
// nested transactions is still active.
var ErrTxBusy = errors.New("transaction has an active nested transaction")

// TxState is the lifecycle position of a transaction.
type TxState int

const (
	TxIdle TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Tx is a transaction bound to one connection.
//
// Begin on a Tx opens a nested transaction backed by a SAVEPOINT. Committing
// a nested transaction releases its savepoint, so its writes become durable
// only when the outermost transaction commits. Rolling it back undoes its
// writes and leaves the outer transaction usable.
//
// Nested transactions form a stack: while a child is active its parent
// rejects queries, Begin and Commit with ErrTxBusy. Rolling back a parent
// rolls back its active children too.
type Tx interface {
	Querier
	Beginner
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	State() TxState
	// Depth is 0 for a top-level transaction and n for the n-th nested one.
	Depth() int
}

type tx struct {
	querier
	root   driverTx
	parent *tx
	active *tx
	// seq numbers savepoints across the whole transaction tree.
	seq   *int
	name  string
	depth int
	state TxState
}

func newTx(q querier, root driverTx) *tx {
	return &tx{
		querier: q,
		root:    root,
		seq:     new(int),
		state:   TxActive,
	}
}

func (t *tx) State() TxState { return t.state }

func (t *tx) Depth() int { return t.depth }

// usable reports why t cannot run statements, if it cannot.
func (t *tx) usable() error {
	if t.state != TxActive {
		return ErrTxDone
	}
	if t.active != nil {
		return ErrTxBusy
	}
	return nil
}

func (t *tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := t.usable(); err != nil {
		return 0, err
	}
	return t.querier.Exec(ctx, query, args...)
}

func (t *tx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	return t.querier.Query(ctx, query, args...)
}

func (t *tx) Begin(ctx context.Context) (Tx, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}

	*t.seq++
	child := &tx{
		querier: t.querier,
		root:    t.root,
		parent:  t,
		seq:     t.seq,
		name:    fmt.Sprintf("sp_%d", *t.seq),
		depth:   t.depth + 1,
		state:   TxIdle,
	}

	if _, err := t.querier.Exec(ctx, "SAVEPOINT "+child.name); err != nil {
		return nil, err
	}

	child.state = TxActive
	t.active = child
	return child, nil
}

// finish moves t to state and detaches it from its parent.
func (t *tx) finish(state TxState) {
	t.state = state
	if t.parent != nil && t.parent.active == t {
		t.parent.active = nil
	}
}

// abandon marks every active descendant of t rolled back. The caller undoes
// their writes with a single rollback of t.
func (t *tx) abandon() {
	for c := t.active; c != nil; {
		next := c.active
		c.state = TxRolledBack
		c.active = nil
		c = next
	}
	t.active = nil
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.usable(); err != nil {
		return err
	}

	if t.depth == 0 {
		err := t.root.commit(ctx)
		if err != nil {
			// The driver ends the transaction on a failed commit.
			t.finish(TxRolledBack)
			return sqlerr.Convert(err)
		}
		t.finish(TxCommitted)
		return nil
	}

	if _, err := t.querier.Exec(ctx, "RELEASE SAVEPOINT "+t.name); err != nil {
		return err
	}
	t.finish(TxCommitted)
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.state != TxActive {
		return ErrTxDone
	}

	// Rolling back to t's savepoint also discards every savepoint opened
	// after it, so active children end here as well.
	t.abandon()
	t.finish(TxRolledBack)

	if t.depth == 0 {
		return sqlerr.Convert(t.root.rollback(ctx))
	}

	if _, err := t.querier.Exec(ctx, "ROLLBACK TO SAVEPOINT "+t.name); err != nil {
		return err
	}
	_, err := t.querier.Exec(ctx, "RELEASE SAVEPOINT "+t.name)
	return err
}

// InTransaction runs f inside a transaction started on b.
//
// When b is a Conn a top-level transaction is used; when b is a Tx a nested
// one is. If f returns nil the transaction is committed. If f returns an
// error or panics it is rolled back; the error is returned unchanged and the
// panic is propagated.
func InTransaction(ctx context.Context, b Beginner, f func(Tx) error) (err error) {
	var t Tx
	if t, err = b.Begin(ctx); err != nil {
		return err
	}

	var done bool

	defer func() {
		if done {
			return
		}

		_ = t.Rollback(context.WithoutCancel(ctx))

		if err == nil {
			err = errors.New("transaction was not committed")
		}
	}()

	if err = f(t); err != nil {
		return err
	}

	if err = t.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	done = true
	return nil
}

// InTransactionResult is InTransaction for bodies that produce a value.
// The value is discarded when the transaction does not commit.
func InTransactionResult[T any](ctx context.Context, b Beginner, f func(Tx) (T, error)) (T, error) {
	var res T

	err := InTransaction(ctx, b, func(t Tx) error {
		var err error
		res, err = f(t)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res, nil
}

// RunInTransaction acquires one connection from pool, runs body in a
// transaction on it and releases the connection.
func RunInTransaction[T any](ctx context.Context, pool Pool, body func(Tx) (T, error)) (T, error) {
	return WithConn(ctx, pool, func(c Conn) (T, error) {
		return InTransactionResult(ctx, c, body)
	})
}

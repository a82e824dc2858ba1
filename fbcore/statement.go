package fbcore

import (
	"context"

	"github.com/fbxdb/firebird/fbcache"
	"github.com/fbxdb/firebird/fbvalue"
)

// Statement is a prepared statement borrowed from (or destined for) its
// Connection's cache. It borrows its Transaction and must not outlive
// it.
//
// Go has no implicit destructor, so the drop-policy choice the
// original made at construction time is instead made explicit by the
// caller: Close returns the statement to the cache (cursor released,
// handle kept valid), Drop discards it permanently. Exactly one of
// Close or Drop should be called once the statement is no longer
// needed; both are idempotent no-ops on a second call.
type Statement struct {
	conn *Connection
	tr   *Transaction
	sql  string
	idx  int
	kind fbvalue.StmtKind

	done bool
}

// Kind reports the statement category the server assigned at prepare
// time.
func (s *Statement) Kind() fbvalue.StmtKind { return s.kind }

// Execute runs the statement with positional parameter values and
// produces no row output. If the statement is a Select, its cursor is
// closed immediately afterward, since the caller asked for Execute
// rather than Query.
func (s *Statement) Execute(ctx context.Context, params []fbvalue.Value) error {
	if err := s.conn.hs.execute(ctx, s.idx, params); err != nil {
		return err
	}
	if s.kind == fbvalue.StmtSelect {
		return s.conn.hs.closeCursor(ctx, s.idx)
	}
	return nil
}

// ExecuteReturning runs the statement and returns the single row of
// output columns it produced, e.g. for INSERT ... RETURNING.
func (s *Statement) ExecuteReturning(ctx context.Context, params []fbvalue.Value) ([]fbvalue.Column, error) {
	return s.conn.hs.execute2(ctx, s.idx, params)
}

// Query runs the statement and returns a Rows cursor over its result
// set.
func (s *Statement) Query(ctx context.Context, params []fbvalue.Value) (*Rows, error) {
	if err := s.conn.hs.execute(ctx, s.idx, params); err != nil {
		return nil, err
	}
	s.conn.hs.markCursorOpen(s.idx)
	if s.conn.metrics != nil {
		s.conn.metrics.cursorOpened()
	}
	return &Rows{stmt: s}, nil
}

// Close releases this statement's open cursor (if any) and returns the
// handle to the connection's statement cache, where it may be reused by
// a later Prepare of identical SQL or evicted under capacity pressure.
func (s *Statement) Close(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true

	if err := s.conn.hs.closeCursor(ctx, s.idx); err != nil {
		return err
	}
	s.conn.cache.Put(fbcache.Entry[int]{SQL: s.sql, Handle: s.idx, Kind: s.kind})
	return nil
}

// Drop permanently releases this statement, bypassing the cache. Use
// this instead of Close when the SQL is known not to be reused (e.g. a
// one-shot DDL statement prepared ahead of exec-immediate support).
func (s *Statement) Drop(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true

	err := s.conn.hs.dropStmt(ctx, s.idx)
	if s.conn.metrics != nil {
		s.conn.metrics.stmtFreed()
	}
	return err
}

// Rows is the fetch cursor produced by Statement.Query.
type Rows struct {
	stmt   *Statement
	closed bool
}

// Next advances the cursor by one row. ok is false once the cursor is
// exhausted, at which point Rows closes itself automatically.
func (r *Rows) Next(ctx context.Context) (row []fbvalue.Column, ok bool, err error) {
	if r.closed {
		return nil, false, nil
	}
	cols, err := r.stmt.conn.hs.fetch(ctx, r.stmt.idx)
	if err != nil {
		return nil, false, err
	}
	if cols == nil {
		if closeErr := r.Close(ctx); closeErr != nil {
			return nil, false, closeErr
		}
		return nil, false, nil
	}
	return cols, true, nil
}

// Close releases the cursor early, before it has been fully drained.
// It is safe to call after the cursor has already self-closed from
// exhaustion.
func (r *Rows) Close(ctx context.Context) error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.stmt.conn.metrics != nil {
		r.stmt.conn.metrics.cursorClosed()
	}
	return r.stmt.conn.hs.closeCursor(ctx, r.stmt.idx)
}

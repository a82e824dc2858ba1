package fbcore

import (
	"context"

	"github.com/fbxdb/firebird/fbvalue"
)

// Transaction is a scoped transaction over a Connection. It holds a
// pointer back to the owning Connection; a Transaction must not outlive
// the Connection it was opened from, and must not be shared across
// goroutines.
type Transaction struct {
	conn   *Connection
	closed bool
}

func newTransaction(ctx context.Context, conn *Connection) (*Transaction, error) {
	if err := conn.hs.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		return nil, err
	}
	return &Transaction{conn: conn}, nil
}

// applyDropBehavior is the non-retaining/retaining/ignore dispatch
// shared by WithTransactionOpts and the pool adapter's liveness probe.
func (t *Transaction) applyDropBehavior(ctx context.Context, behavior DropBehavior) error {
	if t.closed {
		return nil
	}
	switch behavior {
	case DropIgnore:
		t.conn.hs.trHandle = nil
		t.conn.hs.trActive = false
		t.closed = true
		return nil
	case DropCommit:
		return t.Commit(ctx)
	case DropCommitRetaining:
		return t.CommitRetaining(ctx)
	case DropRollback:
		return t.Rollback(ctx)
	case DropRollbackRetaining:
		return t.RollbackRetaining(ctx)
	default:
		return t.RollbackRetaining(ctx)
	}
}

// Commit commits the transaction's changes and invalidates the handle.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.closed {
		return nil
	}
	err := t.conn.hs.txOp(ctx, fbvalue.TrCommit)
	t.closed = true
	if t.conn.metrics != nil && err == nil {
		t.conn.metrics.recordCommit()
	}
	return err
}

// Rollback rolls back the transaction's changes and invalidates the
// handle.
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	err := t.conn.hs.txOp(ctx, fbvalue.TrRollback)
	t.closed = true
	if t.conn.metrics != nil && err == nil {
		t.conn.metrics.recordRollback()
	}
	return err
}

// CommitRetaining commits the transaction's changes while leaving the
// handle usable for further statements.
func (t *Transaction) CommitRetaining(ctx context.Context) error {
	err := t.conn.hs.txOp(ctx, fbvalue.TrCommitRetaining)
	if t.conn.metrics != nil && err == nil {
		t.conn.metrics.recordCommit()
	}
	return err
}

// RollbackRetaining rolls back the transaction's changes while leaving
// the handle usable for further statements.
func (t *Transaction) RollbackRetaining(ctx context.Context) error {
	err := t.conn.hs.txOp(ctx, fbvalue.TrRollbackRetaining)
	if t.conn.metrics != nil && err == nil {
		t.conn.metrics.recordRollback()
	}
	return err
}

// ExecuteImmediate runs sql with no parameters and no result set.
func (t *Transaction) ExecuteImmediate(ctx context.Context, sql string) error {
	return t.conn.hs.execImmediate(ctx, t.conn.dialect, sql)
}

// Prepare consults the statement cache for sql; on a miss it prepares
// against the server and records the statement's kind. The returned
// Statement borrows this Transaction.
func (t *Transaction) Prepare(ctx context.Context, sql string) (*Statement, error) {
	if entry, ok := t.conn.cache.Get(sql); ok {
		if t.conn.metrics != nil {
			t.conn.metrics.recordCacheHit()
		}
		return &Statement{conn: t.conn, tr: t, sql: sql, idx: entry.Handle, kind: entry.Kind}, nil
	}

	if t.conn.metrics != nil {
		t.conn.metrics.recordCacheMiss()
	}

	kind, idx, err := t.conn.hs.prepare(ctx, t.conn.dialect, sql)
	if err != nil {
		return nil, err
	}
	if t.conn.metrics != nil {
		t.conn.metrics.stmtPrepared()
	}
	return &Statement{conn: t.conn, tr: t, sql: sql, idx: idx, kind: kind}, nil
}

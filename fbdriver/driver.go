// Package fbdriver defines the capability set any concrete Firebird driver
// (a native C-library binding, a pure wire-protocol implementation, or a
// test mock) must provide. The session engine in package fbcore depends
// only on this interface, never on a concrete driver, which is what lets
// the rest of the stack stay driver-agnostic.
//
// Handles are opaque: a driver picks its own concrete handle type and the
// engine never inspects it, only threads it back through later calls.
package fbdriver

import (
	"context"

	"github.com/fbxdb/firebird/fbvalue"
)

// AttachmentConfig carries what a driver needs to attach to a database.
// Concrete drivers are free to interpret Extra for their own options
// (character set, role, page size hints, ...); this layer never inspects
// it. Server/credential parsing and DSN syntax belong to a concrete
// driver, not to this contract.
type AttachmentConfig struct {
	Host     string
	Database string
	User     string
	Password string
	Dialect  fbvalue.Dialect
	Extra    map[string]string
}

// DBOps is the capability group for managing a database attachment.
type DBOps interface {
	// Attach opens a new attachment and returns a driver-owned handle.
	Attach(ctx context.Context, cfg AttachmentConfig) (any, error)
	// Detach closes a live attachment. After a successful Detach the
	// handle must not be reused; after a failed one the engine keeps the
	// handle and may pass it to Detach again.
	Detach(ctx context.Context, dbHandle any) error
	// Drop destroys the underlying database file/alias. After a
	// successful Drop the handle must not be reused; after a failed one
	// the engine keeps the handle as still attached.
	Drop(ctx context.Context, dbHandle any) error
}

// SQLOps is the capability group for transactions, statements and
// cursors against an attached database. Every method addresses at most
// one attached DB, one active transaction and one statement at a time,
// matching the underlying Firebird API and keeping state tracking in the
// engine tractable.
type SQLOps interface {
	// BeginTx starts a transaction at the given isolation level and
	// returns a driver-owned transaction handle.
	BeginTx(ctx context.Context, dbHandle any, iso fbvalue.TrIsolation) (any, error)
	// TxOp applies a commit/rollback (possibly retaining) operation to
	// an active transaction handle.
	TxOp(ctx context.Context, trHandle any, op fbvalue.TrOp) error
	// ExecImmediate executes sql with no parameters and no result set,
	// e.g. DDL or a one-shot DML statement.
	ExecImmediate(ctx context.Context, dbHandle, trHandle any, dialect fbvalue.Dialect, sql string) error
	// Prepare compiles sql on the server, returning its statement kind
	// and a driver-owned statement handle.
	Prepare(ctx context.Context, dbHandle, trHandle any, dialect fbvalue.Dialect, sql string) (fbvalue.StmtKind, any, error)
	// Execute runs a prepared statement with positional parameter
	// values, producing no row output (use Execute2 for RETURNING).
	Execute(ctx context.Context, dbHandle, trHandle, stmtHandle any, params []fbvalue.Value) error
	// Execute2 runs a prepared statement and returns the single row of
	// output columns it produced (e.g. INSERT ... RETURNING).
	Execute2(ctx context.Context, dbHandle, trHandle, stmtHandle any, params []fbvalue.Value) ([]fbvalue.Column, error)
	// Fetch advances an open cursor by one row, returning (nil, nil) on
	// exhaustion.
	Fetch(ctx context.Context, dbHandle, trHandle, stmtHandle any) ([]fbvalue.Column, error)
	// Free releases a statement handle per op: Close discards its open
	// cursor but keeps the handle valid; Drop releases it entirely.
	Free(ctx context.Context, stmtHandle any, op fbvalue.FreeStmtOp) error
	// Close is a convenience equivalent to Free(stmtHandle, FreeClose).
	Close(ctx context.Context, stmtHandle any) error
	// DropStmt is a convenience equivalent to Free(stmtHandle, FreeDrop).
	DropStmt(ctx context.Context, stmtHandle any) error
}

// Driver is the full capability set a concrete driver exposes: DB
// lifecycle plus transaction/statement/cursor operations. A new driver
// (native binding, wire-protocol client, or mock) need only implement
// these two embedded interfaces.
type Driver interface {
	DBOps
	SQLOps
}

// Package fbmock provides an in-process fbdriver.Driver implementation for
// exercising package fbcore without a live Firebird server. It never
// errors, treats every prepared statement as a SELECT with an empty
// result set, and hands out sequential integer handles so tests can
// assert on attach/prepare/execute call shape.
package fbmock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fbxdb/firebird/fbdriver"
	"github.com/fbxdb/firebird/fbvalue"
)

// Call records one invocation against the mock, in order, for tests that
// want to assert on the exact sequence of driver calls an engine made.
type Call struct {
	Method string
	Args   []any
}

// Driver is a fbdriver.Driver that always succeeds. Every method is
// concurrency-safe. The zero value is ready to use.
type Driver struct {
	mu    sync.Mutex
	calls []Call

	nextHandle int64
}

var _ fbdriver.Driver = (*Driver)(nil)

func (d *Driver) record(method string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Method: method, Args: args})
}

// Calls returns a copy of every call recorded so far, in invocation order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *Driver) handle() int64 {
	return atomic.AddInt64(&d.nextHandle, 1)
}

// Attach always succeeds, returning a fresh opaque handle.
func (d *Driver) Attach(_ context.Context, cfg fbdriver.AttachmentConfig) (any, error) {
	d.record("Attach", cfg)
	return d.handle(), nil
}

// Detach always succeeds.
func (d *Driver) Detach(_ context.Context, dbHandle any) error {
	d.record("Detach", dbHandle)
	return nil
}

// Drop always succeeds.
func (d *Driver) Drop(_ context.Context, dbHandle any) error {
	d.record("Drop", dbHandle)
	return nil
}

// BeginTx always succeeds, returning a fresh opaque handle.
func (d *Driver) BeginTx(_ context.Context, dbHandle any, iso fbvalue.TrIsolation) (any, error) {
	d.record("BeginTx", dbHandle, iso)
	return d.handle(), nil
}

// TxOp always succeeds.
func (d *Driver) TxOp(_ context.Context, trHandle any, op fbvalue.TrOp) error {
	d.record("TxOp", trHandle, op)
	return nil
}

// ExecImmediate always succeeds.
func (d *Driver) ExecImmediate(_ context.Context, dbHandle, trHandle any, dialect fbvalue.Dialect, sql string) error {
	d.record("ExecImmediate", dbHandle, trHandle, dialect, sql)
	return nil
}

// Prepare always succeeds, reporting every statement as StmtSelect.
func (d *Driver) Prepare(_ context.Context, dbHandle, trHandle any, dialect fbvalue.Dialect, sql string) (fbvalue.StmtKind, any, error) {
	d.record("Prepare", dbHandle, trHandle, dialect, sql)
	return fbvalue.StmtSelect, d.handle(), nil
}

// Execute always succeeds.
func (d *Driver) Execute(_ context.Context, dbHandle, trHandle, stmtHandle any, params []fbvalue.Value) error {
	d.record("Execute", dbHandle, trHandle, stmtHandle, params)
	return nil
}

// Execute2 always succeeds and returns no output columns.
func (d *Driver) Execute2(_ context.Context, dbHandle, trHandle, stmtHandle any, params []fbvalue.Value) ([]fbvalue.Column, error) {
	d.record("Execute2", dbHandle, trHandle, stmtHandle, params)
	return nil, nil
}

// Fetch always reports cursor exhaustion.
func (d *Driver) Fetch(_ context.Context, dbHandle, trHandle, stmtHandle any) ([]fbvalue.Column, error) {
	d.record("Fetch", dbHandle, trHandle, stmtHandle)
	return nil, nil
}

// Free always succeeds.
func (d *Driver) Free(_ context.Context, stmtHandle any, op fbvalue.FreeStmtOp) error {
	d.record("Free", stmtHandle, op)
	return nil
}

// Close is a convenience equivalent to Free(stmtHandle, fbvalue.FreeClose).
func (d *Driver) Close(ctx context.Context, stmtHandle any) error {
	return d.Free(ctx, stmtHandle, fbvalue.FreeClose)
}

// DropStmt is a convenience equivalent to Free(stmtHandle, fbvalue.FreeDrop).
func (d *Driver) DropStmt(ctx context.Context, stmtHandle any) error {
	return d.Free(ctx, stmtHandle, fbvalue.FreeDrop)
}

package fbcore

import (
	"context"
	"log/slog"

	"github.com/fbxdb/firebird/fbdriver"
	"github.com/fbxdb/firebird/fbvalue"
)

// trState tracks whether the active transaction is Clean (fresh, or
// just committed/rolled back) or Dirty (a statement has executed since
// the last commit boundary).
type trState int

const (
	trClean trState = iota
	trDirty
)

// stmtSlot is one arena slot. A zero-value stmtSlot is empty.
type stmtSlot struct {
	handle any
	valid  bool
}

// handleState is the inner engine that owns a driver instance plus the
// raw DB/transaction/statement handles, and enforces every precondition
// the driver itself cannot check. It is never exposed directly: the
// Connection/Transaction/Statement facades hold a pointer to one and
// borrow it for the duration of a call.
//
// The driver addresses exactly one "current" statement at a time, but
// callers legitimately hold multiple prepared statements concurrently.
// The arena owns every prepared handle except the one currently
// loaded, which lives in the `current` field; loadStatement performs a
// two-swap to bring any arena slot into the current position.
type handleState struct {
	driver fbdriver.Driver
	log    *slog.Logger

	dbHandle any
	attached bool

	trHandle any
	trActive bool
	trState  trState

	cursors map[int]struct{}

	arena      []stmtSlot
	current    stmtSlot
	currentIdx int
}

func newHandleState(driver fbdriver.Driver, log *slog.Logger) *handleState {
	return &handleState{
		driver:  driver,
		log:     log,
		cursors: make(map[int]struct{}),
	}
}

func (h *handleState) attach(ctx context.Context, cfg fbdriver.AttachmentConfig) error {
	if h.attached {
		return ErrAlreadyAttached
	}
	dbHandle, err := h.driver.Attach(ctx, cfg)
	if err != nil {
		return newError(ConnectionFailure, err, "attach")
	}
	h.dbHandle = dbHandle
	h.attached = true
	return nil
}

// detach calls driver.Detach on the taken DB handle. On failure, the
// handle is restored so the caller may retry.
func (h *handleState) detach(ctx context.Context) error {
	if !h.attached {
		return ErrNotAttached
	}
	dbHandle := h.dbHandle
	h.dbHandle = nil
	h.attached = false

	if err := h.driver.Detach(ctx, dbHandle); err != nil {
		h.dbHandle = dbHandle
		h.attached = true
		return newError(ConnectionFailure, err, "detach")
	}
	return nil
}

func (h *handleState) dropDatabase(ctx context.Context) error {
	if !h.attached {
		return ErrNotAttached
	}
	dbHandle := h.dbHandle
	h.dbHandle = nil
	h.attached = false

	if err := h.driver.Drop(ctx, dbHandle); err != nil {
		h.dbHandle = dbHandle
		h.attached = true
		return newError(ConnectionFailure, err, "drop database")
	}
	return nil
}

func (h *handleState) beginTx(ctx context.Context, iso fbvalue.TrIsolation) error {
	if !h.attached {
		return ErrNotAttached
	}
	if h.trActive {
		return ErrTransactionInUse
	}
	trHandle, err := h.driver.BeginTx(ctx, h.dbHandle, iso)
	if err != nil {
		return newError(ExecutionFailure, err, "begin transaction")
	}
	h.trHandle = trHandle
	h.trActive = true
	h.trState = trClean
	return nil
}

// txOp applies a commit/rollback, possibly retaining. Non-retaining
// operations close every open cursor and empty the cursor set before
// invalidating the transaction handle.
func (h *handleState) txOp(ctx context.Context, op fbvalue.TrOp) error {
	if !h.trActive {
		return ErrNoTransaction
	}

	if !op.Retaining() {
		_ = h.closeAllCursors(ctx)
	}

	err := h.driver.TxOp(ctx, h.trHandle, op)
	if err != nil {
		return newError(ExecutionFailure, err, "transaction %s", op)
	}

	h.trState = trClean
	if !op.Retaining() {
		h.trHandle = nil
		h.trActive = false
	}
	return nil
}

func (h *handleState) execImmediate(ctx context.Context, dialect fbvalue.Dialect, sql string) error {
	if !h.attached {
		return ErrNotAttached
	}
	if !h.trActive {
		return ErrNoTransaction
	}
	if err := h.driver.ExecImmediate(ctx, h.dbHandle, h.trHandle, dialect, sql); err != nil {
		return newError(ExecutionFailure, err, "exec immediate")
	}
	h.trState = trDirty
	return nil
}

// prepare compiles sql, pushes a new arena slot, loads it as current,
// and returns the slot index the caller should address it by.
func (h *handleState) prepare(ctx context.Context, dialect fbvalue.Dialect, sql string) (fbvalue.StmtKind, int, error) {
	if !h.attached {
		return 0, 0, ErrNotAttached
	}
	if !h.trActive {
		return 0, 0, ErrNoTransaction
	}

	kind, stmtHandle, err := h.driver.Prepare(ctx, h.dbHandle, h.trHandle, dialect, sql)
	if err != nil {
		return 0, 0, newError(StatementPrepareFailure, err, "prepare %q", sql)
	}

	h.arena = append(h.arena, stmtSlot{})
	newIdx := len(h.arena) - 1
	h.loadStatement(newIdx)
	h.current = stmtSlot{handle: stmtHandle, valid: true}
	h.currentIdx = newIdx

	return kind, newIdx, nil
}

// loadStatement swaps the "current" loaded statement with arena slot
// idx, a no-op if idx is already current.
func (h *handleState) loadStatement(idx int) {
	if idx == h.currentIdx {
		return
	}
	h.current, h.arena[h.currentIdx] = h.arena[h.currentIdx], h.current
	h.current, h.arena[idx] = h.arena[idx], h.current
	h.currentIdx = idx
}

func (h *handleState) execute(ctx context.Context, idx int, params []fbvalue.Value) error {
	if !h.trActive {
		return ErrNoTransaction
	}
	h.loadStatement(idx)
	if !h.current.valid {
		return ErrStatementClosed
	}
	if err := h.driver.Execute(ctx, h.dbHandle, h.trHandle, h.current.handle, params); err != nil {
		return newError(ExecutionFailure, err, "execute")
	}
	h.trState = trDirty
	return nil
}

func (h *handleState) execute2(ctx context.Context, idx int, params []fbvalue.Value) ([]fbvalue.Column, error) {
	if !h.trActive {
		return nil, ErrNoTransaction
	}
	h.loadStatement(idx)
	if !h.current.valid {
		return nil, ErrStatementClosed
	}
	cols, err := h.driver.Execute2(ctx, h.dbHandle, h.trHandle, h.current.handle, params)
	if err != nil {
		return nil, newError(ExecutionFailure, err, "execute2")
	}
	h.trState = trDirty
	return cols, nil
}

func (h *handleState) fetch(ctx context.Context, idx int) ([]fbvalue.Column, error) {
	if !h.trActive {
		return nil, ErrNoTransaction
	}
	h.loadStatement(idx)
	if !h.current.valid {
		return nil, ErrStatementClosed
	}
	cols, err := h.driver.Fetch(ctx, h.dbHandle, h.trHandle, h.current.handle)
	if err != nil {
		return nil, newError(FetchFailure, err, "fetch")
	}
	return cols, nil
}

// free releases the statement loaded at idx per op. Close leaves the
// handle valid for reuse (its cursor is discarded server-side); Drop
// empties the slot (the arena keeps its length) and untracks its cursor. This
// departs from an early draft of the reference implementation, which
// invalidated the handle unconditionally on any free; the invariant
// that a closed (not dropped) statement keeps its handle usable is
// load-bearing for the statement cache's loan model, so Close must not
// clear it.
func (h *handleState) free(ctx context.Context, idx int, op fbvalue.FreeStmtOp) error {
	h.loadStatement(idx)
	if !h.current.valid {
		return ErrStatementClosed
	}

	if err := h.driver.Free(ctx, h.current.handle, op); err != nil {
		return newError(ProtocolFailure, err, "free statement (%s)", op)
	}

	if op == fbvalue.FreeDrop {
		h.current = stmtSlot{}
		delete(h.cursors, idx)
	}
	return nil
}

func (h *handleState) closeCursor(ctx context.Context, idx int) error {
	if err := h.free(ctx, idx, fbvalue.FreeClose); err != nil {
		return err
	}
	delete(h.cursors, idx)
	return nil
}

func (h *handleState) dropStmt(ctx context.Context, idx int) error {
	return h.free(ctx, idx, fbvalue.FreeDrop)
}

func (h *handleState) markCursorOpen(idx int) {
	h.cursors[idx] = struct{}{}
}

// closeAllCursors closes every tracked open cursor and returns the
// first error encountered, continuing to close the rest regardless.
// Every error past the first is logged at Debug rather than dropped
// silently, since the caller can only propagate one.
func (h *handleState) closeAllCursors(ctx context.Context) error {
	if len(h.cursors) == 0 {
		return nil
	}
	open := h.cursors
	h.cursors = make(map[int]struct{})

	var first error
	for idx := range open {
		if err := h.closeCursor(ctx, idx); err != nil {
			if first == nil {
				first = err
			} else {
				h.log.Debug("fbcore: additional cursor close error", "slot", idx, "error", err)
			}
		}
	}
	return first
}

// detachOnDrop is the best-effort finalizer equivalent: callers that
// never explicitly Close a Connection still want the database
// detached. It ignores errors by design, matching spec's destructor
// policy of suppressing errors on implicit teardown paths.
func (h *handleState) detachOnDrop(ctx context.Context) {
	if !h.attached {
		return
	}
	if err := h.detach(ctx); err != nil {
		h.log.Debug("fbcore: suppressed error detaching on drop", "error", err)
	}
}

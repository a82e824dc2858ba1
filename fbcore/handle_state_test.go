package fbcore

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fbxdb/firebird/fbdriver"
	"github.com/fbxdb/firebird/fbdriver/fbmock"
	"github.com/fbxdb/firebird/fbvalue"
)

func newTestHandleState() *handleState {
	return newHandleState(&fbmock.Driver{}, slog.Default())
}

func TestHandleStateAttachPreconditions(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()

	if err := h.execImmediate(ctx, fbvalue.Dialect3, "select 1"); err != ErrNotAttached {
		t.Fatalf("execImmediate before attach = %v, want ErrNotAttached", err)
	}

	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.attach(ctx, attachCfg()); err != ErrAlreadyAttached {
		t.Fatalf("double attach = %v, want ErrAlreadyAttached", err)
	}
}

func TestHandleStateNoTransactionPrecondition(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, _, err := h.prepare(ctx, fbvalue.Dialect3, "select 1"); err != ErrNoTransaction {
		t.Fatalf("prepare without tx = %v, want ErrNoTransaction", err)
	}
	if err := h.txOp(ctx, fbvalue.TrCommit); err != ErrNoTransaction {
		t.Fatalf("txOp without tx = %v, want ErrNoTransaction", err)
	}
}

func TestHandleStateArenaTwoSwap(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		t.Fatalf("beginTx: %v", err)
	}

	_, idx0, err := h.prepare(ctx, fbvalue.Dialect3, "select 0")
	if err != nil {
		t.Fatalf("prepare 0: %v", err)
	}
	if idx0 != 0 {
		t.Fatalf("idx0 = %d, want 0", idx0)
	}
	handle0 := h.current.handle

	_, idx1, err := h.prepare(ctx, fbvalue.Dialect3, "select 1")
	if err != nil {
		t.Fatalf("prepare 1: %v", err)
	}
	if idx1 != 1 {
		t.Fatalf("idx1 = %d, want 1", idx1)
	}

	// Preparing statement 1 must have swapped statement 0's handle back
	// into the arena rather than discarding it.
	if !h.arena[idx0].valid || h.arena[idx0].handle != handle0 {
		t.Fatalf("arena[%d] = %+v, want valid slot holding %v", idx0, h.arena[idx0], handle0)
	}

	// loadStatement(idx0) must bring it back as current without error.
	h.loadStatement(idx0)
	if h.current.handle != handle0 {
		t.Fatalf("after loadStatement(0), current.handle = %v, want %v", h.current.handle, handle0)
	}
	if !h.arena[idx1].valid {
		t.Fatalf("arena[%d] should now hold statement 1's handle", idx1)
	}

	// loadStatement is a no-op when idx already current.
	h.loadStatement(idx0)
	if h.current.handle != handle0 {
		t.Fatalf("redundant loadStatement(0) changed current to %v", h.current.handle)
	}
}

func TestHandleStateCommitClosesAllCursors(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		t.Fatalf("beginTx: %v", err)
	}

	_, idx, err := h.prepare(ctx, fbvalue.Dialect3, "select 1")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	h.markCursorOpen(idx)

	if err := h.txOp(ctx, fbvalue.TrCommit); err != nil {
		t.Fatalf("txOp commit: %v", err)
	}
	if len(h.cursors) != 0 {
		t.Fatalf("cursors after non-retaining commit = %v, want empty", h.cursors)
	}
	if h.trActive {
		t.Fatal("trActive should be false after non-retaining commit")
	}
}

func TestHandleStateRetainingKeepsTransactionActive(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		t.Fatalf("beginTx: %v", err)
	}

	if err := h.txOp(ctx, fbvalue.TrCommitRetaining); err != nil {
		t.Fatalf("commit retaining: %v", err)
	}
	if !h.trActive {
		t.Fatal("trActive should remain true after commit-retaining")
	}
}

func TestHandleStateCloseVsDropSemantics(t *testing.T) {
	ctx := context.Background()
	h := newTestHandleState()
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		t.Fatalf("beginTx: %v", err)
	}
	_, idx, err := h.prepare(ctx, fbvalue.Dialect3, "select 1")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if err := h.closeCursor(ctx, idx); err != nil {
		t.Fatalf("closeCursor: %v", err)
	}
	h.loadStatement(idx)
	if !h.current.valid {
		t.Fatal("Close must keep the statement handle valid")
	}

	if err := h.dropStmt(ctx, idx); err != nil {
		t.Fatalf("dropStmt: %v", err)
	}
	h.loadStatement(idx)
	if h.current.valid {
		t.Fatal("Drop must invalidate the statement handle")
	}
}

func attachCfg() fbdriver.AttachmentConfig {
	return fbdriver.AttachmentConfig{Database: "test.fdb"}
}

// protocolFailDriver wraps fbmock.Driver so Prepare fails with a
// driver-classified ProtocolFailure, to verify newError preserves a
// cause's existing Kind instead of stamping its call-site default.
type protocolFailDriver struct {
	*fbmock.Driver
}

func (d protocolFailDriver) Prepare(ctx context.Context, dbHandle, trHandle any, dialect fbvalue.Dialect, sql string) (fbvalue.StmtKind, any, error) {
	return 0, nil, &Error{Kind: ProtocolFailure, Message: "malformed statement handle"}
}

func TestPrepareErrorPreservesDriverReportedKind(t *testing.T) {
	ctx := context.Background()
	h := newHandleState(protocolFailDriver{Driver: &fbmock.Driver{}}, slog.Default())
	if err := h.attach(ctx, attachCfg()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.beginTx(ctx, fbvalue.IsolationReadCommitted); err != nil {
		t.Fatalf("beginTx: %v", err)
	}

	_, _, err := h.prepare(ctx, fbvalue.Dialect3, "")
	if err == nil {
		t.Fatal("prepare: want an error from the driver, got nil")
	}
	var fbErr *Error
	if !errors.As(err, &fbErr) {
		t.Fatalf("prepare error = %v, want *Error", err)
	}
	if fbErr.Kind != ProtocolFailure {
		t.Fatalf("prepare error Kind = %v, want ProtocolFailure (driver-reported kind must survive, not be overwritten with StatementPrepareFailure)", fbErr.Kind)
	}
}

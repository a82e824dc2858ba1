package fbmock_test

import (
	"context"
	"testing"

	"github.com/fbxdb/firebird/fbdriver"
	"github.com/fbxdb/firebird/fbdriver/fbmock"
	"github.com/fbxdb/firebird/fbvalue"
)

func TestDriverNeverErrors(t *testing.T) {
	ctx := context.Background()
	d := &fbmock.Driver{}

	dbHandle, err := d.Attach(ctx, fbdriver.AttachmentConfig{Database: "x"})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	trHandle, err := d.BeginTx(ctx, dbHandle, fbvalue.IsolationReadCommitted)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}

	kind, stmtHandle, err := d.Prepare(ctx, dbHandle, trHandle, fbvalue.Dialect3, "select 1 from rdb$database")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if kind != fbvalue.StmtSelect {
		t.Fatalf("Prepare kind = %s, want select", kind)
	}

	if err := d.Execute(ctx, dbHandle, trHandle, stmtHandle, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cols, err := d.Fetch(ctx, dbHandle, trHandle, stmtHandle)
	if err != nil || cols != nil {
		t.Fatalf("Fetch = (%v, %v), want (nil, nil)", cols, err)
	}

	if err := d.Close(ctx, stmtHandle); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.TxOp(ctx, trHandle, fbvalue.TrCommit); err != nil {
		t.Fatalf("TxOp: %v", err)
	}
	if err := d.Detach(ctx, dbHandle); err != nil {
		t.Fatalf("Detach: %v", err)
	}
}

func TestDriverRecordsCalls(t *testing.T) {
	ctx := context.Background()
	d := &fbmock.Driver{}

	dbHandle, _ := d.Attach(ctx, fbdriver.AttachmentConfig{})
	_ = d.Drop(ctx, dbHandle)

	calls := d.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Method != "Attach" || calls[1].Method != "Drop" {
		t.Fatalf("unexpected call sequence: %+v", calls)
	}
}

func TestHandlesAreDistinct(t *testing.T) {
	ctx := context.Background()
	d := &fbmock.Driver{}

	a, _ := d.Attach(ctx, fbdriver.AttachmentConfig{})
	b, _ := d.Attach(ctx, fbdriver.AttachmentConfig{})
	if a == b {
		t.Fatalf("Attach returned identical handles: %v", a)
	}
}

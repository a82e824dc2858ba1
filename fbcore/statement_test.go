package fbcore_test

import (
	"context"
	"testing"

	"github.com/fbxdb/firebird/fbcore"
	"github.com/fbxdb/firebird/fbvalue"
)

func TestExecuteThenQueryReusesStatementWithoutStaleCursor(t *testing.T) {
	ctx := context.Background()
	conn, _ := openTestConnection(t)
	defer conn.Close(ctx)

	err := conn.WithTransaction(ctx, func(tr *fbcore.Transaction) error {
		stmt, err := tr.Prepare(ctx, "select * from product")
		if err != nil {
			return err
		}
		defer stmt.Close(ctx)

		if err := stmt.Execute(ctx, nil); err != nil {
			return err
		}

		rows, err := stmt.Query(ctx, nil)
		if err != nil {
			return err
		}
		defer rows.Close(ctx)

		_, ok, err := rows.Next(ctx)
		if err != nil {
			return err
		}
		if ok {
			t.Fatal("fbmock never produces rows")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
}

func TestExecuteReturning(t *testing.T) {
	ctx := context.Background()
	conn, _ := openTestConnection(t)
	defer conn.Close(ctx)

	err := conn.WithTransaction(ctx, func(tr *fbcore.Transaction) error {
		stmt, err := tr.Prepare(ctx, "insert into product (id, name) values (?, ?) returning id")
		if err != nil {
			return err
		}
		defer stmt.Close(ctx)

		cols, err := stmt.ExecuteReturning(ctx, fbvalue.Values(1, "coffee"))
		if err != nil {
			return err
		}
		if cols != nil {
			t.Fatalf("fbmock returns no output columns, got %v", cols)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
}

func TestStatementDropBypassesCache(t *testing.T) {
	ctx := context.Background()
	conn, driver := openTestConnection(t)
	defer conn.Close(ctx)

	const sql = "select * from product"

	run := func() error {
		return conn.WithTransaction(ctx, func(tr *fbcore.Transaction) error {
			stmt, err := tr.Prepare(ctx, sql)
			if err != nil {
				return err
			}
			return stmt.Drop(ctx)
		})
	}

	if err := run(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	prepareCallsBefore := countCalls(driver, "Prepare")

	if err := run(); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := countCalls(driver, "Prepare"); got != prepareCallsBefore+1 {
		t.Fatalf("Prepare called %d times after Drop-bypassed statement, want %d (no cache hit)", got, prepareCallsBefore+1)
	}
}

func TestZeroCapacityCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	conn, driver := openTestConnection(t, fbcore.WithStmtCacheCapacity(0))
	defer conn.Close(ctx)

	const sql = "select * from product"

	run := func() error {
		return conn.WithTransaction(ctx, func(tr *fbcore.Transaction) error {
			stmt, err := tr.Prepare(ctx, sql)
			if err != nil {
				return err
			}
			return stmt.Close(ctx)
		})
	}

	if err := run(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := countCalls(driver, "Prepare")
	if err := run(); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := countCalls(driver, "Prepare"); got != before+1 {
		t.Fatalf("Prepare called %d times with capacity 0, want %d (never cached)", got, before+1)
	}
}

func TestDoubleCloseAndDropAreIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, _ := openTestConnection(t)
	defer conn.Close(ctx)

	err := conn.WithTransaction(ctx, func(tr *fbcore.Transaction) error {
		stmt, err := tr.Prepare(ctx, "select 1 from rdb$database")
		if err != nil {
			return err
		}
		if err := stmt.Close(ctx); err != nil {
			return err
		}
		if err := stmt.Close(ctx); err != nil {
			return err
		}

		other, err := tr.Prepare(ctx, "select 2 from rdb$database")
		if err != nil {
			return err
		}
		if err := other.Drop(ctx); err != nil {
			return err
		}
		return other.Drop(ctx)
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
}

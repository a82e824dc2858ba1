// Package fbcore implements the session/resource-lifecycle engine of a
// Firebird client: the handle-state core and the Connection/
// Transaction/Statement/Rows facades built over it. It depends only on
// the fbdriver.Driver capability set, never on a concrete driver.
package fbcore

import (
	"context"
	"log/slog"

	"github.com/fbxdb/firebird/fbcache"
	"github.com/fbxdb/firebird/fbdriver"
	"github.com/fbxdb/firebird/fbvalue"
)

// Connection is the user-facing owner of a live session: one attached
// database, its prepared-statement cache, and the handle-state core
// enforcing lifecycle ordering. A Connection is not safe for concurrent
// use — it has exactly one owner at a time, matching the underlying
// Firebird API.
type Connection struct {
	hs      *handleState
	cache   *fbcache.Cache[int]
	dialect fbvalue.Dialect
	log     *slog.Logger
	metrics *Metrics
}

// cacheDropper holds the handle state and metrics rather than the
// Connection itself, so the cache never points back at its owner.
type cacheDropper struct {
	hs      *handleState
	metrics *Metrics
}

func (d cacheDropper) DropStmt(ctx context.Context, idx int) error {
	err := d.hs.dropStmt(ctx, idx)
	if d.metrics != nil {
		d.metrics.recordCacheEviction()
		d.metrics.stmtFreed()
	}
	return err
}

// Open attaches to a database through driver using cfg, returning a
// live Connection. The prepared-statement cache capacity defaults to
// 20 and can be changed with WithStmtCacheCapacity.
func Open(ctx context.Context, driver fbdriver.Driver, cfg fbdriver.AttachmentConfig, opts ...Option) (*Connection, error) {
	c := newConfig()
	for _, opt := range opts {
		opt(c)
	}
	if cfg.Dialect == 0 {
		cfg.Dialect = c.dialect
	}

	hs := newHandleState(driver, c.log)
	if err := hs.attach(ctx, cfg); err != nil {
		return nil, err
	}

	conn := &Connection{
		hs:      hs,
		dialect: cfg.Dialect,
		log:     c.log,
		metrics: c.metrics,
	}
	conn.cache = fbcache.New[int](c.stmtCacheCap, cacheDropper{hs: hs, metrics: c.metrics}, c.log)
	registerLeakCheck(conn)
	return conn, nil
}

// Close is best-effort: it closes every open cursor, drops every
// cached statement, and detaches the database. All three steps run
// even if an earlier one fails; the first error encountered is
// returned.
func (c *Connection) Close(ctx context.Context) error {
	clearLeakCheck(c)
	firstErr := c.hs.closeAllCursors(ctx)
	c.cache.Close()

	if err := c.hs.detach(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DropDatabase closes all cursors, drops all cached statements, then
// asks the driver to drop the underlying database file/alias. The
// Connection must not be used afterwards regardless of the error
// returned.
func (c *Connection) DropDatabase(ctx context.Context) error {
	firstErr := c.hs.closeAllCursors(ctx)
	c.cache.Close()
	if err := c.hs.dropDatabase(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DropBehavior is the action taken on a transaction opened by
// WithTransactionOpts once its closure returns.
type DropBehavior int

const (
	// DropCommit commits the transaction, invalidating the handle.
	DropCommit DropBehavior = iota
	// DropCommitRetaining commits while keeping the handle usable.
	DropCommitRetaining
	// DropRollback rolls back the transaction, invalidating the handle.
	DropRollback
	// DropRollbackRetaining rolls back while keeping the handle usable.
	DropRollbackRetaining
	// DropIgnore leaves the transaction handle untouched: no driver call
	// is made. The handle becomes inaccessible through this Connection's
	// API, which can then begin a new transaction; use at your own risk. This exists for parity with the pool adapter's
	// liveness probe, which deliberately leaks the handle rather than
	// committing.
	DropIgnore
)

// TxOptions selects the DropBehavior applied when a
// WithTransactionOpts closure returns, depending on whether it
// succeeded.
type TxOptions struct {
	OnSuccess DropBehavior
	OnFailure DropBehavior
}

// defaultTxOptions is what WithTransaction uses: commit-retaining on
// success, rollback-retaining on failure.
var defaultTxOptions = TxOptions{OnSuccess: DropCommitRetaining, OnFailure: DropRollbackRetaining}

// WithTransaction opens a transaction, runs fn, then commits-retaining
// on success or rolls-back-retaining on failure, and finally ends the
// transaction with a non-retaining rollback so the Connection can begin
// another. It returns fn's error verbatim.
func (c *Connection) WithTransaction(ctx context.Context, fn func(*Transaction) error) error {
	return c.WithTransactionOpts(ctx, defaultTxOptions, fn)
}

// WithTransactionOpts is WithTransaction generalized with an explicit
// DropBehavior for the success and failure paths. A transaction still
// open after a retaining behavior is then rolled back non-retaining.
func (c *Connection) WithTransactionOpts(ctx context.Context, opts TxOptions, fn func(*Transaction) error) error {
	tr, err := newTransaction(ctx, c)
	if err != nil {
		return err
	}

	res := fn(tr)

	behavior := opts.OnSuccess
	if res != nil {
		behavior = opts.OnFailure
	}

	dropErr := tr.applyDropBehavior(ctx, behavior)
	if dropErr == nil && !tr.closed {
		dropErr = c.hs.txOp(ctx, fbvalue.TrRollback)
		tr.closed = true
	}
	if dropErr != nil && res == nil {
		return dropErr
	}
	return res
}

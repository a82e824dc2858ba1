// Package fbpool adapts package fbcore's Connection into
// github.com/jackc/puddle/v2's generic resource pool: a factory
// contract plus a liveness check, wired to the handoff discipline
// spec describes for the pool tier (single worker checks out a
// Connection, uses it exclusively, returns it).
package fbpool

import (
	"context"

	"github.com/jackc/puddle/v2"

	"github.com/fbxdb/firebird/fbcore"
	"github.com/fbxdb/firebird/fbdriver"
)

// Factory produces a fresh driver instance per connection attempt. A
// Factory must be safe for concurrent use: the pool may call it from
// multiple goroutines opening connections simultaneously.
type Factory func() fbdriver.Driver

// Manager is the connection-manager capability the pool requires: how
// to create a Connection, and how to tell whether one already checked
// out is still usable.
type Manager interface {
	// Connect produces a freshly attached Connection.
	Connect(ctx context.Context) (*fbcore.Connection, error)
	// IsValid reports whether conn can still round-trip a transaction.
	IsValid(ctx context.Context, conn *fbcore.Connection) bool
	// HasBroken reports whether conn is known to be unusable without
	// attempting any I/O. The reference manager always returns false:
	// brokenness is surfaced by operation failures, not probed for.
	HasBroken(conn *fbcore.Connection) bool
}

// manager is the default Manager: it opens a Connection per factory
// instance and attach config, and treats "can open a no-op transaction"
// as the liveness probe.
type manager struct {
	factory Factory
	cfg     fbdriver.AttachmentConfig
	opts    []fbcore.Option
}

// NewManager builds the reference Manager used by NewPool when no
// custom Manager is supplied.
func NewManager(factory Factory, cfg fbdriver.AttachmentConfig, opts ...fbcore.Option) Manager {
	return &manager{factory: factory, cfg: cfg, opts: opts}
}

func (m *manager) Connect(ctx context.Context) (*fbcore.Connection, error) {
	return fbcore.Open(ctx, m.factory(), m.cfg, m.opts...)
}

// IsValid opens a transaction with DropBehavior=Ignore — the handle is
// leaked rather than committed — succeeding iff the session can round
// trip. This is the cheapest validity probe available: it avoids a
// round-trip SQL statement entirely.
func (m *manager) IsValid(ctx context.Context, conn *fbcore.Connection) bool {
	err := conn.WithTransactionOpts(ctx, fbcore.TxOptions{OnSuccess: fbcore.DropIgnore, OnFailure: fbcore.DropIgnore}, func(*fbcore.Transaction) error {
		return nil
	})
	return err == nil
}

func (m *manager) HasBroken(*fbcore.Connection) bool { return false }

// Pool hands out *fbcore.Connection values backed by puddle's generic
// resource pool. A checked-out Connection is exclusively owned by its
// caller until Release or Destroy is called on the returned resource.
type Pool struct {
	mgr Manager
	p   *puddle.Pool[*fbcore.Connection]
}

// NewPool builds a Pool with capacity maxSize, using mgr to create and
// validate connections and fbcore.Connection.Close as the destructor.
func NewPool(mgr Manager, maxSize int32) (*Pool, error) {
	p, err := puddle.NewPool(&puddle.Config[*fbcore.Connection]{
		Constructor: mgr.Connect,
		Destructor: func(conn *fbcore.Connection) {
			_ = conn.Close(context.Background())
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	return &Pool{mgr: mgr, p: p}, nil
}

// Acquire checks out a Connection, retrying against a fresh one
// whenever the manager reports the candidate broken or invalid.
func (pl *Pool) Acquire(ctx context.Context) (*puddle.Resource[*fbcore.Connection], error) {
	for {
		res, err := pl.p.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		conn := res.Value()
		if pl.mgr.HasBroken(conn) || !pl.mgr.IsValid(ctx, conn) {
			res.Destroy()
			continue
		}
		return res, nil
	}
}

// Stat returns puddle's pool statistics (total/idle/constructing/
// acquired resource counts).
func (pl *Pool) Stat() *puddle.Stat { return pl.p.Stat() }

// Close shuts down the pool, destroying every idle connection. In-use
// connections are destroyed as they are released.
func (pl *Pool) Close() { pl.p.Close() }

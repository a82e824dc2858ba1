package fbcore

import (
	"log/slog"

	"github.com/fbxdb/firebird/fbvalue"
)

// defaultStmtCacheCapacity is the LRU capacity applied when
// WithStmtCacheCapacity is not given. Zero disables caching entirely.
const defaultStmtCacheCapacity = 20

type config struct {
	log             *slog.Logger
	stmtCacheCap    int
	dialect         fbvalue.Dialect
	metrics         *Metrics
}

func newConfig() *config {
	return &config{
		log:          slog.Default(),
		stmtCacheCap: defaultStmtCacheCapacity,
		dialect:      fbvalue.Dialect3,
	}
}

// Option configures a Connection at Open time.
type Option func(*config)

// WithLogger sets the *slog.Logger a Connection uses for suppressed
// destructor errors and cache eviction warnings. Defaults to
// slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithStmtCacheCapacity sets the prepared-statement LRU capacity.
// Zero disables caching: every prepare is a fresh server round trip and
// every statement is dropped (not cached) on release.
func WithStmtCacheCapacity(capacity int) Option {
	return func(c *config) { c.stmtCacheCap = capacity }
}

// WithDialect sets the SQL dialect used for exec-immediate and prepare
// calls. Defaults to Dialect3.
func WithDialect(dialect fbvalue.Dialect) Option {
	return func(c *config) { c.dialect = dialect }
}

// WithMetrics attaches a Metrics collector that the Connection updates
// as it prepares, executes, commits and evicts.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

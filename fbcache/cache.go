// Package fbcache implements the prepared-statement LRU cache used by
// package fbcore to avoid re-preparing identical SQL text against the
// same connection. Unlike a typical read-through cache, Get loans an
// entry out of the cache entirely: callers are expected to either use
// the statement and Put it back, or drop it themselves. This matches
// the "currently loaded" handle-state arena in fbcore, which needs
// exclusive ownership of a statement handle while it is in use.
package fbcache

import (
	"container/list"
	"context"
	"log/slog"

	"github.com/fbxdb/firebird/fbvalue"
)

// Dropper releases a statement handle that has been evicted from the
// cache. Implementations are expected to drop (not merely close) the
// handle, since the cache is giving up any hold on it permanently.
type Dropper[H any] interface {
	DropStmt(ctx context.Context, stmtHandle H) error
}

// Entry is one cached prepared statement.
type Entry[H any] struct {
	SQL    string
	Handle H
	Kind   fbvalue.StmtKind
}

// Cache is a generic, string-keyed LRU cache of prepared statement
// handles. It is not safe for concurrent use; callers needing
// concurrent access must serialize it themselves (the owning
// Connection in fbcore already does, since a connection handles one
// statement at a time).
type Cache[H any] struct {
	capacity int
	drop     Dropper[H]
	log      *slog.Logger

	ll    *list.List
	items map[string]*list.Element
}

// New builds a Cache with the given capacity. drop is invoked (with a
// background context) whenever Put evicts the least-recently-used entry
// to make room for a new one; a nil drop silently discards the evicted
// handle. Capacity 0 disables caching: Put immediately drops whatever
// it is given and Get always misses. A negative capacity is treated as
// 0.
func New[H any](capacity int, drop Dropper[H], log *slog.Logger) *Cache[H] {
	if capacity < 0 {
		capacity = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache[H]{
		capacity: capacity,
		drop:     drop,
		log:      log,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get removes and returns the cached entry for sql, if present. A
// returned entry is no longer tracked by the cache: the caller owns it
// until it calls Put to return it, or drops it directly.
func (c *Cache[H]) Get(sql string) (Entry[H], bool) {
	elem, ok := c.items[sql]
	if !ok {
		return Entry[H]{}, false
	}
	c.ll.Remove(elem)
	delete(c.items, sql)
	return elem.Value.(Entry[H]), true
}

// Put inserts entry into the cache as the most-recently-used item. If
// the cache is at capacity, the least-recently-used entry is evicted
// and dropped via Dropper before the new entry is inserted. A sql
// already present is overwritten; the stale handle is dropped the same
// way an eviction would be.
func (c *Cache[H]) Put(entry Entry[H]) {
	if c.capacity == 0 {
		c.dropHandle(entry)
		return
	}

	if old, ok := c.items[entry.SQL]; ok {
		c.ll.Remove(old)
		delete(c.items, entry.SQL)
		c.dropHandle(old.Value.(Entry[H]))
	}

	if c.ll.Len() >= c.capacity {
		c.evictLRU()
	}

	elem := c.ll.PushFront(entry)
	c.items[entry.SQL] = elem
}

// Len reports the number of entries currently held by the cache.
func (c *Cache[H]) Len() int {
	return c.ll.Len()
}

// Close drops every entry still held by the cache and empties it. It is
// the caller's responsibility to invoke Close when the owning
// connection is closing, since the cache otherwise has no way to learn
// that its handles are about to become invalid.
func (c *Cache[H]) Close() {
	for elem := c.ll.Front(); elem != nil; elem = elem.Next() {
		c.dropHandle(elem.Value.(Entry[H]))
	}
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

func (c *Cache[H]) evictLRU() {
	elem := c.ll.Back()
	if elem == nil {
		return
	}
	c.ll.Remove(elem)
	entry := elem.Value.(Entry[H])
	delete(c.items, entry.SQL)
	c.dropHandle(entry)
}

func (c *Cache[H]) dropHandle(entry Entry[H]) {
	if c.drop == nil {
		return
	}
	if err := c.drop.DropStmt(context.Background(), entry.Handle); err != nil {
		c.log.Warn("statement cache: drop evicted statement failed", "sql", entry.SQL, "error", err)
	}
}

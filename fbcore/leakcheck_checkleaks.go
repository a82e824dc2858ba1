//go:build fbcore_checkleaks

package fbcore

import (
	"context"
	"runtime"
)

// registerLeakCheck attaches a finalizer that runs the handle-state
// core's implicit-drop teardown (detachOnDrop) if a Connection is
// collected without Close having run, and logs a Warn when it had to.
// This build tag is for test/debug use only, never production: relying
// on a finalizer to reach the server is a last resort, not the primary
// teardown path (that is Connection.Close).
func registerLeakCheck(c *Connection) {
	runtime.SetFinalizer(c, func(leaked *Connection) {
		if leaked.hs.attached {
			leaked.log.Warn("connection garbage collected without Close", "dialect", leaked.dialect)
			leaked.hs.detachOnDrop(context.Background())
		}
	})
}

func clearLeakCheck(c *Connection) {
	runtime.SetFinalizer(c, nil)
}

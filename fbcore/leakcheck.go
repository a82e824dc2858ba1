//go:build !fbcore_checkleaks

package fbcore

// registerLeakCheck is a no-op in production builds. Build with
// -tags fbcore_checkleaks to enable a finalizer that logs a warning
// when a Connection is garbage collected without Close having run.
func registerLeakCheck(c *Connection) {}

func clearLeakCheck(c *Connection) {}

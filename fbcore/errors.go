package fbcore

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into the small, open-ended taxonomy the
// session engine distinguishes. Kinds are deliberately few: one Other
// is preferable to twenty rarely-matched kinds.
type Kind int

const (
	// Other is the catch-all for conditions that don't fit a more
	// specific kind.
	Other Kind = iota
	// ConnectionFailure covers attach/detach/authentication failures.
	ConnectionFailure
	// StatementPrepareFailure covers SQL rejected by the server
	// (syntax, planner).
	StatementPrepareFailure
	// ExecutionFailure covers constraint violations, type mismatches,
	// divide-by-zero, and similar runtime failures of a statement.
	ExecutionFailure
	// FetchFailure covers a runtime error during row materialization.
	FetchFailure
	// ConversionFailure covers a column value that cannot be converted
	// to the requested host type (e.g. NULL into a non-optional int).
	ConversionFailure
	// ProtocolFailure covers driver-internal errors: wire decode,
	// handle mismatch.
	ProtocolFailure
)

func (k Kind) String() string {
	switch k {
	case ConnectionFailure:
		return "connection_failure"
	case StatementPrepareFailure:
		return "statement_prepare_failure"
	case ExecutionFailure:
		return "execution_failure"
	case FetchFailure:
		return "fetch_failure"
	case ConversionFailure:
		return "conversion_failure"
	case ProtocolFailure:
		return "protocol_failure"
	default:
		return "other"
	}
}

// Error is the single error type this package returns. Code carries a
// driver-reported SQLSTATE-equivalent when one is available; Cause
// carries the wrapped underlying error, if any.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("fbcore: %s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("fbcore: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is against the sentinel errors below: two *Error
// values (or an *Error and a sentinel) match if they share a Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// newError wraps cause at the point of a failed operation. kind is
// only a default: driver errors bubble up verbatim per spec §7, so if
// cause is already a *Error (i.e. it came from a lower layer that
// already classified it, such as the driver itself), its Kind is
// preserved instead of being overwritten by the call site's default.
func newError(kind Kind, cause error, format string, args ...any) *Error {
	var existing *Error
	if errors.As(cause, &existing) {
		kind = existing.Kind
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinel errors for the conditions named in spec §8, matched via
// errors.Is.
var (
	// ErrNotAttached is returned when a SQL op is attempted while no
	// DB handle is attached.
	ErrNotAttached = &Error{Kind: ConnectionFailure, Message: "not attached to a database"}
	// ErrAlreadyAttached is returned by attach when a DB handle is
	// already held.
	ErrAlreadyAttached = &Error{Kind: ConnectionFailure, Message: "already attached to a database"}
	// ErrNoTransaction is returned when a statement op is attempted
	// without an active transaction.
	ErrNoTransaction = &Error{Kind: ExecutionFailure, Message: "no transaction"}
	// ErrTransactionInUse is returned by begin_tx when a transaction
	// handle is already held.
	ErrTransactionInUse = &Error{Kind: ExecutionFailure, Message: "transaction already active"}
	// ErrStatementClosed is returned when an operation is attempted
	// against a statement that has already been freed.
	ErrStatementClosed = &Error{Kind: ProtocolFailure, Message: "statement already closed"}
)

package cerr

import (
	"errors"
	"fmt"
)

// Kind classifies a migration fault. The kind determines how the
// orchestrator reacts to a failure: connection and query faults abort
// the enclosing action, while the remaining kinds are contained to the
// migration job which raised them.
type Kind string

// The migration fault taxonomy.
const (
	// KindConnection covers network, authentication, and protocol
	// errors raised while connecting to either server.
	KindConnection Kind = "connection"
	// KindQuery covers catalog query failures.
	KindQuery Kind = "query"
	// KindCreate covers destination provisioning failures.
	KindCreate Kind = "create"
	// KindExport covers non-zero pg_dump exits.
	KindExport Kind = "export"
	// KindImport covers non-zero psql exits.
	KindImport Kind = "import"
	// KindAlreadyExists is a policy-level refusal to overwrite an
	// existing destination database, not a technical fault.
	KindAlreadyExists Kind = "already-exists"
)

// Error wraps an underlying error with its migration fault kind.
// The wrapped error keeps the driver's or utility's diagnostic text
// verbatim, so operators can diagnose failures without internal logs.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

// Is matches two *Error instances by their kind alone, so
// errors.Is(err, cerr.AlreadyExists(nil)) can classify a fault without
// caring about the wrapped diagnostic.
func (e *Error) Is(target error) bool {
	var te *Error
	if !errors.As(target, &te) {
		return false
	}
	return e.Kind == te.Kind
}

// Connection wraps err as a connection fault.
func Connection(err error) *Error {
	return &Error{Kind: KindConnection, Err: err}
}

// Query wraps err as a catalog query fault.
func Query(err error) *Error {
	return &Error{Kind: KindQuery, Err: err}
}

// Create wraps err as a destination provisioning fault.
func Create(err error) *Error {
	return &Error{Kind: KindCreate, Err: err}
}

// Export wraps err as an export utility fault.
func Export(err error) *Error {
	return &Error{Kind: KindExport, Err: err}
}

// Import wraps err as a restore utility fault.
func Import(err error) *Error {
	return &Error{Kind: KindImport, Err: err}
}

// AlreadyExists wraps err as a refusal to overwrite an existing
// destination database.
func AlreadyExists(err error) *Error {
	return &Error{Kind: KindAlreadyExists, Err: err}
}

// KindOf extracts the fault kind of err, unwrapping as needed.
// The second return value reports whether a kind was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Package plmerr implements Implexa's unified error taxonomy.
// Entity Managers return only Storage or NotFound; the Lifecycle Engine
// may return any Kind; the Command Boundary maps a plmerr.Error to a
// {code, message} response and never leaks internals past that boundary.
package plmerr

import (
	"errors"
	"fmt"
)

// Kind is the top-level error taxonomy.
type Kind string

const (
	KindStorage      Kind = "Storage"
	KindBackend      Kind = "Backend"
	KindConflict     Kind = "Conflict"
	KindPermission   Kind = "Permission"
	KindState        Kind = "State"
	KindNotFound     Kind = "NotFound"
	KindIntegrity    Kind = "Integrity"
	KindInvalidInput Kind = "InvalidInput"
)

// BackendKind sub-classifies a KindBackend error.
type BackendKind string

const (
	BackendRepository BackendKind = "Repository"
	BackendBranch     BackendKind = "Branch"
	BackendMerge      BackendKind = "Merge"
	BackendLFS        BackendKind = "LFS"
	BackendHook       BackendKind = "Hook"
	BackendAuth       BackendKind = "Auth"
	BackendIO         BackendKind = "IO"
)

// Error is the unified error type carrying variant-specific context.
type Error struct {
	Kind Kind

	// Backend-specific context.
	BackendKind BackendKind
	Operation   string
	Ref         string

	// Conflict-specific context: paths that collided during a merge.
	ConflictPaths []string

	// Integrity/Backend: repository mutations already performed before
	// this error was raised, reported so the caller can decide whether
	// to reuse or discard them.
	PerformedMutations []string

	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match two *Error values by Kind alone, so a
// sentinel like `&Error{Kind: KindNotFound}` matches any NotFound.
// Most callers use the package-level Is/KindOf helpers instead.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and the
// zero Kind otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Fatal reports whether this error kind opens a diagnostic path rather
// than being directly user-recoverable.
func (e *Error) Fatal() bool { return e.Kind == KindIntegrity }

// Retryable reports whether this error kind may succeed if retried
// unchanged; true only for Backend errors representing transient IO.
func (e *Error) Retryable() bool {
	return e.Kind == KindBackend && e.BackendKind == BackendIO
}

func newErr(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}

// NotFound builds a KindNotFound error for the given entity/key.
func NotFound(entity, key string) *Error {
	return newErr(KindNotFound, fmt.Sprintf("%s not found: %s", entity, key), nil)
}

// Storage wraps a low-level database error.
func Storage(context string, err error) *Error {
	return newErr(KindStorage, fmt.Sprintf("storage error (%s): %v", context, err), err)
}

// Permission builds a KindPermission error describing the denied action.
func Permission(action, reason string) *Error {
	return newErr(KindPermission, fmt.Sprintf("permission denied for %s: %s", action, reason), nil)
}

// State builds a KindState error describing the illegal transition.
func State(msg string) *Error {
	return newErr(KindState, msg, nil)
}

// InvalidInput builds a KindInvalidInput error from command-boundary
// validation.
func InvalidInput(field, reason string) *Error {
	return newErr(KindInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason), nil)
}

// Integrity builds a KindIntegrity error for a cross-store invariant
// violation. Callers are expected to also record this via
// internal/diagnostics.
func Integrity(msg string) *Error {
	return newErr(KindIntegrity, msg, nil)
}

// Conflict builds a KindConflict error carrying the colliding paths.
func Conflict(op string, paths []string) *Error {
	return &Error{
		Kind:          KindConflict,
		Operation:     op,
		ConflictPaths: paths,
		Message:       fmt.Sprintf("merge conflict in %s across %d path(s)", op, len(paths)),
	}
}

// Backend builds a KindBackend error with sub-kind context.
func Backend(kind BackendKind, operation, ref string, err error) *Error {
	return &Error{
		Kind:        KindBackend,
		BackendKind: kind,
		Operation:   operation,
		Ref:         ref,
		Message:     fmt.Sprintf("git backend error during %s (%s) ref=%q: %v", operation, kind, ref, err),
		Err:         err,
	}
}

// WithPerformedMutations attaches a record of repository mutations that
// already happened before this error was raised.
func (e *Error) WithPerformedMutations(m ...string) *Error {
	e.PerformedMutations = append(e.PerformedMutations, m...)
	return e
}

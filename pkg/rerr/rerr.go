// Package rerr defines the error-kind taxonomy shared across resonantdb.
//
// Every public operation that can fail returns an error wrapping one of the
// sentinel Kind values below, so callers can classify failures with
// errors.Is/errors.As without depending on string matching.
package rerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the RPC boundary needs to report it.
type Kind string

const (
	ParseError          Kind = "parse_error"
	InvalidRequest      Kind = "invalid_request"
	InvalidParams       Kind = "invalid_params"
	NotFound            Kind = "not_found"
	Conflict            Kind = "conflict"
	EmbedderUnavailable Kind = "embedder_unavailable"
	IndexInconsistency  Kind = "index_inconsistency"
	StorageIO           Kind = "storage_io"
	Cancelled           Kind = "cancelled"
	Internal            Kind = "internal"
)

// sentinels, usable directly with errors.Is when no extra context is needed.
var (
	ErrNotFound            = &Error{Kind: NotFound, Message: "not found"}
	ErrConflict            = &Error{Kind: Conflict, Message: "writer lock held by another process"}
	ErrEmbedderUnavailable = &Error{Kind: EmbedderUnavailable, Message: "no embedder configured"}
	ErrCancelled           = &Error{Kind: Cancelled, Message: "operation cancelled"}
)

// Error is the concrete error type carried through the system. It pairs a
// Kind (the taxonomy in §7) with a human message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, rerr.ErrNotFound) match any *Error with the same Kind,
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to Internal when err does
// not wrap an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if err == nil {
		return ""
	}
	return Internal
}

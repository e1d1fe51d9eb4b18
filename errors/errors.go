// Package errors provides error handling for pgagent-yaml.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints (printed by the CLI under the error message)
//
// Usage:
//
//	// Wrap with context
//	if err := store.Fetch(ctx, query); err != nil {
//	    return errors.Wrap(err, "failed to fetch jobs")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "use --ignore-version")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors. Match them with errors.Is; wrap them with Wrapf/Mark to add context.
var (
	// ErrUnsupportedCode is a raw enum code read from the server that has no canonical mapping
	ErrUnsupportedCode = New("unsupported server code")

	// ErrDuplicateName is two names that collide after trimming and case-folding
	ErrDuplicateName = New("duplicate name")

	// ErrInvalidDocument is a job document that cannot be interpreted
	ErrInvalidDocument = New("invalid document")

	// ErrUnsupportedLiteral is a value the statement builder cannot quote
	ErrUnsupportedLiteral = New("unsupported literal type")

	// ErrUnresolvedReference is a by-name reference the statement builder cannot express
	ErrUnresolvedReference = New("unresolved name reference")

	// ErrUnsupportedVersion is a pgagent extension outside the supported range
	ErrUnsupportedVersion = New("unsupported pgagent version")

	// ErrDeclined is returned when the operator declines the confirmation prompt
	ErrDeclined = New("declined by operator")
)

// Hint returns the flattened user-facing hints attached to err, or "" if none.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	return FlattenHints(err)
}

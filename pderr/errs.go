// Package pderr defines the error taxonomy shared by every Playdate asset
// parser: a small set of Kinds, a single concrete Error type carrying enough
// context to print "<format>: <phase> at offset <n>: <msg>", and thin
// wrappers around github.com/pkg/errors for stack-aware propagation.
package pderr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a parser gave up.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadMagic
	KindShortRead
	KindBadFormat
	KindSizeMismatch
	KindInflateFailed
	KindUnsupportedFeature
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadMagic:
		return "BadMagic"
	case KindShortRead:
		return "ShortRead"
	case KindBadFormat:
		return "BadFormat"
	case KindSizeMismatch:
		return "SizeMismatch"
	case KindInflateFailed:
		return "InflateFailed"
	case KindUnsupportedFeature:
		return "UnsupportedFeature"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the single error type surfaced by every parser in this module.
type Error struct {
	Kind   Kind
	Format string // e.g. "IMG", "PDZ"
	Phase  string // e.g. "header", "body", "decompress", "codec"
	Offset int64
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: %s at offset %d: %s", e.Format, e.Phase, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Format, e.Phase, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a fresh *Error with a stack attached via pkg/errors, matching
// the teacher's errs.New/errs.Wrapf split between bare construction and
// wrapping an existing cause.
func New(kind Kind, format, phase string, offset int64, msg string) error {
	return errors.WithStack(&Error{
		Kind:   kind,
		Format: format,
		Phase:  phase,
		Offset: offset,
		Msg:    msg,
	})
}

// Newf is New with fmt.Sprintf-style formatting of msg.
func Newf(kind Kind, format, phase string, offset int64, msgFmt string, args ...interface{}) error {
	return New(kind, format, phase, offset, fmt.Sprintf(msgFmt, args...))
}

// Wrap attaches format/phase/offset context to an existing cause, preserving
// it for errors.Is/errors.As and for pkg/errors stack formatting.
func Wrap(cause error, kind Kind, format, phase string, offset int64, msg string) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&Error{
		Kind:   kind,
		Format: format,
		Phase:  phase,
		Offset: offset,
		Msg:    msg,
		Cause:  cause,
	})
}

// KindOf extracts the Kind of err, or KindUnknown if err is not (or does not
// wrap) a *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

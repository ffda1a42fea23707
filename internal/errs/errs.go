// Package errs provides the structured error type shared by agentq packages.
//
// Every failure that crosses a package boundary carries a Kind so the CLI can
// decide how to report it: IO and Parse failures on the history file abort the
// command, Parse failures in a single template are turned into score issues,
// and Validation failures carry the full list of failing conditions.
package errs

import (
	stderrs "errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies an error.
type Kind uint8

const (
	// KindUnknown is for unclassified errors.
	KindUnknown Kind = iota

	// KindIO is for files that are missing, unreadable or unwritable.
	KindIO

	// KindNotFound is for documents or records that do not exist.
	KindNotFound

	// KindParse is for malformed frontmatter, policy or history JSON.
	KindParse

	// KindValidation is for gate checks below configured thresholds.
	KindValidation
)

// String returns the kind's display name.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindNotFound:
		return "NotFound"
	case KindParse:
		return "ParseError"
	case KindValidation:
		return "ValidationError"
	default:
		return "Error"
	}
}

// Error is the structured error type.
// msg is human facing; op names the operation; path is the file involved.
// Failures is only populated for validation errors.
type Error struct {
	orig     error
	msg      string
	kind     Kind
	op       string
	path     string
	Failures []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.op != "" {
		b.WriteString(e.op)
		b.WriteString(": ")
	}
	b.WriteString(e.msg)
	if e.path != "" {
		b.WriteString(" ")
		b.WriteString(e.path)
	}
	if e.orig != nil {
		b.WriteString(": ")
		b.WriteString(e.orig.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error, if any.
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind.
func (e *Error) Kind() Kind { return e.kind }

// Op returns the operation label, if set.
func (e *Error) Op() string { return e.op }

// Path returns the file path, if set.
func (e *Error) Path() string { return e.path }

// As unwraps and returns (*Error, true) if err is one of ours.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts the Kind from any error, defaulting to KindUnknown.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// WithOp attaches an operation label (copy-on-write). Foreign errors are returned unchanged.
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// IO wraps an I/O failure on path.
func IO(orig error, msg, path string) error {
	return &Error{kind: KindIO, msg: msg, path: path, orig: orig}
}

// Parse wraps a decoding failure on path.
func Parse(orig error, msg, path string) error {
	return &Error{kind: KindParse, msg: msg, path: path, orig: orig}
}

// NotFound returns a not-found error for path.
func NotFound(msg, path string) error {
	return &Error{kind: KindNotFound, msg: msg, path: path}
}

// Newf returns a new error with kind and formatted message.
func Newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Validation returns an error listing every failing condition, or nil when
// failures is empty.
func Validation(msg string, failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	return &Error{kind: KindValidation, msg: fmt.Sprintf("%s (%d failing)", msg, len(failures)), Failures: failures}
}

// FromFS maps an os/fs error on path to KindNotFound or KindIO.
func FromFS(orig error, msg, path string) error {
	if orig == nil {
		return nil
	}
	if stderrs.Is(orig, fs.ErrNotExist) {
		return &Error{kind: KindNotFound, msg: msg, path: path, orig: orig}
	}
	return IO(orig, msg, path)
}

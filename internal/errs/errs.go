// Package errs defines the error kinds raised by the generation pipeline.
//
// Every failure carries a Kind so callers can tell run-fatal manifest errors
// apart from component-local resolution, render and filesystem errors
// without matching on message text.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindManifestValidation  Kind = "ManifestValidationError"
	KindTemplateNotFound    Kind = "TemplateNotFoundError"
	KindTemplateConflict    Kind = "TemplateConflictError"
	KindRender              Kind = "RenderError"
	KindDestinationConflict Kind = "DestinationConflictError"
	KindFilesystemWrite     Kind = "FilesystemWriteError"
	KindDependencyFailed    Kind = "DependencyFailedError"
	KindCanceled            Kind = "Canceled"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind Kind   // failure classification
	Op   string // operation that failed, e.g. "registry.Resolve"
	Msg  string // human-readable message
	Err  error  // underlying error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		if e.Msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or "" when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if err != nil && errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind anywhere in its tree,
// including errors combined with errors.Join.
func Is(err error, kind Kind) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *Error:
		return x.Kind == kind || Is(x.Err, kind)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if Is(e, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), kind)
	}
	return false
}

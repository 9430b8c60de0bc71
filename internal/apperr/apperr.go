// Package apperr classifies the failures surfaced to users into a small set
// of kinds. Handlers switch on the kind to pick a notice or status code;
// the wrapped cause keeps its eris stack for logs and error reports.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

// Kind is the category of a user-facing failure.
type Kind uint8

const (
	Unknown Kind = iota
	NotFound
	StoreUnavailable
	UploadFailed
	AuthFailed
	ConfigMissing
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case StoreUnavailable:
		return "store_unavailable"
	case UploadFailed:
		return "upload_failed"
	case AuthFailed:
		return "auth_failed"
	case ConfigMissing:
		return "config_missing"
	case ValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a kind to the status code used by JSON and page handlers.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	case UploadFailed:
		return http.StatusBadGateway
	case AuthFailed:
		return http.StatusUnauthorized
	case ValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Op names the operation ("blog.CreatePost"),
// Msg is safe to show to the user.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil && e.Err.Error() != e.Msg {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error with no underlying cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: eris.New(msg)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: eris.Wrap(err, op)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Unknown
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message for err, falling back to a
// generic text for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Something went wrong. Please try again."
}

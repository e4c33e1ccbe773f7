// Package apperrors classifies failures so callers get a stable friendly message
// while the wrapped cause stays available to the server-side log.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the category of a failure.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindDirectory    Kind = "DIRECTORY_ERROR"
	KindStorage      Kind = "STORAGE_ERROR"
	KindTransaction  Kind = "TRANSACTION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindUpstream     Kind = "UPSTREAM_ERROR"
	KindInternal     Kind = "INTERNAL_ERROR"
)

var friendly = map[Kind]string{
	KindValidation:   "The request was not valid.",
	KindNotFound:     "The requested item could not be found.",
	KindDirectory:    "The directory service could not be reached. Please try again later.",
	KindStorage:      "The data store could not complete the request. Please try again later.",
	KindTransaction:  "The changes could not be saved. No changes were made.",
	KindUnauthorized: "Authentication is required.",
	KindForbidden:    "You do not have permission to perform this action.",
	KindUpstream:     "A dependent service could not complete the request. Please try again later.",
	KindInternal:     "An unexpected error occurred.",
}

var statuses = map[Kind]int{
	KindValidation:   http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindDirectory:    http.StatusBadGateway,
	KindStorage:      http.StatusInternalServerError,
	KindTransaction:  http.StatusInternalServerError,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindUpstream:     http.StatusBadGateway,
	KindInternal:     http.StatusInternalServerError,
}

// Error is a classified failure.
//
// Message is safe to show to a caller only for the Validation and NotFound kinds;
// for every other kind callers receive the generic friendly text of the kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind with no other
// fields set, so errors.Is(err, apperrors.ErrNotFound) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrDirectory    = &Error{Kind: KindDirectory}
	ErrStorage      = &Error{Kind: KindStorage}
	ErrTransaction  = &Error{Kind: KindTransaction}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrUpstream     = &Error{Kind: KindUpstream}
)

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func NotFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func Directory(op string, err error) error {
	return &Error{Kind: KindDirectory, Op: op, Err: err}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

func Unauthorized(op, msg string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: msg}
}

func Forbidden(op, msg string) error {
	return &Error{Kind: KindForbidden, Op: op, Message: msg}
}

func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// Transaction wraps a failure raised inside a transaction. NotFound and
// Validation failures keep their kind so the caller still sees a 404 or 400.
func Transaction(op string, err error) error {
	switch KindOf(err) {
	case KindNotFound, KindValidation:
		return err
	}
	return &Error{Kind: KindTransaction, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain, or
// KindInternal when none is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FriendlyMessage returns the text a caller may see for err.
func FriendlyMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if (e.Kind == KindValidation || e.Kind == KindNotFound || e.Kind == KindForbidden) && e.Message != "" {
			return e.Message
		}
		return friendly[e.Kind]
	}
	return friendly[KindInternal]
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	if status, ok := statuses[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

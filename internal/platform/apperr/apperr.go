package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an application error. Every kind except KindInternal is a
// recoverable outcome the caller can act on.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindSlotAlreadyBooked Kind = "SLOT_ALREADY_BOOKED"
	KindSlotNotRemovable  Kind = "SLOT_NOT_REMOVABLE"
	KindInvalidState      Kind = "INVALID_STATE"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInvalidPromoCode  Kind = "INVALID_PROMO_CODE"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
	KindInternal          Kind = "INTERNAL"
)

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind with the same
// message, so that sentinel errors match their wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return Newf(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return Newf(KindUnauthorized, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return Newf(KindInvalidState, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotAlreadyBooked, KindSlotNotRemovable, KindInvalidState, KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidPromoCode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error payload.
type Body struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ToHTTP converts err to an echo HTTP error. Internal errors are not leaked to
// the client.
func ToHTTP(err error) *echo.HTTPError {
	kind := KindOf(err)
	msg := "internal server error"
	var ae *Error
	if kind != KindInternal && errors.As(err, &ae) {
		msg = ae.Message
	}
	he := echo.NewHTTPError(HTTPStatus(kind), map[string]Body{"error": {Kind: kind, Message: msg}})
	he.Internal = err
	return he
}

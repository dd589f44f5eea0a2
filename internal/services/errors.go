package services

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindValidation
	KindAuth
	KindPaymentRequired
	KindNotFound
	KindConflict
	KindTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindPaymentRequired:
		return "payment_required"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooLarge:
		return "too_large"
	default:
		return "server"
	}
}

// Error is returned by every service operation. Message is safe to show to
// clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err; anything that is not an *Error is a server error.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindServer
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func authError(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

func paymentRequiredError(message string) error {
	return &Error{Kind: KindPaymentRequired, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflictError(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func tooLargeError(message string) error {
	return &Error{Kind: KindTooLarge, Message: message}
}

func serverError(message string, err error) error {
	return &Error{Kind: KindServer, Message: message, Err: err}
}

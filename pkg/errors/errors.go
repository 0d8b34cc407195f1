package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to the status returned to API callers.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrConflict, ErrInvalidTransition:
		return http.StatusConflict
	case ErrDispatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrConflict
	ErrInvalidTransition
	ErrPersistence
	ErrDispatch
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s cannot transition from %q to %q", e.Entity, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

// NewConflict rejects a request that clashes with the current state of a
// record without being a status change.
func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func NewInvalidTransition(entity, from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: "invalid transition",
		Err:     &TransitionError{Entity: entity, From: from, To: to},
	}
}

// NewBlockedTransition rejects an otherwise valid pair because of the
// state of a related record.
func NewBlockedTransition(entity, from, to, reason string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: "invalid transition",
		Err:     &TransitionError{Entity: entity, From: from, To: to, Reason: reason},
	}
}

func NewPersistence(op string, err error) *AppError {
	return &AppError{
		Code:    ErrPersistence,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

func NewDispatch(err error) *AppError {
	return &AppError{
		Code:    ErrDispatch,
		Message: "notification dispatch failed",
		Err:     err,
	}
}

// HasCode reports whether err, or any error it wraps, is an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		return HasCode(appErr.Err, code)
	}
	return false
}

// AsTransition extracts the transition details from err, if any.
func AsTransition(err error) (*TransitionError, bool) {
	var te *TransitionError
	ok := stderrors.As(err, &te)
	return te, ok
}

// Passthrough returns err unchanged when it already carries an application
// code, otherwise wraps it with wrap.
func Passthrough(err error, wrap func(error) *AppError) error {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return wrap(err)
}

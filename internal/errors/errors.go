package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is an error carrying the HTTP status it should be rendered with.
type Error interface {
	error

	Code() int
	Message() string
	Cause() error
}

// DefaultCode is used when no code is given: 500, Internal Server Error.
var DefaultCode = http.StatusInternalServerError

type codedError struct {
	code  int
	msg   string
	cause error
}

func (err *codedError) Error() string {
	if err.cause == nil {
		return err.msg
	}

	return fmt.Sprintf("%s: %v", err.msg, err.cause)
}

func (err *codedError) Code() int       { return err.code }
func (err *codedError) Message() string { return err.msg }
func (err *codedError) Cause() error    { return err.cause }
func (err *codedError) Unwrap() error   { return err.cause }

// Enricher decorates an error. Enrichers never mutate their input.
type Enricher func(error) error

// WithCode sets the status code of err.
func WithCode(code int) Enricher {
	return func(err error) error {
		if err == nil {
			return nil
		}

		if ce, ok := err.(*codedError); ok {
			cp := *ce
			cp.code = code
			return &cp
		}

		return &codedError{msg: err.Error(), code: code, cause: stderrors.Unwrap(err)}
	}
}

// WithCause attaches cause to err. A plain err inherits the code of a coded
// cause.
func WithCause(cause error) Enricher {
	return func(err error) error {
		if err == nil {
			return nil
		}

		if ce, ok := err.(*codedError); ok {
			cp := *ce
			cp.cause = cause
			return &cp
		}

		return &codedError{msg: err.Error(), code: Code(cause), cause: cause}
	}
}

// New builds a coded error, DefaultCode unless an enricher says otherwise.
func New(msg string, fs ...Enricher) error {
	var err error = &codedError{msg: msg, code: DefaultCode}
	for _, f := range fs {
		err = f(err)
	}

	return err
}

// Code returns the status code carried by err or any error it wraps.
func Code(err error) int {
	var e Error
	if stderrors.As(err, &e) {
		return e.Code()
	}

	return DefaultCode
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

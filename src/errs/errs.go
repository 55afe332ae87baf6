package errs

import (
	"errors"
	"fmt"
)

// Code names a failure class that callers can switch on.
type Code string

const (
	CodeInvalidAmount        Code = "INVALID_AMOUNT"
	CodeUnknownSymbol        Code = "UNKNOWN_SYMBOL"
	CodeInvalidOrderType     Code = "INVALID_ORDER_TYPE"
	CodeInvalidOrderSide     Code = "INVALID_ORDER_SIDE"
	CodePersistenceFailure   Code = "PERSISTENCE_FAILURE"
	CodeNotFound             Code = "NOT_FOUND"
	CodeNoUser               Code = "NO_USER"
	CodeEngineAlreadyRunning Code = "ENGINE_ALREADY_RUNNING"
	CodeEngineNotRunning     Code = "ENGINE_NOT_RUNNING"
	CodeAccountInactive      Code = "ACCOUNT_INACTIVE"
	CodeValidation           Code = "VALIDATION_FAILED"
	CodeUnknown              Code = "UNKNOWN"
)

// Error is a control plane failure scoped to a single operation.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error. err may be nil.
func New(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Persistence wraps a store failure. The caller must not assume the write happened.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Code == CodePersistenceFailure {
		return err
	}
	return New(CodePersistenceFailure, op, err)
}

// coded is implemented by error types outside this package that carry their own code,
// such as risk.ValidationErrors.
type coded interface {
	ErrorCode() Code
}

// CodeOf classifies err. nil yields "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return CodeUnknown
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

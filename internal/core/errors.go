// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Price source errors
	ErrSourceUnavailable = &Error{Code: "SOURCE_UNAVAILABLE", Message: "price provider unavailable"}
	ErrNoData            = &Error{Code: "NO_DATA", Message: "price provider returned no data"}

	// Store errors
	ErrStoreFailed  = &Error{Code: "STORE_FAILED", Message: "persistence operation failed"}
	ErrNoPrice      = &Error{Code: "NO_PRICE", Message: "no price recorded for currency"}
	ErrRuleNotFound = &Error{Code: "RULE_NOT_FOUND", Message: "alert rule not found"}
	ErrUserNotFound = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}

	// Rule validation errors
	ErrUnsupportedCurrency = &Error{Code: "UNSUPPORTED_CURRENCY", Message: "currency not in supported set"}
	ErrInvalidCondition    = &Error{Code: "INVALID_CONDITION", Message: "condition must be > or <"}
	ErrInvalidThreshold    = &Error{Code: "INVALID_THRESHOLD", Message: "threshold price must be positive"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

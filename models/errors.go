package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodePageLoadTimeout = "PAGE_LOAD_TIMEOUT"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeExtraction      = "EXTRACTION_FAILED"
	ErrCodeArithmetic      = "ARITHMETIC_FAILURE"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FareError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type FareError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *FareError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FareError) Unwrap() error {
	return e.Err
}

// NewFareError creates a new FareError.
func NewFareError(code, message string, err error) *FareError {
	return &FareError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *FareError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrorCode returns the code of the first FareError in err's chain,
// or ErrCodeInternal if there is none.
func ErrorCode(err error) string {
	var fe *FareError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrCodeInternal
}

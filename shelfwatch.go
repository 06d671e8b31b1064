// Package shelfwatch tracks marketplace listing state (stock quantity,
// price, discounted price, availability) for a curated list of product
// URLs and reconciles each fetch cycle against an ordered ledger of
// tracked URLs.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/,
// httpapi/, sqlite/, sheets/).
package shelfwatch

import (
	"errors"
	"fmt"
)

// Application error codes. EWRONGURL and EOUTOFSTOCK are terminal fetch
// outcomes and are never retried; EPARSING is retryable up to policy limits.
const (
	EINVALID    = "invalid"
	ENOTFOUND   = "not_found"
	EINTERNAL   = "internal"
	EWRONGURL   = "wrong_url"
	EOUTOFSTOCK = "out_of_stock"
	EPARSING    = "parsing"
)

// Error represents an application error with a machine-readable code.
type Error struct {
	// Code classifies the error for programmatic handling.
	Code string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("shelfwatch error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode returns the code of the root error, if available.
// Returns EINTERNAL for non-application errors and "" for nil.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message of the root error, if available.
// Returns a generic message for non-application errors and "" for nil.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper to construct an Error with formatting.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

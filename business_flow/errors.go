// Package businessflow contains the core business logic and use cases for the directory service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Establishment errors
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrNotPending            = errors.New("establishment is not in a pending state")
	ErrCNPJAlreadyExists     = errors.New("cnpj already registered")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrOwnershipMismatch     = errors.New("email does not match establishment records")
	ErrRequestAlreadyPending = errors.New("establishment already has a pending request")

	// Counter errors
	ErrIdentifierRequired = errors.New("identifier is required")

	// Course errors
	ErrCourseNotFound = errors.New("course not found")

	// User and review errors
	ErrUserNotFound   = errors.New("user not found")
	ErrReviewNotFound = errors.New("review not found")

	// Admin auth errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("invalid captcha")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsEstablishmentNotFound(err error) bool {
	return errors.Is(err, ErrEstablishmentNotFound)
}

func IsNotPending(err error) bool {
	return errors.Is(err, ErrNotPending)
}

func IsCNPJAlreadyExists(err error) bool {
	return errors.Is(err, ErrCNPJAlreadyExists)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsOwnershipMismatch(err error) bool {
	return errors.Is(err, ErrOwnershipMismatch)
}

func IsRequestAlreadyPending(err error) bool {
	return errors.Is(err, ErrRequestAlreadyPending)
}

func IsIdentifierRequired(err error) bool {
	return errors.Is(err, ErrIdentifierRequired)
}

func IsCourseNotFound(err error) bool {
	return errors.Is(err, ErrCourseNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsReviewNotFound(err error) bool {
	return errors.Is(err, ErrReviewNotFound)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

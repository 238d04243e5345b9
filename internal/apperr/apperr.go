// Package apperr описывает таксономию ошибок приложения.
//
// Ошибки сравниваются по виду через errors.Is:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind - вид ошибки.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindConstraint          Kind = "constraint_violation"
	KindNotFound            Kind = "not_found"
	KindPartialRegistration Kind = "partial_registration"
	KindUnauthorized        Kind = "unauthorized"
)

// Error - ошибка приложения с видом, сообщением и исходной причиной.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Сентинелы для errors.Is. Сравнение идёт только по Kind.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrConstraint          = &Error{Kind: KindConstraint}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrPartialRegistration = &Error{Kind: KindPartialRegistration}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по виду.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Validation создаёт ошибку валидации входных данных.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound создаёт ошибку отсутствия записи или файла.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает err с указанным видом.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает вид ошибки или пустую строку для посторонних ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

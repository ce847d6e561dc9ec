package errors

import (
	"fmt"
	"sort"
	"strings"
)

type AuthKind int

const (
	AuthValidationFailed AuthKind = iota
	AuthInvalidCredentials
	AuthServerRejected
)

func (k AuthKind) sentinel() error {
	switch k {
	case AuthValidationFailed:
		return ErrValidationFailed
	case AuthInvalidCredentials:
		return ErrInvalidCredentials
	default:
		return ErrServerRejected
	}
}

// AuthError is returned by register and login. It is built once, at the
// transport boundary, from the backend response.
type AuthError struct {
	Kind AuthKind
	// Message is display-ready.
	Message string
	// FieldMessages is only set for AuthValidationFailed.
	FieldMessages map[string][]string
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.FieldMessages) > 0 {
		fields := make([]string, 0, len(e.FieldMessages))
		for field := range e.FieldMessages {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(&b, " [%s: %s]", field, strings.Join(e.FieldMessages[field], "; "))
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	return b.String()
}

func (e *AuthError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func ValidationFailed(message string, fields map[string][]string) *AuthError {
	return &AuthError{Kind: AuthValidationFailed, Message: message, FieldMessages: fields}
}

func InvalidCredentials(message string) *AuthError {
	return &AuthError{Kind: AuthInvalidCredentials, Message: message}
}

func ServerRejected(message string, statusCode int, err error) *AuthError {
	return &AuthError{Kind: AuthServerRejected, Message: message, StatusCode: statusCode, Err: err}
}

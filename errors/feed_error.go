package errors

import (
	stderrors "errors"
	"fmt"
)

type FeedKind int

const (
	// FeedUnauthorized means the credential was rejected. Only the sync
	// controller acts on it.
	FeedUnauthorized FeedKind = iota
	// FeedTransient covers network failures, timeouts and 5xx. Retriable.
	FeedTransient
	// FeedMalformed means a success payload did not decode into valid data.
	FeedMalformed
	// FeedRejected covers any other 4xx. Not retriable as is.
	FeedRejected
)

func (k FeedKind) sentinel() error {
	switch k {
	case FeedUnauthorized:
		return ErrUnauthorized
	case FeedTransient:
		return ErrTransient
	case FeedMalformed:
		return ErrMalformed
	default:
		return ErrRejected
	}
}

func (k FeedKind) String() string {
	return k.sentinel().Error()
}

type FeedError struct {
	Kind       FeedKind
	Message    string
	StatusCode int
	Err        error
}

func (e *FeedError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *FeedError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

func Unauthorized(message string) *FeedError {
	return &FeedError{Kind: FeedUnauthorized, Message: message, StatusCode: 401}
}

func Transient(message string, statusCode int, err error) *FeedError {
	return &FeedError{Kind: FeedTransient, Message: message, StatusCode: statusCode, Err: err}
}

func Malformed(message string, err error) *FeedError {
	return &FeedError{Kind: FeedMalformed, Message: message, Err: err}
}

func Rejected(message string, statusCode int) *FeedError {
	return &FeedError{Kind: FeedRejected, Message: message, StatusCode: statusCode}
}

// IsUnauthorized reports whether err carries a rejected credential.
func IsUnauthorized(err error) bool {
	return stderrors.Is(err, ErrUnauthorized)
}

package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrBusy               = fmt.Errorf("operation already in flight")
	ErrEmptyMessage       = fmt.Errorf("message text is empty")
	ErrMessageTooLong     = fmt.Errorf("message text exceeds 1000 characters")
	ErrInvalidWindow      = fmt.Errorf("invalid pagination window")
	ErrIncompleteCred     = fmt.Errorf("credential must carry both token and display name")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrValidationFailed   = fmt.Errorf("validation failed")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrServerRejected     = fmt.Errorf("server rejected the request")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrTransient          = fmt.Errorf("transient failure")
	ErrMalformed          = fmt.Errorf("malformed response")
	ErrRejected           = fmt.Errorf("request rejected")
)

package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidRequest     = fmt.Errorf("invalid request")
	ErrInvalidPassword    = fmt.Errorf("password must be between 6 and 72 characters")
	ErrReservedNickname   = fmt.Errorf("nickname is reserved")
	ErrNicknameTaken      = fmt.Errorf("nickname already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnauthenticated    = fmt.Errorf("not authenticated")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidHash        = fmt.Errorf("invalid hash format")

	ErrAccountNotFound = fmt.Errorf("account not found")
	ErrNotRegistered   = fmt.Errorf("nickname is not registered")
	ErrNicknameInUse   = fmt.Errorf("nickname already taken by an active user")
	ErrAlreadyJoined   = fmt.Errorf("connection already joined with another nickname")

	ErrProviderFailure       = fmt.Errorf("provider failure")
	ErrProviderNotConfigured = fmt.Errorf("provider not configured")

	ErrStorage        = fmt.Errorf("storage unavailable")
	ErrSendBufferFull = fmt.Errorf("send buffer full")
	ErrSinkClosed     = fmt.Errorf("sink closed")
	ErrUnknownEvent   = fmt.Errorf("unknown event")
	ErrRateLimited    = fmt.Errorf("sending too fast, message discarded")
	ErrServerClosed   = fmt.Errorf("server closed")
)

package apperr

import "errors"

// Sentinel errors shared by services and mapped to HTTP status codes in
// the handlers. Services wrap these with fmt.Errorf("...: %w", ...) so
// callers can use errors.Is while keeping context in the message.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidAward = errors.New("invalid award amount")
	ErrNoHabits     = errors.New("no habits found to analyze")

	// ErrRemoteUnavailable never reaches a handler: the coach service
	// recovers it with the local generator. It exists so the remote
	// path has a single failure type to log.
	ErrRemoteUnavailable = errors.New("remote model unavailable")
)

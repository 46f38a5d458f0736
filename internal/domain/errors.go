package domain

import "errors"

var (
	// ErrNoContent is returned when the question source has nothing to ask.
	ErrNoContent = errors.New("no vocabulary available")
	// ErrSourceUnavailable wraps failures to reach the question source.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrSubmitTransport is returned when the result sink could not be reached or its reply could not be read.
	ErrSubmitTransport = errors.New("result submission failed")
	// ErrNoRedirect is returned when the result sink accepted the answers but gave nowhere to go.
	ErrNoRedirect = errors.New("result sink returned no redirect")
	// ErrSessionNotFound is returned when a quiz session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotActive is returned for answers sent outside the active phase.
	ErrSessionNotActive = errors.New("quiz session not active")
	// ErrAlreadyStarted is returned when a session is started twice.
	ErrAlreadyStarted = errors.New("quiz session already started")
)

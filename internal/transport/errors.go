package transport

import "fmt"

// MaxSessionIDLength bounds accepted session ids. Longer ids are rejected
// before any map lookup happens.
const MaxSessionIDLength = 256

// SessionNotFoundError is returned when a caller references a session id
// this transport does not know. It is a client error, never an invitation
// to create the session.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// InvalidSessionIDError is returned when a session id fails validation.
type InvalidSessionIDError struct {
	Reason string
}

func (e *InvalidSessionIDError) Error() string {
	return fmt.Sprintf("invalid session ID: %s", e.Reason)
}

// ValidateSessionID rejects empty and excessively long session ids.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return &InvalidSessionIDError{Reason: "session ID cannot be empty"}
	}
	if len(sessionID) > MaxSessionIDLength {
		return &InvalidSessionIDError{Reason: fmt.Sprintf("session ID exceeds maximum length of %d", MaxSessionIDLength)}
	}
	return nil
}

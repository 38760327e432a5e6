package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedMedia rejects uploads whose MIME type is not image/*.
	ErrUnsupportedMedia = errors.New("please upload a valid image file (JPEG or PNG)")
	// ErrEmptySelection rejects a generation that would change nothing.
	ErrEmptySelection = errors.New("please select a paint color, hardware style, sheen, or add instructions")
	// ErrUnlockRequired means the free generations are used up and an email unlock is needed.
	ErrUnlockRequired = errors.New("free generations used up: unlock with an email address to continue")
	// ErrBusy is returned when a request is already in flight. Requests are never queued.
	ErrBusy = errors.New("another request is already in progress")
	// ErrNoImage is returned when generation is requested before a photo was analysed.
	ErrNoImage = errors.New("no kitchen photo uploaded")
	// ErrSessionReset is returned when the session was reset or replaced while a call was in flight.
	ErrSessionReset = errors.New("session was reset while the request was in flight")
)

// ValidationError is a local input failure. No collaborator was called and the state is unchanged.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// NotAKitchenError is returned when the analysis collaborator does not recognise a kitchen.
type NotAKitchenError struct {
	Reasoning string
}

func (e *NotAKitchenError) Error() string {
	msg := "this photo does not look like a kitchen with visible cabinets"
	if e.Reasoning != "" {
		msg += ": " + e.Reasoning
	}
	return msg
}

// ServiceError wraps a collaborator failure (transport, credentials, safety filtering, timeout).
type ServiceError struct {
	Op  string // "analysis" or "generation"
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// AccessDenied reports whether the failure looks like a credentials or permission problem.
func (e *ServiceError) AccessDenied() bool {
	msg := e.Err.Error()
	return strings.Contains(msg, "entity was not found") ||
		strings.Contains(msg, "API key") ||
		strings.Contains(msg, "permission")
}

// UserMessage is the human-readable text shown for the error.
func (e *ServiceError) UserMessage() string {
	switch {
	case e.Op == opAnalysis:
		return "Analysis Failed: " + e.Err.Error()
	case e.AccessDenied():
		return "AI Engine Access Denied: check that the image engine API key is configured and has access to the model."
	default:
		return "Design Engine Error: " + e.Err.Error()
	}
}

// Describe converts any controller error to the text shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc.UserMessage()
	}
	return err.Error()
}

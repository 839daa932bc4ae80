package story

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// AuthError indicates the remote rejected the stored credential.
// Callers can use errors.As to detect this error type; the app reacts by
// clearing the persisted credential and returning to onboarding.
type AuthError struct {
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return "API credential rejected"
}

// Unwrap returns the underlying remote error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// GenerationError indicates the remote reported a failure unrelated to the
// credential. Message carries the remote's own wording so the user sees
// exactly what the service said.
type GenerationError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return e.Message
}

// Unwrap returns the underlying remote error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ValidationError indicates input was rejected before any remote call.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// Messages Gemini pairs with ambiguous HTTP codes when the real problem
// is the credential. A bad key comes back as 400 INVALID_ARGUMENT and an
// unknown key as 404, so the status alone cannot distinguish them from
// ordinary request failures.
const (
	msgInvalidKey     = "API key not valid"
	msgEntityNotFound = "Requested entity was not found"
)

// classifyRemoteError maps a remote failure onto the app's error taxonomy.
// Structured API errors are inspected first; the message text is only
// consulted for codes Gemini overloads.
func classifyRemoteError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED":
			return &AuthError{Err: err}
		case apiErr.Code == 401 || apiErr.Code == 403:
			return &AuthError{Err: err}
		case apiErr.Code == 400 && strings.Contains(apiErr.Message, msgInvalidKey):
			return &AuthError{Err: err}
		case apiErr.Code == 404 && strings.Contains(apiErr.Message, msgEntityNotFound):
			return &AuthError{Err: err}
		}
		return &GenerationError{Message: apiErr.Message, Err: err}
	}

	// Transport and other non-structured failures
	msg := err.Error()
	if strings.Contains(msg, msgInvalidKey) || strings.Contains(msg, msgEntityNotFound) {
		return &AuthError{Err: err}
	}
	return &GenerationError{Message: msg, Err: err}
}

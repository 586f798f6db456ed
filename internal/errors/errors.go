// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ErrValidation is returned when a request is missing required fields or
// carries malformed values.
type ErrValidation struct {
	Msg string
}

func (e *ErrValidation) Error() string {
	return e.Msg
}

// ErrAuthentication is returned when the GitHub credential is missing or expired.
type ErrAuthentication struct {
	Msg string
}

func (e *ErrAuthentication) Error() string {
	return e.Msg
}

// ErrRateLimit is returned when the GitHub API quota is exhausted.
type ErrRateLimit struct {
	Msg string
}

func (e *ErrRateLimit) Error() string {
	return e.Msg
}

// ErrNotFound is returned when a row required by an update-only operation does not exist.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ErrGeneration wraps a failure of the generative-text backend, keeping the
// upstream status code and response body for diagnosis.
type ErrGeneration struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrGeneration) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content generation failed: %v", e.Err)
	}
	return fmt.Sprintf("content generation failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *ErrGeneration) Unwrap() error {
	return e.Err
}

// ErrNotification wraps an email-provider failure. It is always swallowed at
// the pipeline boundary and never reaches the HTTP layer.
type ErrNotification struct {
	Code string
	Msg  string
	Err  error
}

func (e *ErrNotification) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("email notification failed (%s): %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("email notification failed: %s", e.Msg)
}

func (e *ErrNotification) Unwrap() error {
	return e.Err
}

// Package generation provides the client for the external generation
// backend: candidate generation and AI inpainting. Failures are classified
// as retryable or terminal, and retryable calls go through an explicit
// bounded backoff policy.
package generation

import (
	"errors"
	"fmt"
)

// FailureKind classifies a gateway failure
type FailureKind string

const (
	// FailureRetryable covers rate limits, transient unavailability and
	// timeouts; the retry policy may attempt the call again.
	FailureRetryable FailureKind = "retryable"

	// FailureTerminal covers invalid input and policy rejections; the call
	// is never retried.
	FailureTerminal FailureKind = "terminal"
)

// Error is a classified gateway failure
type Error struct {
	Kind    FailureKind
	Status  int // HTTP status of the failed attempt, 0 for transport errors
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation backend %s failure: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("generation backend %s failure: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is a gateway failure worth retrying
func Retryable(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind == FailureRetryable
	}
	return false
}

func retryableErr(message string, err error) *Error {
	return &Error{Kind: FailureRetryable, Message: message, Err: err}
}

func terminalErr(status int, message string) *Error {
	return &Error{Kind: FailureTerminal, Status: status, Message: message}
}

// classifyStatus maps an HTTP response code to a failure classification.
// 429 and 5xx are transient; remaining 4xx are terminal input/policy errors.
func classifyStatus(status int) *Error {
	if status == 429 || status >= 500 {
		return &Error{Kind: FailureRetryable, Status: status, Message: fmt.Sprintf("backend returned status %d", status)}
	}
	return terminalErr(status, fmt.Sprintf("backend rejected request with status %d", status))
}

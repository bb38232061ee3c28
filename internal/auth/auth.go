// Package auth provides the sign-in boundary against an identity provider.
//
// Two providers implement the same contract: RESTProvider talks to a remote
// identity endpoint, LocalProvider verifies bcrypt hashes in process. Both
// report failures through the same coded taxonomy so the caller can surface
// exactly one user-facing message per attempt.
package auth

import (
	"context"
	"fmt"
)

// Provider is the authentication boundary.
type Provider interface {
	// SignIn verifies the credentials. A nil return means success; any
	// failure is an *Error carrying a Code from the taxonomy below.
	SignIn(ctx context.Context, email, password string) error
}

// Code identifies a recognized sign-in failure class.
type Code string

const (
	CodeInvalidEmail    Code = "invalid-email"
	CodeUserNotFound    Code = "user-not-found"
	CodeWrongPassword   Code = "wrong-password"
	CodeTooManyRequests Code = "too-many-requests"
	CodeNetworkFailure  Code = "network-failure"
	CodeUnknown         Code = "unknown"
)

// messages maps each failure code to its user-facing notification text.
// Every sign-in failure produces exactly one of these.
var messages = map[Code]string{
	CodeInvalidEmail:    "The email address is not valid.",
	CodeUserNotFound:    "No account exists for this email.",
	CodeWrongPassword:   "Incorrect credentials.",
	CodeTooManyRequests: "Too many attempts. Try again later.",
	CodeNetworkFailure:  "Connection error. Check your network.",
	CodeUnknown:         "Unexpected error. Please try again.",
}

// Message returns the user-facing text for a failure code.
func Message(c Code) string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return messages[CodeUnknown]
}

// Error is a classified sign-in failure.
type Error struct {
	Code Code
	Err  error // underlying technical error, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sign in: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("sign in: %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for this failure.
func (e *Error) Message() string {
	return Message(e.Code)
}

// CodeOf extracts the failure code from an error, or CodeUnknown when the
// error is not an *Error.
func CodeOf(err error) Code {
	if ae, ok := err.(*Error); ok {
		return ae.Code
	}
	return CodeUnknown
}

// Package apperr defines the domain error taxonomy shared by handlers and
// lower layers. Every failure a handler can surface to a client is expressed
// as an *Error carrying an HTTP status and a stable machine-readable code.
// Handlers return these errors up the echo chain and a single error handler
// serializes them into the JSON envelope {"error":{"code","message","details"}}.
// Anything that is not an *Error is masked as internal_error so internals
// never leak to clients.
package apperr

import "fmt"

// Error is the tagged domain error. Status is the HTTP status to respond
// with, Code a stable snake_case identifier, Message a human-readable
// explanation and Details optional structured context (e.g. per-field
// validation hints).
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Validation reports a malformed or rule-violating request body/query (400).
func Validation(message string, details any) *Error {
	return &Error{Status: 400, Code: "validation_error", Message: message, Details: details}
}

// Unauthorized reports a missing or invalid session (401).
func Unauthorized() *Error {
	return &Error{Status: 401, Code: "unauthorized", Message: "Unauthorized"}
}

// InvalidCredentials is returned uniformly for unknown email and wrong
// password so the two cases cannot be told apart (401).
func InvalidCredentials() *Error {
	return &Error{Status: 401, Code: "invalid_credentials", Message: "Invalid credentials"}
}

// NotFound reports a resource that does not exist for the caller. Tasks owned
// by someone else also map here, deliberately not 403, so existence is not
// revealed (404).
func NotFound(message string) *Error {
	return &Error{Status: 404, Code: "not_found", Message: message}
}

// EmailInUse reports a registration attempt with an already-taken email (409).
func EmailInUse() *Error {
	return &Error{Status: 409, Code: "email_in_use", Message: "Email already registered"}
}

// Config reports missing or malformed server configuration discovered at use
// time, such as an encryption key of the wrong length (500).
func Config(message string) *Error {
	return &Error{Status: 500, Code: "config_error", Message: message}
}

// Internal is the catch-all for unexpected failures (500). The wrapped cause
// is kept out of Message so it is never serialized to the client.
func Internal() *Error {
	return &Error{Status: 500, Code: "internal_error", Message: "Internal server error"}
}

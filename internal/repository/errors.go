// Package repository implements the data access layer over database/sql.
// This file defines sentinel errors shared across repositories so that
// handlers can translate storage outcomes into the right HTTP responses
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email that is already
// present. Handlers translate this into a 409 email_in_use response.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup matches no row. Login
// handlers fold this into the uniform invalid-credentials response so an
// unknown email is indistinguishable from a wrong password.
var ErrUserNotFound = errors.New("user not found")

// ErrTaskNotFound is returned when a task lookup or mutation matches no row
// owned by the caller. A task that exists but belongs to another user yields
// the same error, so handlers respond 404 without revealing existence.
var ErrTaskNotFound = errors.New("task not found")

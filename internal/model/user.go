package model

import "time"

// User represents an application user record as stored in the `users`
// table. JSON tags are omitted because these structs are used internally by
// the repository layer; handlers define separate response types with the
// appropriate JSON shape (the password hash in particular must never be
// serialized).
//
// Fields:
//
//	ID           – UUID primary key of the user.
//	Email        – unique, lowercased email address.
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of registration.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

package model

import "time"

// Task status values as stored in the tasks.status enum column.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task represents a row of the `tasks` table. The description is stored
// encrypted: DescriptionEnc/DescriptionIV/DescriptionTag hold the
// base64-encoded AES-256-GCM ciphertext, nonce and authentication tag. The
// plaintext never touches the database.
//
// Fields:
//
//	ID             – UUID primary key of the task.
//	UserID         – owning user; every query is scoped by this column.
//	Title          – short task title (≤120 chars).
//	DescriptionEnc – base64 ciphertext of the description.
//	DescriptionIV  – base64 96-bit GCM nonce.
//	DescriptionTag – base64 128-bit authentication tag.
//	Status         – one of todo, in_progress, done.
//	CreatedAt      – creation timestamp; lists are ordered by it descending.
type Task struct {
	ID             string    // tasks.id
	UserID         string    // tasks.user_id
	Title          string    // tasks.title
	DescriptionEnc string    // tasks.description_enc
	DescriptionIV  string    // tasks.description_iv
	DescriptionTag string    // tasks.description_tag
	Status         string    // tasks.status
	CreatedAt      time.Time // tasks.created_at
}

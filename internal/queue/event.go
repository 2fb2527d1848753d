// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an activity log.
package queue

// Actions carried by TaskActivityEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TaskActivityEvent is published after a task mutation succeeds. It contains
// enough information for downstream consumers to log or trigger analytics
// without querying the primary database. The description is deliberately
// absent: it is encrypted at rest and never leaves the request path in
// plaintext.
type TaskActivityEvent struct {
	TaskID     string `json:"task_id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
}

package domain

import "time"

// ActivityAction names the mutation recorded in the task audit trail.
type ActivityAction string

const (
	ActivityCreated ActivityAction = "created"
	ActivityUpdated ActivityAction = "updated"
	ActivityDeleted ActivityAction = "deleted"
)

// TaskActivity is an append-only record of a task mutation.
type TaskActivity struct {
	TaskID  string
	ActorID string
	Action  ActivityAction
	At      time.Time
}

package models

import "time"

// ActivityAction enumerates the recorded board events.
type ActivityAction string

const (
	ActivityPublished    ActivityAction = "PUBLISHED"
	ActivityEdited       ActivityAction = "EDITED"
	ActivityAcknowledged ActivityAction = "ACKNOWLEDGED"
)

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	Action     ActivityAction `json:"action"`
	Subject    string         `json:"subject"`
	SubjectID  string         `json:"subject_id"`
	OccurredAt time.Time      `json:"occurred_at"`
}

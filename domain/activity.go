package domain

import "time"

// Activity kinds recorded against a project feed.
const (
	ActivityCreated   = "created"
	ActivityUpdated   = "updated"
	ActivityMoved     = "moved"
	ActivityDeleted   = "deleted"
	ActivityCompleted = "completed"
	ActivityCommented = "commented"
)

// Activity is a single project feed entry.
type Activity struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	TaskID    string    `json:"taskId,omitempty"`
	ActorID   string    `json:"actorId"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification kinds delivered to a user's inbox.
const (
	NotifyAssigned  = "assigned"
	NotifyCompleted = "completed"
	NotifyCommented = "commented"
	NotifyInvited   = "invited"
)

// Notification is an inbox entry for a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actorId"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

package domain

import "time"

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TrackingStatus describes how a task is trending.
type TrackingStatus string

const (
	StatusOnTrack  TrackingStatus = "on_track"
	StatusAtRisk   TrackingStatus = "at_risk"
	StatusOffTrack TrackingStatus = "off_track"
)

// Valid reports whether s is one of the known tracking statuses.
func (s TrackingStatus) Valid() bool {
	switch s {
	case StatusOnTrack, StatusAtRisk, StatusOffTrack:
		return true
	}
	return false
}

// Task represents a single board item.
type Task struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"projectId"`
	SectionID       string         `json:"sectionId"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Priority        Priority       `json:"priority"`
	Status          TrackingStatus `json:"status"`
	Completed       bool           `json:"completed,omitempty"`
	Position        int            `json:"position"`
	CreatedBy       string         `json:"createdBy"`
	AssigneeID      *string        `json:"assigneeId,omitempty"`
	Assignees       []string       `json:"assignees,omitempty"`
	StartDate       *time.Time     `json:"startDate,omitempty"`
	DueDate         *time.Time     `json:"dueDate,omitempty"`
	CalendarEventID *string        `json:"calendarEventId,omitempty"`
}

// AllAssignees returns the primary assignee followed by the additional
// assignees, without duplicates.
func (t *Task) AllAssignees() []string {
	seen := make(map[string]struct{}, len(t.Assignees)+1)
	out := make([]string, 0, len(t.Assignees)+1)
	if t.AssigneeID != nil && *t.AssigneeID != "" {
		seen[*t.AssigneeID] = struct{}{}
		out = append(out, *t.AssigneeID)
	}
	for _, id := range t.Assignees {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Subtask is a checklist entry belonging to a task.
type Subtask struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Done   bool   `json:"done,omitempty"`
}

// Comment is a user-authored note on a task.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

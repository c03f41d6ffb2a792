package domain

import "time"

// Project groups sections and tasks under a team.
type Project struct {
	ID          string `json:"id"`
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	CreatedBy   string `json:"createdBy"`
}

// Section is an ordered column within a project board.
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// ProjectDetail is the aggregate served on the board page: the project
// with its sections in display order, each carrying its tasks in
// position order.
type ProjectDetail struct {
	Project  Project            `json:"project"`
	Sections []SectionWithTasks `json:"sections"`
}

// SectionWithTasks pairs a section with its ordered tasks.
type SectionWithTasks struct {
	Section Section `json:"section"`
	Tasks   []Task  `json:"tasks"`
}

// Team is a membership container for projects.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Goal tracks a measurable objective for a user or team.
type Goal struct {
	ID       string     `json:"id"`
	OwnerID  string     `json:"ownerId"`
	TeamID   string     `json:"teamId,omitempty"`
	Title    string     `json:"title"`
	Progress int        `json:"progress"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

// Portfolio is a named collection of projects.
type Portfolio struct {
	ID       string   `json:"id"`
	OwnerID  string   `json:"ownerId"`
	Name     string   `json:"name"`
	Color    string   `json:"color,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

package api

import (
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"flowboard-api/domain"
	"flowboard-api/service"
)

// decodeBody decodes a JSON request body into dst, rejecting unknown
// fields and bodies over the mutation size cap.
func decodeBody(c echo.Context, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, mutationBodyMaxSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("malformed request body")
	}
	return nil
}

// optionalString distinguishes an absent JSON field from an explicit
// null: absent leaves the stored value untouched, null clears it.
type optionalString struct {
	set   bool
	value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var s string
	if err := sonic.ConfigStd.Unmarshal(b, &s); err != nil {
		return err
	}
	o.value = &s
	return nil
}

// optionalDate is optionalString's RFC 3339 timestamp counterpart.
type optionalDate struct {
	set   bool
	value *time.Time
}

func (o *optionalDate) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var t time.Time
	if err := sonic.ConfigStd.Unmarshal(b, &t); err != nil {
		return err
	}
	o.value = &t
	return nil
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId"`
	SectionID   string     `json:"sectionId"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssigneeID  *string    `json:"assigneeId"`
	Assignees   []string   `json:"assignees"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r *createTaskRequest) input() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		ProjectID:   r.ProjectID,
		SectionID:   r.SectionID,
		Priority:    domain.Priority(r.Priority),
		Status:      domain.TrackingStatus(r.Status),
		AssigneeID:  r.AssigneeID,
		Assignees:   r.Assignees,
		StartDate:   r.StartDate,
		DueDate:     r.DueDate,
	}
}

// updateTaskRequest maps JSON presence onto patch fields: pointer
// fields are non-nullable (a null is rejected as malformed), the
// optional* fields accept null as "clear".
type updateTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Priority    *string        `json:"priority"`
	Status      *string        `json:"status"`
	Completed   *bool          `json:"completed"`
	AssigneeID  optionalString `json:"assigneeId"`
	Assignees   *[]string      `json:"assignees"`
	StartDate   optionalDate   `json:"startDate"`
	DueDate     optionalDate   `json:"dueDate"`
}

func (r *updateTaskRequest) patch() domain.TaskPatch {
	var p domain.TaskPatch
	if r.Title != nil {
		p.Title = domain.Set(*r.Title)
	}
	if r.Description != nil {
		p.Description = domain.Set(*r.Description)
	}
	if r.Priority != nil {
		p.Priority = domain.Set(domain.Priority(*r.Priority))
	}
	if r.Status != nil {
		p.Status = domain.Set(domain.TrackingStatus(*r.Status))
	}
	if r.Completed != nil {
		p.Completed = domain.Set(*r.Completed)
	}
	if r.AssigneeID.set {
		p.AssigneeID = domain.Set(r.AssigneeID.value)
	}
	if r.Assignees != nil {
		p.Assignees = domain.Set(*r.Assignees)
	}
	if r.StartDate.set {
		p.StartDate = domain.Set(r.StartDate.value)
	}
	if r.DueDate.set {
		p.DueDate = domain.Set(r.DueDate.value)
	}
	return p
}

type moveTaskRequest struct {
	SectionID string `json:"sectionId"`
	Position  int    `json:"position"`
}

type createProjectRequest struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

func (r *updateProjectRequest) patch() domain.ProjectPatch {
	var p domain.ProjectPatch
	if r.Name != nil {
		p.Name = domain.Set(*r.Name)
	}
	if r.Description != nil {
		p.Description = domain.Set(*r.Description)
	}
	if r.Color != nil {
		p.Color = domain.Set(*r.Color)
	}
	return p
}

type createSectionRequest struct {
	Name string `json:"name"`
}

type renameSectionRequest struct {
	Name string `json:"name"`
}

type reorderSectionRequest struct {
	Position int `json:"position"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type subtaskRequest struct {
	Title string `json:"title"`
}

type createInviteRequest struct {
	TeamID string `json:"teamId"`
	Email  string `json:"email"`
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

type createGoalRequest struct {
	TeamID  string     `json:"teamId"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"dueDate"`
}

type goalProgressRequest struct {
	Progress int `json:"progress"`
}

type createPortfolioRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type portfolioProjectRequest struct {
	ProjectID string `json:"projectId"`
}

package api

import (
	"context"
	"time"

	"flowboard-api/domain"
	"flowboard-api/service"
)

const mutationBodyMaxSize = 64 * 1024 // 64 KiB

// Views serves the cached page aggregates.
type Views interface {
	FetchProjectDetail(ctx context.Context, projectID string) (*domain.ProjectDetail, error)
	FetchProjectList(ctx context.Context, userID string) ([]domain.Project, error)
	FetchTeamList(ctx context.Context, userID string) ([]domain.Team, error)
	FetchUnreadCount(ctx context.Context, userID string) (int, error)
}

// TaskMutations is the task-facing slice of the mutation layer.
type TaskMutations interface {
	CreateTask(ctx context.Context, actorID string, in service.CreateTaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, actorID, id string, patch domain.TaskPatch) (*domain.Task, error)
	MoveTask(ctx context.Context, actorID, id, sectionID string, position int) (*domain.Task, error)
	DeleteTask(ctx context.Context, actorID, id string) error
	AddComment(ctx context.Context, actorID, taskID, body string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) error
	AddSubtask(ctx context.Context, actorID, taskID, title string) (*domain.Subtask, error)
	ToggleSubtask(ctx context.Context, actorID, subtaskID string) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, actorID, subtaskID string) error
}

// ProjectMutations is the project/section slice of the mutation layer.
type ProjectMutations interface {
	CreateProject(ctx context.Context, actorID, teamID, name, description, color string) (*domain.Project, error)
	UpdateProject(ctx context.Context, actorID, id string, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, actorID, id string) error
	CreateSection(ctx context.Context, actorID, projectID, name string) (*domain.Section, error)
	RenameSection(ctx context.Context, actorID, id, name string) (*domain.Section, error)
	ReorderSection(ctx context.Context, actorID, id string, position int) (*domain.Section, error)
	DeleteSection(ctx context.Context, actorID, id string) error
}

// InviteMutations issues and redeems invites.
type InviteMutations interface {
	CreateInvite(ctx context.Context, actorID, teamID, email string) (*domain.Invite, error)
	AcceptInvite(ctx context.Context, userID, token string) (*domain.Invite, error)
}

// NotificationMutations flips inbox read state.
type NotificationMutations interface {
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// GoalMutations covers goals and portfolios.
type GoalMutations interface {
	CreateGoal(ctx context.Context, actorID, teamID, title string, due *time.Time) (*domain.Goal, error)
	UpdateProgress(ctx context.Context, actorID, goalID string, progress int) error
	ListGoals(ctx context.Context, actorID string) ([]domain.Goal, error)
	CreatePortfolio(ctx context.Context, actorID, name, color string) (*domain.Portfolio, error)
	AddProjectToPortfolio(ctx context.Context, actorID, portfolioID, projectID string) error
	ListPortfolios(ctx context.Context, actorID string) ([]domain.Portfolio, error)
}

// Authenticator is implemented by types able to extract user IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

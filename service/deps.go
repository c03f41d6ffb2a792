// Package service is the mutation layer: each operation validates its
// input, performs one synchronous primary write, then hands activity
// log entries, notifications and calendar sync to the dispatcher and
// deletes the affected cache keys. Side-effect failures never reach the
// caller; only validation, not-found and authentication errors do.
package service

import (
	"context"
	"database/sql"
	"errors"

	"flowboard-api/calendar"
	"flowboard-api/dispatch"
	"flowboard-api/domain"
	"flowboard-api/storage"
)

// TaskStore is the persistence surface for tasks.
type TaskStore interface {
	Get(ctx context.Context, id string) (*domain.Task, error)
	NextPosition(ctx context.Context, sectionID string) (int, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	ReplaceAssignees(ctx context.Context, taskID string, userIDs []string) error
	Move(ctx context.Context, id, sectionID string, position int) error
	Delete(ctx context.Context, id string) error
	SetCalendarEventID(ctx context.Context, id, eventID string) error
}

// SectionStore is the persistence surface for sections.
type SectionStore interface {
	Get(ctx context.Context, id string) (*domain.Section, error)
	NextPosition(ctx context.Context, projectID string) (int, error)
	Create(ctx context.Context, s *domain.Section) error
	Rename(ctx context.Context, id, name string) error
	Reorder(ctx context.Context, id string, position int) error
	Delete(ctx context.Context, id string) error
}

// ProjectStore is the persistence surface for projects and teams.
type ProjectStore interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
	AddTeamMember(ctx context.Context, teamID, userID string) error
}

// ActivityStore appends to the project feed.
type ActivityStore interface {
	Insert(ctx context.Context, a *domain.Activity) error
}

// NotificationStore persists inbox entries.
type NotificationStore interface {
	Insert(ctx context.Context, n *domain.Notification) error
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// CommentStore persists task comments.
type CommentStore interface {
	Create(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, id string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

// SubtaskStore persists task checklists.
type SubtaskStore interface {
	Create(ctx context.Context, s *domain.Subtask) error
	Get(ctx context.Context, id string) (*domain.Subtask, error)
	SetDone(ctx context.Context, id string, done bool) error
	Delete(ctx context.Context, id string) error
}

// InviteStore persists team invites.
type InviteStore interface {
	Create(ctx context.Context, inv *domain.Invite) error
	GetByToken(ctx context.Context, token string) (*domain.Invite, error)
	MarkAccepted(ctx context.Context, id string) error
}

// AccountStore resolves linked calendar accounts; nil means unlinked.
type AccountStore interface {
	LinkedCalendar(ctx context.Context, userID string) (*storage.CalendarAccount, error)
}

// Invalidator deletes cache keys after a write. Implementations swallow
// their own failures.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// Dispatcher runs best-effort side effects off the request path.
type Dispatcher interface {
	Dispatch(job dispatch.Job)
}

// CalendarClient mirrors calendar.Client for injection.
type CalendarClient = calendar.Client

func requireActor(actorID string) error {
	if actorID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// mapNotFound converts the driver's no-rows sentinel into the typed
// not-found failure the API layer understands.
func mapNotFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(what)
	}
	return err
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"flowboard-api/calendar"
	"flowboard-api/dispatch"
	"flowboard-api/domain"
	"flowboard-api/storage"
)

// TaskService performs task mutations: one synchronous primary write,
// followed by dispatched side effects and cache invalidation.
type TaskService struct {
	tasks    TaskStore
	sections SectionStore
	projects ProjectStore
	activity ActivityStore
	notify   NotificationStore
	comments CommentStore
	subtasks SubtaskStore
	accounts AccountStore
	cache    Invalidator
	runner   Dispatcher
	calendar CalendarClient
	logger   *log.Logger

	now   func() time.Time
	newID func() string
}

func NewTaskService(
	tasks TaskStore,
	sections SectionStore,
	projects ProjectStore,
	activity ActivityStore,
	notify NotificationStore,
	comments CommentStore,
	subtasks SubtaskStore,
	accounts AccountStore,
	cache Invalidator,
	runner Dispatcher,
	cal CalendarClient,
	logger *log.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		sections: sections,
		projects: projects,
		activity: activity,
		notify:   notify,
		comments: comments,
		subtasks: subtasks,
		accounts: accounts,
		cache:    cache,
		runner:   runner,
		calendar: cal,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateTaskInput carries the fields a new task is created from.
type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   string
	SectionID   string
	Priority    domain.Priority
	Status      domain.TrackingStatus
	AssigneeID  *string
	Assignees   []string
	StartDate   *time.Time
	DueDate     *time.Time
}

// CreateTask appends a task to the end of a section: its position is the
// section's current max position + 1, or 0 when the section is empty.
func (s *TaskService) CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (*domain.Task, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if in.ProjectID == "" {
		return nil, domain.NewValidationError("projectId is required")
	}
	if in.SectionID == "" {
		return nil, domain.NewValidationError("sectionId is required")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, domain.NewValidationError("unknown priority")
	}
	if in.Status == "" {
		in.Status = domain.StatusOnTrack
	}
	if !in.Status.Valid() {
		return nil, domain.NewValidationError("unknown status")
	}

	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, mapNotFound(err, "project")
	}
	section, err := s.sections.Get(ctx, in.SectionID)
	if err != nil {
		return nil, mapNotFound(err, "section")
	}
	if section.ProjectID != in.ProjectID {
		return nil, domain.NewValidationError("section does not belong to project")
	}

	position, err := s.tasks.NextPosition(ctx, in.SectionID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:          s.newID(),
		ProjectID:   in.ProjectID,
		SectionID:   in.SectionID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		Position:    position,
		CreatedBy:   actorID,
		AssigneeID:  in.AssigneeID,
		Assignees:   in.Assignees,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityCreated,
		fmt.Sprintf("created %q in %q", task.Title, section.Name))
	for _, userID := range task.AllAssignees() {
		if userID == actorID {
			continue
		}
		s.sendNotification(userID, actorID, domain.NotifyAssigned,
			fmt.Sprintf("You were assigned %q", task.Title), taskLink(task))
	}
	s.syncCalendarCreate(task, project.Name)

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return task, nil
}

// UpdateTask applies a partial update. Unset patch fields leave the
// stored value untouched; a set nil clears a nullable field.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if patch.Title.IsSet() && patch.Title.Value() == "" {
		return nil, domain.NewValidationError("title cannot be empty")
	}
	if patch.Priority.IsSet() && !patch.Priority.Value().Valid() {
		return nil, domain.NewValidationError("unknown priority")
	}
	if patch.Status.IsSet() && !patch.Status.Value().Valid() {
		return nil, domain.NewValidationError("unknown status")
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "task")
	}
	prev := *task

	patch.Title.Apply(&task.Title)
	patch.Description.Apply(&task.Description)
	patch.Priority.Apply(&task.Priority)
	patch.Status.Apply(&task.Status)
	patch.Completed.Apply(&task.Completed)
	patch.AssigneeID.Apply(&task.AssigneeID)
	patch.StartDate.Apply(&task.StartDate)
	patch.DueDate.Apply(&task.DueDate)
	if patch.Assignees.IsSet() {
		task.Assignees = patch.Assignees.Value()
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, mapNotFound(err, "task")
	}
	if patch.Assignees.IsSet() {
		// The assignee-set swap is a delete plus inserts, not a single
		// transaction; a concurrent reader can observe the gap.
		if err := s.tasks.ReplaceAssignees(ctx, id, task.Assignees); err != nil {
			return nil, err
		}
	}

	completedNow := task.Completed && !prev.Completed
	if completedNow {
		s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityCompleted,
			fmt.Sprintf("completed %q", task.Title))
		if task.CreatedBy != actorID {
			s.sendNotification(task.CreatedBy, actorID, domain.NotifyCompleted,
				fmt.Sprintf("%q was completed", task.Title), taskLink(task))
		}
	} else {
		s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityUpdated,
			fmt.Sprintf("updated %q", task.Title))
	}

	if assigneeChanged(prev.AssigneeID, task.AssigneeID) && task.AssigneeID != nil && *task.AssigneeID != actorID {
		s.sendNotification(*task.AssigneeID, actorID, domain.NotifyAssigned,
			fmt.Sprintf("You were assigned %q", task.Title), taskLink(task))
	}

	if task.CalendarEventID != nil && calendarRelevantChange(&prev, task) {
		s.syncCalendarUpdate(task)
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return task, nil
}

// MoveTask sets the task's section and position to the caller-supplied
// values; siblings keep their positions (the board computes insertion
// indexes, the server trusts them).
func (s *TaskService) MoveTask(ctx context.Context, actorID, id, sectionID string, position int) (*domain.Task, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if sectionID == "" {
		return nil, domain.NewValidationError("sectionId is required")
	}
	if position < 0 {
		return nil, domain.NewValidationError("position cannot be negative")
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "task")
	}
	target, err := s.sections.Get(ctx, sectionID)
	if err != nil {
		return nil, mapNotFound(err, "section")
	}
	if target.ProjectID != task.ProjectID {
		return nil, domain.NewValidationError("section does not belong to project")
	}

	sectionChanged := task.SectionID != sectionID
	var oldName string
	if sectionChanged {
		if old, err := s.sections.Get(ctx, task.SectionID); err == nil {
			oldName = old.Name
		} else {
			oldName = task.SectionID
		}
	}

	if err := s.tasks.Move(ctx, id, sectionID, position); err != nil {
		return nil, mapNotFound(err, "task")
	}
	task.SectionID = sectionID
	task.Position = position

	if sectionChanged {
		s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityMoved,
			fmt.Sprintf("moved %q from %q to %q", task.Title, oldName, target.Name))
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return task, nil
}

// DeleteTask removes the task. When the task carries an external
// calendar reference, a delete is attempted for every assignee's linked
// calendar before the row is removed; those attempts are best-effort
// and never block the removal.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, id string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return mapNotFound(err, "task")
	}

	if task.CalendarEventID != nil {
		for _, userID := range task.AllAssignees() {
			acc, accErr := s.accounts.LinkedCalendar(ctx, userID)
			if accErr != nil || acc == nil {
				continue
			}
			if delErr := s.calendar.DeleteEvent(ctx, toCalendarAccount(acc), *task.CalendarEventID); delErr != nil {
				s.logger.Warnf("calendar cleanup failed, task: %s, user: %s, err: %v", id, userID, delErr)
			}
		}
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return mapNotFound(err, "task")
	}

	s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityDeleted,
		fmt.Sprintf("deleted %q", task.Title))

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return nil
}

func (s *TaskService) logActivity(actorID, projectID, taskID, kind, detail string) {
	entry := &domain.Activity{
		ID:        s.newID(),
		ProjectID: projectID,
		TaskID:    taskID,
		ActorID:   actorID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	s.runner.Dispatch(dispatch.Job{
		Name: "activity." + kind,
		Run: func(ctx context.Context) error {
			return s.activity.Insert(ctx, entry)
		},
	})
}

func (s *TaskService) sendNotification(userID, actorID, kind, message, link string) {
	n := &domain.Notification{
		ID:        s.newID(),
		UserID:    userID,
		Kind:      kind,
		ActorID:   actorID,
		Message:   message,
		Link:      link,
		CreatedAt: s.now().UTC(),
	}
	s.runner.Dispatch(dispatch.Job{
		Name: "notify." + kind,
		Run: func(ctx context.Context) error {
			if err := s.notify.Insert(ctx, n); err != nil {
				return err
			}
			s.cache.Invalidate(ctx, storage.UnreadKey(userID))
			return nil
		},
	})
}

func (s *TaskService) syncCalendarCreate(task *domain.Task, projectName string) {
	taskID := task.ID
	ev := taskEvent(task, projectName)
	assignees := task.AllAssignees()
	s.runner.Dispatch(dispatch.Job{
		Name: "calendar.create",
		Run: func(ctx context.Context) error {
			stored := false
			for _, userID := range assignees {
				acc, err := s.accounts.LinkedCalendar(ctx, userID)
				if err != nil || acc == nil {
					continue
				}
				eventID, err := s.calendar.CreateEvent(ctx, toCalendarAccount(acc), ev)
				if err != nil {
					s.logger.Warnf("calendar create failed, task: %s, user: %s, err: %v", taskID, userID, err)
					continue
				}
				// One stored reference per task; remaining linked accounts
				// get their own events but no back-link.
				if eventID != "" && !stored {
					stored = true
					if err := s.tasks.SetCalendarEventID(ctx, taskID, eventID); err != nil {
						s.logger.Warnf("storing calendar ref failed, task: %s, err: %v", taskID, err)
					}
				}
			}
			return nil
		},
	})
}

func (s *TaskService) syncCalendarUpdate(task *domain.Task) {
	taskID := task.ID
	eventID := *task.CalendarEventID
	ev := taskEvent(task, "")
	assignees := task.AllAssignees()
	s.runner.Dispatch(dispatch.Job{
		Name: "calendar.update",
		Run: func(ctx context.Context) error {
			for _, userID := range assignees {
				acc, err := s.accounts.LinkedCalendar(ctx, userID)
				if err != nil || acc == nil {
					continue
				}
				if err := s.calendar.UpdateEvent(ctx, toCalendarAccount(acc), eventID, ev); err != nil {
					s.logger.Warnf("calendar update failed, task: %s, user: %s, err: %v", taskID, userID, err)
				}
			}
			return nil
		},
	})
}

func taskEvent(task *domain.Task, projectName string) calendar.Event {
	return calendar.Event{
		Title:       task.Title,
		Description: task.Description,
		ProjectName: projectName,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
	}
}

func toCalendarAccount(acc *storage.CalendarAccount) calendar.Account {
	return calendar.Account{CalendarID: acc.CalendarID, AccessToken: acc.AccessToken}
}

func taskLink(task *domain.Task) string {
	return fmt.Sprintf("/projects/%s?task=%s", task.ProjectID, task.ID)
}

func assigneeChanged(prev, next *string) bool {
	switch {
	case prev == nil && next == nil:
		return false
	case prev == nil || next == nil:
		return true
	default:
		return *prev != *next
	}
}

func calendarRelevantChange(prev, next *domain.Task) bool {
	return prev.Title != next.Title ||
		prev.Description != next.Description ||
		!timePtrEqual(prev.StartDate, next.StartDate) ||
		!timePtrEqual(prev.DueDate, next.DueDate)
}

func timePtrEqual(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.Equal(*b)
	}
}

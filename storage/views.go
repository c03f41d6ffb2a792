package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// Views assembles the read-heavy aggregates the pages fetch. It is the
// uncached backend; Cache wraps it.
type Views struct {
	projects      *ProjectRepository
	sections      *SectionRepository
	tasks         *TaskRepository
	notifications *NotificationRepository
}

func NewViews(db *sql.DB) *Views {
	return &Views{
		projects:      NewProjectRepository(db),
		sections:      NewSectionRepository(db),
		tasks:         NewTaskRepository(db),
		notifications: NewNotificationRepository(db),
	}
}

// FetchProjectDetail loads a project with its sections in display order,
// each carrying its tasks in position order.
func (v *Views) FetchProjectDetail(ctx context.Context, projectID string) (*domain.ProjectDetail, error) {
	project, err := v.projects.Get(ctx, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("project")
		}
		return nil, err
	}
	sections, err := v.sections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := v.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	bySection := make(map[string][]domain.Task, len(sections))
	for _, t := range tasks {
		bySection[t.SectionID] = append(bySection[t.SectionID], t)
	}
	detail := &domain.ProjectDetail{Project: *project}
	for _, s := range sections {
		ts := bySection[s.ID]
		if ts == nil {
			ts = []domain.Task{}
		}
		detail.Sections = append(detail.Sections, domain.SectionWithTasks{Section: s, Tasks: ts})
	}
	return detail, nil
}

func (v *Views) FetchProjectList(ctx context.Context, userID string) ([]domain.Project, error) {
	return v.projects.ListForUser(ctx, userID)
}

func (v *Views) FetchTeamList(ctx context.Context, userID string) ([]domain.Team, error) {
	return v.projects.ListTeamsForUser(ctx, userID)
}

func (v *Views) FetchUnreadCount(ctx context.Context, userID string) (int, error) {
	return v.notifications.UnreadCount(ctx, userID)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flowboard-api/dispatch"
	"flowboard-api/domain"
	"flowboard-api/storage"
)

// ProjectService performs project and section mutations.
type ProjectService struct {
	projects ProjectStore
	sections SectionStore
	activity ActivityStore
	cache    Invalidator
	runner   Dispatcher

	now   func() time.Time
	newID func() string
}

func NewProjectService(
	projects ProjectStore,
	sections SectionStore,
	activity ActivityStore,
	cache Invalidator,
	runner Dispatcher,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		sections: sections,
		activity: activity,
		cache:    cache,
		runner:   runner,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

var defaultSectionNames = []string{"To do", "In progress", "Done"}

// CreateProject creates a project with the default board columns.
func (s *ProjectService) CreateProject(ctx context.Context, actorID, teamID, name, description, color string) (*domain.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if teamID == "" {
		return nil, domain.NewValidationError("teamId is required")
	}

	project := &domain.Project{
		ID:          s.newID(),
		TeamID:      teamID,
		Name:        name,
		Description: description,
		Color:       color,
		CreatedBy:   actorID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	for i, sectionName := range defaultSectionNames {
		section := &domain.Section{
			ID:        s.newID(),
			ProjectID: project.ID,
			Name:      sectionName,
			Position:  i,
		}
		if err := s.sections.Create(ctx, section); err != nil {
			return nil, err
		}
	}

	s.cache.Invalidate(ctx, storage.ProjectListKey(actorID))
	return project, nil
}

// UpdateProject applies a partial project update.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if patch.Name.IsSet() && patch.Name.Value() == "" {
		return nil, domain.NewValidationError("name cannot be empty")
	}

	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "project")
	}
	patch.Name.Apply(&project.Name)
	patch.Description.Apply(&project.Description)
	patch.Color.Apply(&project.Color)

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, mapNotFound(err, "project")
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(id), storage.ProjectListKey(actorID))
	return project, nil
}

// DeleteProject removes a project and everything under it.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, id string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	if _, err := s.projects.Get(ctx, id); err != nil {
		return mapNotFound(err, "project")
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return mapNotFound(err, "project")
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(id), storage.ProjectListKey(actorID))
	return nil
}

// CreateSection appends a board column to a project.
func (s *ProjectService) CreateSection(ctx context.Context, actorID, projectID, name string) (*domain.Section, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}

	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, mapNotFound(err, "project")
	}
	position, err := s.sections.NextPosition(ctx, projectID)
	if err != nil {
		return nil, err
	}

	section := &domain.Section{
		ID:        s.newID(),
		ProjectID: projectID,
		Name:      name,
		Position:  position,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(projectID))
	return section, nil
}

// RenameSection changes a column's display name.
func (s *ProjectService) RenameSection(ctx context.Context, actorID, id, name string) (*domain.Section, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}

	section, err := s.sections.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "section")
	}
	if err := s.sections.Rename(ctx, id, name); err != nil {
		return nil, mapNotFound(err, "section")
	}
	section.Name = name

	s.cache.Invalidate(ctx, storage.ProjectKey(section.ProjectID))
	return section, nil
}

// ReorderSection sets a column's position to the caller-supplied value.
func (s *ProjectService) ReorderSection(ctx context.Context, actorID, id string, position int) (*domain.Section, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, domain.NewValidationError("position cannot be negative")
	}

	section, err := s.sections.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "section")
	}
	if err := s.sections.Reorder(ctx, id, position); err != nil {
		return nil, mapNotFound(err, "section")
	}
	section.Position = position

	s.cache.Invalidate(ctx, storage.ProjectKey(section.ProjectID))
	return section, nil
}

// DeleteSection removes a column and its tasks.
func (s *ProjectService) DeleteSection(ctx context.Context, actorID, id string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	section, err := s.sections.Get(ctx, id)
	if err != nil {
		return mapNotFound(err, "section")
	}
	if err := s.sections.Delete(ctx, id); err != nil {
		return mapNotFound(err, "section")
	}

	s.logSectionActivity(actorID, section)
	s.cache.Invalidate(ctx, storage.ProjectKey(section.ProjectID))
	return nil
}

func (s *ProjectService) logSectionActivity(actorID string, section *domain.Section) {
	entry := &domain.Activity{
		ID:        s.newID(),
		ProjectID: section.ProjectID,
		ActorID:   actorID,
		Kind:      domain.ActivityDeleted,
		Detail:    fmt.Sprintf("deleted section %q", section.Name),
		CreatedAt: s.now().UTC(),
	}
	s.runner.Dispatch(dispatch.Job{
		Name: "activity.section-deleted",
		Run: func(ctx context.Context) error {
			return s.activity.Insert(ctx, entry)
		},
	})
}

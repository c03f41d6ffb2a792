package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"flowboard-api/domain"
)

// GoalStore persists goals.
type GoalStore interface {
	Create(ctx context.Context, g *domain.Goal) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	ListForUser(ctx context.Context, userID string) ([]domain.Goal, error)
}

// PortfolioStore persists portfolios.
type PortfolioStore interface {
	Create(ctx context.Context, p *domain.Portfolio) error
	AddProject(ctx context.Context, portfolioID, projectID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Portfolio, error)
}

// GoalService is plain CRUD; no cached aggregate reaches goals or
// portfolios, so there is nothing to invalidate.
type GoalService struct {
	goals      GoalStore
	portfolios PortfolioStore

	newID func() string
}

func NewGoalService(goals GoalStore, portfolios PortfolioStore) *GoalService {
	return &GoalService{goals: goals, portfolios: portfolios, newID: uuid.NewString}
}

func (s *GoalService) CreateGoal(ctx context.Context, actorID, teamID, title string, due *time.Time) (*domain.Goal, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}

	goal := &domain.Goal{
		ID:      s.newID(),
		OwnerID: actorID,
		TeamID:  teamID,
		Title:   title,
		DueDate: due,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) UpdateProgress(ctx context.Context, actorID, goalID string, progress int) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if progress < 0 || progress > 100 {
		return domain.NewValidationError("progress must be between 0 and 100")
	}
	return mapNotFound(s.goals.UpdateProgress(ctx, goalID, progress), "goal")
}

func (s *GoalService) ListGoals(ctx context.Context, actorID string) ([]domain.Goal, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	return s.goals.ListForUser(ctx, actorID)
}

func (s *GoalService) CreatePortfolio(ctx context.Context, actorID, name, color string) (*domain.Portfolio, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}

	portfolio := &domain.Portfolio{ID: s.newID(), OwnerID: actorID, Name: name, Color: color}
	if err := s.portfolios.Create(ctx, portfolio); err != nil {
		return nil, err
	}
	return portfolio, nil
}

func (s *GoalService) AddProjectToPortfolio(ctx context.Context, actorID, portfolioID, projectID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if portfolioID == "" || projectID == "" {
		return domain.NewValidationError("portfolioId and projectId are required")
	}
	return s.portfolios.AddProject(ctx, portfolioID, projectID)
}

func (s *GoalService) ListPortfolios(ctx context.Context, actorID string) ([]domain.Portfolio, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	return s.portfolios.ListForUser(ctx, actorID)
}

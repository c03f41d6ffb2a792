package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// GoalRepository persists goals.
type GoalRepository struct {
	executor DBExecutor
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{executor: db}
}

func (r *GoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO goals (id, owner_id, team_id, title, progress, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.OwnerID, nullString(g.TeamID), g.Title, g.Progress, nullTimePtr(g.DueDate))
	return err
}

func (r *GoalRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE goals SET progress = $2 WHERE id = $1`, id, progress)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *GoalRepository) ListForUser(ctx context.Context, userID string) ([]domain.Goal, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, owner_id, team_id, title, progress, due_date
		 FROM goals WHERE owner_id = $1 ORDER BY title`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		var g domain.Goal
		var teamID sql.NullString
		var due sql.NullTime
		if err := rows.Scan(&g.ID, &g.OwnerID, &teamID, &g.Title, &g.Progress, &due); err != nil {
			return nil, err
		}
		g.TeamID = teamID.String
		if due.Valid {
			d := due.Time
			g.DueDate = &d
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// PortfolioRepository persists portfolios and their project membership.
type PortfolioRepository struct {
	executor DBExecutor
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{executor: db}
}

func (r *PortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO portfolios (id, owner_id, name, color) VALUES ($1, $2, $3, $4)`,
		p.ID, p.OwnerID, p.Name, nullString(p.Color))
	return err
}

func (r *PortfolioRepository) AddProject(ctx context.Context, portfolioID, projectID string) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO portfolio_projects (portfolio_id, project_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, portfolioID, projectID)
	return err
}

func (r *PortfolioRepository) ListForUser(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, owner_id, name, color FROM portfolios
		 WHERE owner_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := []domain.Portfolio{}
	for rows.Next() {
		var p domain.Portfolio
		var color sql.NullString
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &color); err != nil {
			return nil, err
		}
		p.Color = color.String
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range portfolios {
		ids, err := r.projectIDs(ctx, portfolios[i].ID)
		if err != nil {
			return nil, err
		}
		portfolios[i].Projects = ids
	}
	return portfolios, nil
}

func (r *PortfolioRepository) projectIDs(ctx context.Context, portfolioID string) ([]string, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT project_id FROM portfolio_projects WHERE portfolio_id = $1 ORDER BY project_id`,
		portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

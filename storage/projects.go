package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// ProjectRepository persists projects and team membership lookups.
type ProjectRepository struct {
	executor DBExecutor
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{executor: db}
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	var description, color sql.NullString
	err := r.executor.QueryRowContext(ctx,
		`SELECT id, team_id, name, description, color, created_by
		 FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.TeamID, &p.Name, &description, &color, &p.CreatedBy)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Color = color.String
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO projects (id, team_id, name, description, color, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.TeamID, p.Name, nullString(p.Description), nullString(p.Color), p.CreatedBy)
	return err
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE projects SET name = $2, description = $3, color = $4 WHERE id = $1`,
		p.ID, p.Name, nullString(p.Description), nullString(p.Color))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.executor.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListForUser returns the projects of every team the user belongs to.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT p.id, p.team_id, p.name, p.description, p.color, p.created_by
		 FROM projects p
		 JOIN team_members tm ON tm.team_id = p.team_id
		 WHERE tm.user_id = $1 ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		var description, color sql.NullString
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &description, &color, &p.CreatedBy); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.Color = color.String
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListTeamsForUser returns the teams the user is a member of.
func (r *ProjectRepository) ListTeamsForUser(ctx context.Context, userID string) ([]domain.Team, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT t.id, t.name FROM teams t
		 JOIN team_members tm ON tm.team_id = t.id
		 WHERE tm.user_id = $1 ORDER BY t.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []domain.Team{}
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AddTeamMember records a team membership; duplicates are ignored.
func (r *ProjectRepository) AddTeamMember(ctx context.Context, teamID, userID string) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, teamID, userID)
	return err
}

// SectionRepository persists board columns.
type SectionRepository struct {
	executor DBExecutor
}

func NewSectionRepository(db *sql.DB) *SectionRepository {
	return &SectionRepository{executor: db}
}

func (r *SectionRepository) Get(ctx context.Context, id string) (*domain.Section, error) {
	var s domain.Section
	err := r.executor.QueryRowContext(ctx,
		`SELECT id, project_id, name, position FROM sections WHERE id = $1`, id).
		Scan(&s.ID, &s.ProjectID, &s.Name, &s.Position)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// NextPosition returns the append position within a project.
func (r *SectionRepository) NextPosition(ctx context.Context, projectID string) (int, error) {
	var pos int
	err := r.executor.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM sections WHERE project_id = $1`,
		projectID).Scan(&pos)
	return pos, err
}

func (r *SectionRepository) Create(ctx context.Context, s *domain.Section) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO sections (id, project_id, name, position) VALUES ($1, $2, $3, $4)`,
		s.ID, s.ProjectID, s.Name, s.Position)
	return err
}

func (r *SectionRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE sections SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SectionRepository) Reorder(ctx context.Context, id string, position int) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE sections SET position = $2 WHERE id = $1`, id, position)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the section; its tasks are removed with it.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.executor.ExecContext(ctx,
		`DELETE FROM tasks WHERE section_id = $1`, id); err != nil {
		return err
	}
	res, err := r.executor.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListByProject returns the sections of a project in display order.
func (r *SectionRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Section, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, project_id, name, position FROM sections
		 WHERE project_id = $1 ORDER BY position, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []domain.Section{}
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Position); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

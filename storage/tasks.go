package storage

import (
	"context"
	"database/sql"
	"time"

	"flowboard-api/domain"
)

// TaskRepository persists tasks and their assignee sets.
type TaskRepository struct {
	executor DBExecutor
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{executor: db}
}

const taskColumns = `id, project_id, section_id, title, description, priority, status,
	completed, position, created_by, assignee_id, start_date, due_date, calendar_event_id`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	var description sql.NullString
	var assignee, eventID sql.NullString
	var start, due sql.NullTime
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.SectionID, &t.Title, &description, &t.Priority,
		&t.Status, &t.Completed, &t.Position, &t.CreatedBy, &assignee,
		&start, &due, &eventID,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	if eventID.Valid {
		t.CalendarEventID = &eventID.String
	}
	if start.Valid {
		st := start.Time
		t.StartDate = &st
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return &t, nil
}

// Get loads a task and its additional assignees.
func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := r.executor.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	assignees, err := r.assignees(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees
	return t, nil
}

func (r *TaskRepository) assignees(ctx context.Context, taskID string) ([]string, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY user_id`, taskID)
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

// NextPosition returns the append position for a section: max existing
// position + 1, or 0 for an empty section.
func (r *TaskRepository) NextPosition(ctx context.Context, sectionID string) (int, error) {
	var pos int
	err := r.executor.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE section_id = $1`,
		sectionID).Scan(&pos)
	return pos, err
}

// Create inserts the task row and its additional assignee rows.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.ProjectID, t.SectionID, t.Title, nullString(t.Description),
		t.Priority, t.Status, t.Completed, t.Position, t.CreatedBy,
		nullStringPtr(t.AssigneeID), nullTimePtr(t.StartDate),
		nullTimePtr(t.DueDate), nullStringPtr(t.CalendarEventID),
	)
	if err != nil {
		return err
	}
	for _, userID := range t.Assignees {
		if _, err := r.executor.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			t.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

// Update writes every mutable column. Callers load the current row and
// apply their patch first, so this is always a full-row write of the
// merged state.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE tasks SET title = $2, description = $3, priority = $4, status = $5,
		 completed = $6, assignee_id = $7, start_date = $8, due_date = $9,
		 calendar_event_id = $10 WHERE id = $1`,
		t.ID, t.Title, nullString(t.Description), t.Priority, t.Status,
		t.Completed, nullStringPtr(t.AssigneeID), nullTimePtr(t.StartDate),
		nullTimePtr(t.DueDate), nullStringPtr(t.CalendarEventID),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReplaceAssignees swaps the additional assignee set. The delete and the
// inserts are individual statements, not a transaction; see the service
// layer note on multi-row consistency.
func (r *TaskRepository) ReplaceAssignees(ctx context.Context, taskID string, userIDs []string) error {
	if _, err := r.executor.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := r.executor.ExecContext(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			taskID, userID); err != nil {
			return err
		}
	}
	return nil
}

// Move sets the section and position to the caller-supplied values in a
// single statement. Siblings are never renumbered.
func (r *TaskRepository) Move(ctx context.Context, id, sectionID string, position int) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE tasks SET section_id = $2, position = $3 WHERE id = $1`,
		id, sectionID, position)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetCalendarEventID records the external calendar reference once the
// event exists. Runs as a side effect, after the task row is live.
func (r *TaskRepository) SetCalendarEventID(ctx context.Context, id, eventID string) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE tasks SET calendar_event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the task row; assignee rows go with it via FK cascade.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.executor.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListByProject returns all tasks of a project ordered by section and
// position, with additional assignees attached.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1
		 ORDER BY section_id, position, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byTask, err := r.assigneesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Assignees = byTask[tasks[i].ID]
	}
	return tasks, nil
}

func (r *TaskRepository) assigneesByProject(ctx context.Context, projectID string) (map[string][]string, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT ta.task_id, ta.user_id FROM task_assignees ta
		 JOIN tasks t ON t.id = ta.task_id
		 WHERE t.project_id = $1 ORDER BY ta.task_id, ta.user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var taskID, userID string
		if err := rows.Scan(&taskID, &userID); err != nil {
			return nil, err
		}
		out[taskID] = append(out[taskID], userID)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// CommentRepository persists task comments.
type CommentRepository struct {
	executor DBExecutor
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{executor: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO comments (id, task_id, author_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TaskID, c.AuthorID, c.Body, c.CreatedAt)
	return err
}

func (r *CommentRepository) Get(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.executor.QueryRowContext(ctx,
		`SELECT id, task_id, author_id, body, created_at FROM comments WHERE id = $1`, id).
		Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.executor.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SubtaskRepository persists task checklists.
type SubtaskRepository struct {
	executor DBExecutor
}

func NewSubtaskRepository(db *sql.DB) *SubtaskRepository {
	return &SubtaskRepository{executor: db}
}

func (r *SubtaskRepository) Create(ctx context.Context, s *domain.Subtask) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO subtasks (id, task_id, title, done) VALUES ($1, $2, $3, $4)`,
		s.ID, s.TaskID, s.Title, s.Done)
	return err
}

func (r *SubtaskRepository) Get(ctx context.Context, id string) (*domain.Subtask, error) {
	var s domain.Subtask
	err := r.executor.QueryRowContext(ctx,
		`SELECT id, task_id, title, done FROM subtasks WHERE id = $1`, id).
		Scan(&s.ID, &s.TaskID, &s.Title, &s.Done)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubtaskRepository) SetDone(ctx context.Context, id string, done bool) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE subtasks SET done = $2 WHERE id = $1`, id, done)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SubtaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.executor.ExecContext(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

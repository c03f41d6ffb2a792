package service

import (
	"context"
	"fmt"

	"flowboard-api/domain"
	"flowboard-api/storage"
)

// AddComment appends a comment to a task and notifies the task's
// creator when someone else wrote it.
func (s *TaskService) AddComment(ctx context.Context, actorID, taskID, body string) (*domain.Comment, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, domain.NewValidationError("comment body is required")
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, mapNotFound(err, "task")
	}

	comment := &domain.Comment{
		ID:        s.newID(),
		TaskID:    taskID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logActivity(actorID, task.ProjectID, task.ID, domain.ActivityCommented,
		fmt.Sprintf("commented on %q", task.Title))
	if task.CreatedBy != actorID {
		s.sendNotification(task.CreatedBy, actorID, domain.NotifyCommented,
			fmt.Sprintf("New comment on %q", task.Title), taskLink(task))
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return comment, nil
}

// DeleteComment removes a comment.
func (s *TaskService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	comment, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return mapNotFound(err, "comment")
	}
	task, err := s.tasks.Get(ctx, comment.TaskID)
	if err != nil {
		return mapNotFound(err, "task")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return mapNotFound(err, "comment")
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return nil
}

// AddSubtask appends a checklist entry to a task.
func (s *TaskService) AddSubtask(ctx context.Context, actorID, taskID, title string) (*domain.Subtask, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, domain.NewValidationError("subtask title is required")
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, mapNotFound(err, "task")
	}

	subtask := &domain.Subtask{ID: s.newID(), TaskID: taskID, Title: title}
	if err := s.subtasks.Create(ctx, subtask); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return subtask, nil
}

// ToggleSubtask flips a checklist entry.
func (s *TaskService) ToggleSubtask(ctx context.Context, actorID, subtaskID string) (*domain.Subtask, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	subtask, err := s.subtasks.Get(ctx, subtaskID)
	if err != nil {
		return nil, mapNotFound(err, "subtask")
	}
	task, err := s.tasks.Get(ctx, subtask.TaskID)
	if err != nil {
		return nil, mapNotFound(err, "task")
	}

	subtask.Done = !subtask.Done
	if err := s.subtasks.SetDone(ctx, subtaskID, subtask.Done); err != nil {
		return nil, mapNotFound(err, "subtask")
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return subtask, nil
}

// DeleteSubtask removes a checklist entry.
func (s *TaskService) DeleteSubtask(ctx context.Context, actorID, subtaskID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	subtask, err := s.subtasks.Get(ctx, subtaskID)
	if err != nil {
		return mapNotFound(err, "subtask")
	}
	task, err := s.tasks.Get(ctx, subtask.TaskID)
	if err != nil {
		return mapNotFound(err, "task")
	}

	if err := s.subtasks.Delete(ctx, subtaskID); err != nil {
		return mapNotFound(err, "subtask")
	}

	s.cache.Invalidate(ctx, storage.ProjectKey(task.ProjectID))
	return nil
}

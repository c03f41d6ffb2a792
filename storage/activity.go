package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// ActivityRepository appends entries to a project's activity feed. The
// feed is write-only here; the inbox/feed read paths are separate pages.
type ActivityRepository struct {
	executor DBExecutor
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{executor: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO activities (id, project_id, task_id, actor_id, kind, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ProjectID, nullString(a.TaskID), a.ActorID, a.Kind,
		nullString(a.Detail), a.CreatedAt)
	return err
}

// NotificationRepository persists inbox entries and the unread counter
// source data.
type NotificationRepository struct {
	executor DBExecutor
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{executor: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, kind, actor_id, message, link, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Kind, n.ActorID, n.Message, nullString(n.Link),
		n.Read, n.CreatedAt)
	return err
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`,
		userID).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.executor.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`,
		userID)
	return err
}

// CalendarAccount links a user to an external calendar.
type CalendarAccount struct {
	UserID      string
	CalendarID  string
	AccessToken string
}

// AccountRepository resolves linked calendar accounts. A user without a
// link is a normal condition, reported as a nil account.
type AccountRepository struct {
	executor DBExecutor
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{executor: db}
}

func (r *AccountRepository) LinkedCalendar(ctx context.Context, userID string) (*CalendarAccount, error) {
	var acc CalendarAccount
	err := r.executor.QueryRowContext(ctx,
		`SELECT user_id, calendar_id, access_token FROM calendar_accounts WHERE user_id = $1`,
		userID).Scan(&acc.UserID, &acc.CalendarID, &acc.AccessToken)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

package storage

import (
	"context"
	"database/sql"

	"flowboard-api/domain"
)

// InviteRepository persists team invites.
type InviteRepository struct {
	executor DBExecutor
}

func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{executor: db}
}

func (r *InviteRepository) Create(ctx context.Context, inv *domain.Invite) error {
	_, err := r.executor.ExecContext(ctx,
		`INSERT INTO invites (id, team_id, inviter_id, email, token, accepted)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.TeamID, inv.InviterID, inv.Email, inv.Token, inv.Accepted)
	return err
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*domain.Invite, error) {
	var inv domain.Invite
	err := r.executor.QueryRowContext(ctx,
		`SELECT id, team_id, inviter_id, email, token, accepted
		 FROM invites WHERE token = $1`, token).
		Scan(&inv.ID, &inv.TeamID, &inv.InviterID, &inv.Email, &inv.Token, &inv.Accepted)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) MarkAccepted(ctx context.Context, id string) error {
	res, err := r.executor.ExecContext(ctx,
		`UPDATE invites SET accepted = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

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

// InviteService issues and redeems team invites. Email delivery of the
// token is handled elsewhere; this layer only persists and redeems.
type InviteService struct {
	invites InviteStore
	teams   ProjectStore
	notify  NotificationStore
	cache   Invalidator
	runner  Dispatcher

	now   func() time.Time
	newID func() string
}

func NewInviteService(
	invites InviteStore,
	teams ProjectStore,
	notify NotificationStore,
	cache Invalidator,
	runner Dispatcher,
) *InviteService {
	return &InviteService{
		invites: invites,
		teams:   teams,
		notify:  notify,
		cache:   cache,
		runner:  runner,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateInvite issues a single-use token for joining a team.
func (s *InviteService) CreateInvite(ctx context.Context, actorID, teamID, email string) (*domain.Invite, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if teamID == "" {
		return nil, domain.NewValidationError("teamId is required")
	}
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}

	invite := &domain.Invite{
		ID:        s.newID(),
		TeamID:    teamID,
		InviterID: actorID,
		Email:     email,
		Token:     s.newID(),
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// AcceptInvite redeems a token for the calling user. Accepting touches
// both the inviter's and the new member's cached lists, so all affected
// keys go into one variadic delete.
func (s *InviteService) AcceptInvite(ctx context.Context, userID, token string) (*domain.Invite, error) {
	if err := requireActor(userID); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.NewValidationError("token is required")
	}

	invite, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, mapNotFound(err, "invite")
	}
	if invite.Accepted {
		return nil, domain.NewValidationError("invite already accepted")
	}

	if err := s.invites.MarkAccepted(ctx, invite.ID); err != nil {
		return nil, mapNotFound(err, "invite")
	}
	if err := s.teams.AddTeamMember(ctx, invite.TeamID, userID); err != nil {
		return nil, err
	}
	invite.Accepted = true

	s.notifyInviter(invite, userID)

	s.cache.Invalidate(ctx,
		storage.TeamListKey(invite.InviterID),
		storage.TeamListKey(userID),
		storage.ProjectListKey(userID),
	)
	return invite, nil
}

func (s *InviteService) notifyInviter(invite *domain.Invite, userID string) {
	n := &domain.Notification{
		ID:        s.newID(),
		UserID:    invite.InviterID,
		Kind:      domain.NotifyInvited,
		ActorID:   userID,
		Message:   fmt.Sprintf("%s accepted your invite", invite.Email),
		CreatedAt: s.now().UTC(),
	}
	s.runner.Dispatch(dispatch.Job{
		Name: "notify.invite-accepted",
		Run: func(ctx context.Context) error {
			if err := s.notify.Insert(ctx, n); err != nil {
				return err
			}
			s.cache.Invalidate(ctx, storage.UnreadKey(invite.InviterID))
			return nil
		},
	})
}

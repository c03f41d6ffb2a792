package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowboard-api/domain"
	"flowboard-api/storage"
)

type stubInvites struct {
	byToken  map[string]*domain.Invite
	accepted []string
}

func (s *stubInvites) Create(_ context.Context, inv *domain.Invite) error {
	cp := *inv
	s.byToken[inv.Token] = &cp
	return nil
}

func (s *stubInvites) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	inv, ok := s.byToken[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *inv
	return &cp, nil
}

func (s *stubInvites) MarkAccepted(_ context.Context, id string) error {
	s.accepted = append(s.accepted, id)
	for _, inv := range s.byToken {
		if inv.ID == id {
			inv.Accepted = true
		}
	}
	return nil
}

type inviteFixture struct {
	svc      *InviteService
	invites  *stubInvites
	projects *stubProjects
	notify   *stubNotifications
	cache    *recordingInvalidator
	runner   *syncRunner
}

func newInviteFixture() *inviteFixture {
	f := &inviteFixture{
		invites:  &stubInvites{byToken: map[string]*domain.Invite{}},
		projects: &stubProjects{byID: map[string]*domain.Project{}},
		notify:   &stubNotifications{},
		cache:    &recordingInvalidator{},
		runner:   &syncRunner{},
	}
	f.svc = NewInviteService(f.invites, f.projects, f.notify, f.cache, f.runner)
	n := 0
	f.svc.newID = func() string {
		n++
		return fmt.Sprintf("inv-%d", n)
	}
	return f
}

func TestCreateInviteIssuesToken(t *testing.T) {
	f := newInviteFixture()

	invite, err := f.svc.CreateInvite(context.Background(), "u1", "team1", "new@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Token)
	assert.Equal(t, "u1", invite.InviterID)
	assert.False(t, invite.Accepted)
	assert.Empty(t, f.cache.calls)
}

func TestAcceptInviteJoinsTeamAndEvictsBothMembersLists(t *testing.T) {
	f := newInviteFixture()
	f.invites.byToken["tok"] = &domain.Invite{
		ID: "i1", TeamID: "team1", InviterID: "u1",
		Email: "new@example.com", Token: "tok",
	}

	invite, err := f.svc.AcceptInvite(context.Background(), "u9", "tok")
	require.NoError(t, err)
	assert.True(t, invite.Accepted)
	assert.Equal(t, [][2]string{{"team1", "u9"}}, f.projects.members)

	// The inviter's team list plus the new member's team and project
	// lists go out in one variadic delete; the inviter also gets an
	// inbox entry, whose side effect evicts their unread count.
	require.NotEmpty(t, f.cache.calls)
	last := f.cache.calls[len(f.cache.calls)-1]
	assert.Equal(t, []string{
		storage.TeamListKey("u1"),
		storage.TeamListKey("u9"),
		storage.ProjectListKey("u9"),
	}, last)

	require.Len(t, f.notify.inserted, 1)
	assert.Equal(t, "u1", f.notify.inserted[0].UserID)
	assert.Equal(t, domain.NotifyInvited, f.notify.inserted[0].Kind)
	assert.Contains(t, f.cache.all(), storage.UnreadKey("u1"))
}

func TestAcceptInviteRejectsReuse(t *testing.T) {
	f := newInviteFixture()
	f.invites.byToken["tok"] = &domain.Invite{
		ID: "i1", TeamID: "team1", InviterID: "u1",
		Email: "new@example.com", Token: "tok", Accepted: true,
	}

	_, err := f.svc.AcceptInvite(context.Background(), "u9", "tok")
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, f.projects.members)
}

func TestAcceptInviteUnknownToken(t *testing.T) {
	f := newInviteFixture()

	_, err := f.svc.AcceptInvite(context.Background(), "u9", "nope")
	assert.True(t, domain.IsNotFound(err))
}

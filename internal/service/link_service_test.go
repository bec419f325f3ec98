package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/types"
)

type linkTestEnv struct {
	userRepo  *fakeUserRepo
	linkRepo  *fakeLinkRepo
	notifRepo *fakeNotificationRepo
	svc       LinkService
}

func newLinkTestEnv() *linkTestEnv {
	env := &linkTestEnv{
		userRepo:  newFakeUserRepo(),
		linkRepo:  newFakeLinkRepo(),
		notifRepo: newFakeNotificationRepo(),
	}
	notifSvc := NewNotificationService(env.notifRepo, nil)
	env.svc = NewLinkService(env.linkRepo, env.userRepo, notifSvc, nil, nil)
	return env
}

func (env *linkTestEnv) createUser(t *testing.T, name, email, role string) *repository.User {
	t.Helper()
	user := &repository.User{Email: email, Name: name, Role: role}
	require.NoError(t, env.userRepo.Create(context.Background(), user))
	return user
}

func TestRequestCreatesPendingLink(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	senior := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	family := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)

	link, err := env.svc.Request(ctx, family.ID, "Rosa@Example.com", false)
	require.NoError(t, err)

	// Endpoints land by role no matter who initiated.
	assert.Equal(t, senior.ID, link.SeniorID)
	assert.Equal(t, family.ID, link.FamilyID)
	assert.True(t, link.Pending())
	assert.Equal(t, types.RoleFamily, link.Consent.RequestedBy)
	assert.False(t, link.Consent.EditingApproved)

	// The counterpart is told about the request.
	notifs, err := env.notifRepo.FindByUser(ctx, senior.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "link_requested", notifs[0].Type)
}

func TestRequestRejectsSelfLink(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	senior := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)

	_, err := env.svc.Request(ctx, senior.ID, "rosa@example.com", false)
	assert.ErrorIs(t, err, ErrSelfLink)
}

func TestRequestRejectsSameRole(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	env.createUser(t, "Elena", "elena@example.com", types.RoleSenior)

	_, err := env.svc.Request(ctx, rosa.ID, "elena@example.com", false)
	assert.ErrorIs(t, err, ErrRoleConflict)
}

func TestRequestUnknownCounterpart(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)

	_, err := env.svc.Request(ctx, rosa.ID, "nobody@example.com", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestReplaceExistingLink(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)
	ana := env.createUser(t, "Ana", "ana@example.com", types.RoleFamily)

	// An unrelated pair whose link must survive Rosa's replace.
	elena := env.createUser(t, "Elena", "elena@example.com", types.RoleSenior)
	pedro := env.createUser(t, "Pedro", "pedro@example.com", types.RoleFamily)
	bystander, err := env.svc.Request(ctx, pedro.ID, "elena@example.com", false)
	require.NoError(t, err)

	first, err := env.svc.Request(ctx, rosa.ID, "miguel@example.com", false)
	require.NoError(t, err)

	t.Run("second request needs explicit confirmation", func(t *testing.T) {
		_, err := env.svc.Request(ctx, rosa.ID, "ana@example.com", false)
		assert.ErrorIs(t, err, ErrLinkExists)
	})

	t.Run("confirmed replace deletes only the initiator's link", func(t *testing.T) {
		replacement, err := env.svc.Request(ctx, rosa.ID, "ana@example.com", true)
		require.NoError(t, err)
		assert.Equal(t, ana.ID, replacement.FamilyID)

		gone, err := env.linkRepo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		kept, err := env.linkRepo.FindByID(ctx, bystander.ID)
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.Equal(t, elena.ID, kept.SeniorID)
	})
}

func TestAccept(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	miguel := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)
	stranger := env.createUser(t, "Pedro", "pedro@example.com", types.RoleFamily)

	link, err := env.svc.Request(ctx, miguel.ID, "rosa@example.com", false)
	require.NoError(t, err)

	t.Run("unknown link", func(t *testing.T) {
		_, err := env.svc.Accept(ctx, "link-999", rosa.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("non-participant cannot accept", func(t *testing.T) {
		_, err := env.svc.Accept(ctx, link.ID, stranger.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("initiator cannot accept their own request", func(t *testing.T) {
		_, err := env.svc.Accept(ctx, link.ID, miguel.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("counterpart accepts, editing stays off", func(t *testing.T) {
		accepted, err := env.svc.Accept(ctx, link.ID, rosa.ID)
		require.NoError(t, err)
		assert.True(t, accepted.Active())
		assert.False(t, accepted.Consent.EditingApproved)
		assert.Equal(t, types.RoleFamily, accepted.Consent.RequestedBy)

		// The requester hears back.
		notifs, err := env.notifRepo.FindByUser(ctx, miguel.ID, 10)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, "link_accepted", notifs[0].Type)
	})

	t.Run("accepting an active link fails", func(t *testing.T) {
		_, err := env.svc.Accept(ctx, link.ID, rosa.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestAcceptRemovesCompetingRequests(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	elena := env.createUser(t, "Elena", "elena@example.com", types.RoleSenior)
	miguel := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)

	// Miguel asked Rosa; Elena also asked Miguel.
	wanted, err := env.svc.Request(ctx, miguel.ID, "rosa@example.com", false)
	require.NoError(t, err)
	competing := &repository.Link{
		SeniorID: elena.ID,
		FamilyID: miguel.ID,
		Consent:  repository.ConsentSettings{RequestedBy: types.RoleSenior},
	}
	require.NoError(t, env.linkRepo.Create(ctx, competing))

	_, err = env.svc.Accept(ctx, wanted.ID, rosa.ID)
	require.NoError(t, err)

	// Accepting one request retires every other link touching either party.
	gone, err := env.linkRepo.FindByID(ctx, competing.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestEditingConsent(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	miguel := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)

	link, err := env.svc.Request(ctx, miguel.ID, "rosa@example.com", false)
	require.NoError(t, err)

	t.Run("pending link has no consent to grant", func(t *testing.T) {
		_, err := env.svc.GrantEditing(ctx, link.ID, rosa.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	_, err = env.svc.Accept(ctx, link.ID, rosa.ID)
	require.NoError(t, err)

	t.Run("family cannot grant themselves editing", func(t *testing.T) {
		_, err := env.svc.GrantEditing(ctx, link.ID, miguel.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("senior grants and revokes", func(t *testing.T) {
		granted, err := env.svc.GrantEditing(ctx, link.ID, rosa.ID)
		require.NoError(t, err)
		assert.True(t, granted.Consent.EditingApproved)

		revoked, err := env.svc.RevokeEditing(ctx, link.ID, rosa.ID)
		require.NoError(t, err)
		assert.False(t, revoked.Consent.EditingApproved)
	})
}

func TestDisconnect(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	miguel := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)
	stranger := env.createUser(t, "Pedro", "pedro@example.com", types.RoleFamily)

	link, err := env.svc.Request(ctx, miguel.ID, "rosa@example.com", false)
	require.NoError(t, err)

	t.Run("non-participant cannot disconnect", func(t *testing.T) {
		err := env.svc.Disconnect(ctx, link.ID, stranger.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("either side disconnects unilaterally", func(t *testing.T) {
		require.NoError(t, env.svc.Disconnect(ctx, link.ID, miguel.ID))

		gone, err := env.linkRepo.FindByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		notifs, err := env.notifRepo.FindByUser(ctx, rosa.ID, 10)
		require.NoError(t, err)
		var removed int
		for _, n := range notifs {
			if n.Type == "link_removed" {
				removed++
			}
		}
		assert.Equal(t, 1, removed)
	})

	t.Run("already gone", func(t *testing.T) {
		err := env.svc.Disconnect(ctx, link.ID, miguel.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetForUser(t *testing.T) {
	env := newLinkTestEnv()
	ctx := context.Background()
	rosa := env.createUser(t, "Rosa", "rosa@example.com", types.RoleSenior)
	miguel := env.createUser(t, "Miguel", "miguel@example.com", types.RoleFamily)

	got, err := env.svc.GetForUser(ctx, rosa.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	link, err := env.svc.Request(ctx, miguel.ID, "rosa@example.com", false)
	require.NoError(t, err)

	got, err = env.svc.GetForUser(ctx, rosa.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, link.ID, got.ID)
}

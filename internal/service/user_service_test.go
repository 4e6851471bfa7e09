package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/domain"
	"histotrek/internal/validator"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
	"histotrek/pkg/password"
)

func (f *fixture) userService() *UserService {
	return NewUserService(f.users, f.sessions, f.favorites, f.reviews, f.sc, logger.Nop())
}

func TestUserService_RequiresLogin(t *testing.T) {
	f := newFixture(t)
	svc := f.userService()
	ctx := context.Background()

	_, err := svc.CurrentUser()
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	_, err = svc.UpdateSettings(ctx, domain.SettingsInput{})
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	f.sc.SetCurrentUser(f.user(t, "alice", domain.RoleUser))
	_, err = svc.ListUsers(ctx)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestUserService_UpdateSettings(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", domain.RoleUser)
	f.user(t, "bobby", domain.RoleUser)
	f.sc.SetCurrentUser(alice)
	svc := f.userService()
	ctx := context.Background()

	errs, err := svc.UpdateSettings(ctx, domain.SettingsInput{Username: "bobby", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, validator.Errors{validator.FieldUsername: validator.KeyUsernameTaken}, errs)

	errs, err = svc.UpdateSettings(ctx, domain.SettingsInput{Username: "alice.w", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.True(t, errs.Valid())

	stored, err := f.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice.w", stored.Username)
	assert.True(t, password.Matches("secret", stored.PasswordHash), "blank password keeps the old one")
	assert.Equal(t, "alice.w", f.sc.CurrentUser().Username)

	_, err = svc.UpdateSettings(ctx, domain.SettingsInput{Username: "alice.w", Email: "alice@example.com", Password: "newpass"})
	require.NoError(t, err)
	stored, err = f.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, password.Matches("newpass", stored.PasswordHash))
}

func TestUserService_ChangeRole(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	alice := f.user(t, "alice", domain.RoleUser)
	f.sc.SetCurrentUser(admin)
	svc := f.userService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangeRole(ctx, alice.ID, "ROOT"), domain.ErrInvalidRole)

	require.NoError(t, svc.ChangeRole(ctx, alice.ID, domain.RoleAdmin))
	stored, err := f.users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	require.NoError(t, svc.ChangeRole(ctx, admin.ID, domain.RoleUser))
	assert.False(t, f.sc.CurrentUser().IsAdmin(), "own demotion is reflected in the session")

	users, err := svc.ListUsers(ctx)
	assert.Nil(t, users)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestUserService_DeleteAccount(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bobby", domain.RoleUser)
	place := f.place(t, "Pantheon")
	ctx := context.Background()

	require.NoError(t, f.sessions.CreateSession(ctx, alice.ID, "token"))
	_, err := f.favorites.Add(ctx, alice.ID, place.ID)
	require.NoError(t, err)
	require.NoError(t, f.reviews.Create(ctx, &domain.Review{PlaceID: place.ID, UserID: alice.ID, Text: "Nice", Rating: 4}))

	svc := f.userService()

	f.sc.SetCurrentUser(bob)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, alice.ID), domain.ErrNotOwner)

	f.sc.SetCurrentUser(alice)
	require.NoError(t, svc.DeleteAccount(ctx, alice.ID))
	assert.False(t, f.sc.IsAuthenticated())

	_, err = f.users.FindByID(ctx, alice.ID)
	assert.True(t, apperrors.IsNotFound(err))

	reviews, err := f.reviews.FindByPlaceID(ctx, place.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	exists, err := f.favorites.Exists(ctx, alice.ID, place.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.sessions.FindUserByActiveSession(ctx)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserService_AdminDeletesOtherAccount(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	alice := f.user(t, "alice", domain.RoleUser)
	f.sc.SetCurrentUser(admin)
	ctx := context.Background()

	svc := f.userService()
	require.NoError(t, svc.DeleteAccount(ctx, alice.ID))
	assert.Equal(t, admin.ID, f.sc.CurrentUser().ID)

	assert.True(t, apperrors.IsNotFound(svc.DeleteAccount(ctx, alice.ID)))
}

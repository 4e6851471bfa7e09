package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/domain"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
)

func TestFavoriteService_Toggle(t *testing.T) {
	f := newFixture(t)
	place := f.place(t, "Pantheon")
	svc := NewFavoriteService(f.favorites, f.places, f.sc, logger.Nop())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, place.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	f.sc.SetCurrentUser(f.user(t, "alice", domain.RoleUser))

	added, err := svc.Toggle(ctx, place.ID)
	require.NoError(t, err)
	assert.True(t, added)

	isFav, err := svc.IsFavorite(ctx, place.ID)
	require.NoError(t, err)
	assert.True(t, isFav)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, place.ID, list[0].ID)

	added, err = svc.Toggle(ctx, place.ID)
	require.NoError(t, err)
	assert.False(t, added)

	isFav, err = svc.IsFavorite(ctx, place.ID)
	require.NoError(t, err)
	assert.False(t, isFav)

	_, err = svc.Toggle(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))
}

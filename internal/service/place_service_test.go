package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/domain"
	"histotrek/internal/validator"
	"histotrek/pkg/cache"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
)

func (f *fixture) placeService() domain.PlaceService {
	return NewPlaceService(f.places, f.favorites, f.reviews, f.sc, logger.Nop())
}

func TestPlaceService_AdminOnlyWrites(t *testing.T) {
	f := newFixture(t)
	svc := f.placeService()
	ctx := context.Background()
	place := &domain.Place{Name: "Petra"}

	_, err := svc.Create(ctx, place)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	f.sc.SetCurrentUser(f.user(t, "alice", domain.RoleUser))
	_, err = svc.Create(ctx, place)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(svc.Delete(ctx, 1)))
}

func TestPlaceService_CreateValidatesAndStores(t *testing.T) {
	f := newFixture(t)
	f.sc.SetCurrentUser(f.user(t, "admin", domain.RoleAdmin))
	svc := f.placeService()
	ctx := context.Background()

	errs, err := svc.Create(ctx, &domain.Place{Name: "Petra", ImageURL: "petra.jpg"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		validator.FieldCountry:     validator.KeyRequired,
		validator.FieldEra:         validator.KeyRequired,
		validator.FieldDescription: validator.KeyRequired,
		validator.FieldImageURL:    validator.KeyImageURLInvalid,
	}, errs)

	place := &domain.Place{Name: "Petra", Country: "Jordan", Era: "Nabataean", Description: "Rock cut city", ImageURL: "http://example.com/petra.jpg"}
	errs, err = svc.Create(ctx, place)
	require.NoError(t, err)
	assert.Empty(t, errs)

	found, err := svc.Get(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, place, found)

	results, err := svc.Search(ctx, domain.PlaceFilter{Query: "ROCK"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestPlaceService_DeleteRemovesDependents(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	place := f.place(t, "Pantheon")
	ctx := context.Background()

	_, err := f.favorites.Add(ctx, admin.ID, place.ID)
	require.NoError(t, err)
	require.NoError(t, f.reviews.Create(ctx, &domain.Review{PlaceID: place.ID, UserID: admin.ID, Text: "Dome", Rating: 5}))

	f.sc.SetCurrentUser(admin)
	svc := f.placeService()
	require.NoError(t, svc.Delete(ctx, place.ID))

	_, err = svc.Get(ctx, place.ID)
	assert.True(t, apperrors.IsNotFound(err))

	favorites, err := f.favorites.FindPlacesByUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, place.ID)))
}

func TestCachedPlaceService_InvalidatesOnWrite(t *testing.T) {
	f := newFixture(t)
	f.sc.SetCurrentUser(f.user(t, "admin", domain.RoleAdmin))
	f.place(t, "Pantheon")
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	manager := cache.NewManager(cache.NewRedisCache(client, logger.Nop(), "test"), logger.Nop())

	svc := NewCachedPlaceService(f.placeService(), manager, 0, logger.Nop())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("test:place:list"))

	// A write behind the cache's back stays invisible until invalidation.
	require.NoError(t, f.places.Create(ctx, &domain.Place{Name: "Acropolis", Country: "Greece", Era: "Classical", Description: "Citadel", ImageURL: "https://example.com/a.jpg"}))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	errs, err := svc.Create(ctx, &domain.Place{Name: "Petra", Country: "Jordan", Era: "Nabataean", Description: "Rock city", ImageURL: "https://example.com/p.jpg"})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.False(t, mr.Exists("test:place:list"))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	got, err := svc.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0], got)

	_, err = svc.Get(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, mr.Exists("test:place:id:999"), "misses are not cached")

	require.NoError(t, svc.WarmUp(ctx))
	assert.True(t, mr.Exists("test:place:list"))
	assert.True(t, mr.Exists("test:place:id:1"))
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/clock"
	"histotrek/pkg/logger"
)

const favoriteTable = "favorite"

type FavoriteRepository struct {
	base
}

func NewFavoriteRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.FavoriteRepository {
	return &FavoriteRepository{base: newBase(cm, logger, "favorite")}
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, placeID int64) (*domain.Favorite, error) {
	start := time.Now()
	fav := &domain.Favorite{
		UserID:    userID,
		PlaceID:   placeID,
		CreatedAt: clock.Now(ctx),
	}

	ds := r.builder().Insert(favoriteTable).Rows(goqu.Record{
		"user_id":    fav.UserID,
		"place_id":   fav.PlaceID,
		"created_at": fav.CreatedAt,
	})

	id, err := r.insert(ctx, ds)
	fields := map[string]interface{}{"user_id": userID, "place_id": placeID}
	if err := r.finish(ctx, "add", start, err, "Favorite could not be added", fields); err != nil {
		return nil, err
	}

	fav.ID = id
	return fav, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, placeID int64) error {
	start := time.Now()
	ds := r.builder().Delete(favoriteTable).Where(
		goqu.C("user_id").Eq(userID),
		goqu.C("place_id").Eq(placeID),
	)

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "remove", start, err, "Favorite could not be removed",
		map[string]interface{}{"user_id": userID, "place_id": placeID})
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, placeID int64) (bool, error) {
	start := time.Now()
	ds := r.builder().From(favoriteTable).Select(goqu.COUNT("*")).Where(
		goqu.C("user_id").Eq(userID),
		goqu.C("place_id").Eq(placeID),
	)

	var count int
	err := r.queryRow(ctx, ds, &count)
	if err := r.finish(ctx, "exists", start, err, "Favorite lookup failed",
		map[string]interface{}{"user_id": userID, "place_id": placeID}); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FavoriteRepository) FindPlacesByUser(ctx context.Context, userID int64) ([]*domain.Place, error) {
	start := time.Now()
	ds := r.builder().
		From(goqu.T(favoriteTable).As("f")).
		Join(goqu.T(placeTable).As("p"), goqu.On(goqu.I("f.place_id").Eq(goqu.I("p.id")))).
		Select(
			goqu.I("p.id"), goqu.I("p.name"), goqu.I("p.country"),
			goqu.I("p.era"), goqu.I("p.description"), goqu.I("p.image_url"),
		).
		Where(goqu.I("f.user_id").Eq(userID)).
		Order(goqu.I("f.created_at").Desc(), goqu.I("f.id").Desc())

	places := make([]*domain.Place, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		p, err := scanPlace(rows)
		if err != nil {
			return err
		}
		places = append(places, p)
		return nil
	})

	if err := r.finish(ctx, "find_places_by_user", start, err, "Favorite places could not be listed",
		map[string]interface{}{"user_id": userID}); err != nil {
		return nil, err
	}
	return places, nil
}

func (r *FavoriteRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	start := time.Now()
	_, err := r.exec(ctx, r.builder().Delete(favoriteTable).Where(goqu.C("user_id").Eq(userID)))
	return r.finish(ctx, "delete_by_user", start, err, "Favorites could not be deleted", map[string]interface{}{"user_id": userID})
}

func (r *FavoriteRepository) DeleteByPlaceID(ctx context.Context, placeID int64) error {
	start := time.Now()
	_, err := r.exec(ctx, r.builder().Delete(favoriteTable).Where(goqu.C("place_id").Eq(placeID)))
	return r.finish(ctx, "delete_by_place", start, err, "Favorites could not be deleted", map[string]interface{}{"place_id": placeID})
}

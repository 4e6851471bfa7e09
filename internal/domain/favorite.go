package domain

import (
	"context"
	"time"
)

type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlaceID   int64     `json:"place_id"`
	CreatedAt time.Time `json:"created_at"`
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID, placeID int64) (*Favorite, error)
	Remove(ctx context.Context, userID, placeID int64) error
	Exists(ctx context.Context, userID, placeID int64) (bool, error)
	// FindPlacesByUser lists the user's favorite places, newest favorite first.
	FindPlacesByUser(ctx context.Context, userID int64) ([]*Place, error)
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteByPlaceID(ctx context.Context, placeID int64) error
}

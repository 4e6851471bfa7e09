package domain

import (
	"context"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        int64     `json:"id"`
	PlaceID   int64     `json:"place_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingSummary struct {
	PlaceID int64   `json:"place_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Review, error)
	FindByPlaceID(ctx context.Context, placeID int64) ([]*Review, error)
	FindByUserID(ctx context.Context, userID int64) ([]*Review, error)
	FindAll(ctx context.Context) ([]*Review, error)
	RatingSummary(ctx context.Context, placeID int64) (*RatingSummary, error)
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteByPlaceID(ctx context.Context, placeID int64) error
}

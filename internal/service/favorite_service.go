package service

import (
	"context"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/pkg/logger"
)

type FavoriteService struct {
	favorites domain.FavoriteRepository
	places    domain.PlaceRepository
	session   *session.Context
	logger    logger.Logger
}

func NewFavoriteService(
	favorites domain.FavoriteRepository,
	places domain.PlaceRepository,
	sc *session.Context,
	logger logger.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		places:    places,
		session:   sc,
		logger:    logger.WithFields(map[string]interface{}{"service": "favorite"}),
	}
}

// Toggle adds the place to the current user's favorites, or removes it when
// it is already there. It reports whether the place is a favorite afterwards.
func (s *FavoriteService) Toggle(ctx context.Context, placeID int64) (bool, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return false, err
	}

	exists, err := s.favorites.Exists(ctx, user.ID, placeID)
	if err != nil {
		return false, err
	}

	if exists {
		if err := s.favorites.Remove(ctx, user.ID, placeID); err != nil {
			return false, err
		}
		s.logger.DebugContext(s.session.Annotate(ctx), "Favorite removed", map[string]interface{}{"place_id": placeID})
		return false, nil
	}

	if _, err := s.places.FindByID(ctx, placeID); err != nil {
		return false, err
	}
	if _, err := s.favorites.Add(ctx, user.ID, placeID); err != nil {
		return false, err
	}

	s.logger.DebugContext(s.session.Annotate(ctx), "Favorite added", map[string]interface{}{"place_id": placeID})
	return true, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, placeID int64) (bool, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return false, err
	}
	return s.favorites.Exists(ctx, user.ID, placeID)
}

func (s *FavoriteService) List(ctx context.Context) ([]*domain.Place, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.favorites.FindPlacesByUser(ctx, user.ID)
}

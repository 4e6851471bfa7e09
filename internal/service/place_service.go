package service

import (
	"context"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/internal/validator"
	"histotrek/pkg/logger"
)

type PlaceService struct {
	places    domain.PlaceRepository
	favorites domain.FavoriteRepository
	reviews   domain.ReviewRepository
	validator *validator.PlaceValidator
	session   *session.Context
	logger    logger.Logger
}

func NewPlaceService(
	places domain.PlaceRepository,
	favorites domain.FavoriteRepository,
	reviews domain.ReviewRepository,
	sc *session.Context,
	logger logger.Logger,
) domain.PlaceService {
	return &PlaceService{
		places:    places,
		favorites: favorites,
		reviews:   reviews,
		validator: validator.NewPlaceValidator(),
		session:   sc,
		logger:    logger.WithFields(map[string]interface{}{"service": "place"}),
	}
}

func (s *PlaceService) List(ctx context.Context) ([]*domain.Place, error) {
	return s.places.FindAll(ctx)
}

func (s *PlaceService) Search(ctx context.Context, filter domain.PlaceFilter) ([]*domain.Place, error) {
	if filter.IsEmpty() {
		return s.places.FindAll(ctx)
	}
	return s.places.Search(ctx, filter)
}

func (s *PlaceService) Get(ctx context.Context, id int64) (*domain.Place, error) {
	return s.places.FindByID(ctx, id)
}

func (s *PlaceService) Create(ctx context.Context, place *domain.Place) (map[string]string, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}

	errs, err := s.validator.Validate(place)
	if err != nil || !errs.Valid() {
		return errs, err
	}

	if err := s.places.Create(ctx, place); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Place created", map[string]interface{}{"place_id": place.ID, "name": place.Name})
	return errs, nil
}

func (s *PlaceService) Update(ctx context.Context, place *domain.Place) (map[string]string, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}

	errs, err := s.validator.Validate(place)
	if err != nil || !errs.Valid() {
		return errs, err
	}

	if err := s.places.Update(ctx, place); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Place updated", map[string]interface{}{"place_id": place.ID})
	return errs, nil
}

// Delete removes the place after its favorites and reviews.
func (s *PlaceService) Delete(ctx context.Context, id int64) error {
	if _, err := s.session.RequireAdmin(); err != nil {
		return err
	}

	if _, err := s.places.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.favorites.DeleteByPlaceID(ctx, id); err != nil {
		return err
	}
	if err := s.reviews.DeleteByPlaceID(ctx, id); err != nil {
		return err
	}
	if err := s.places.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Place deleted", map[string]interface{}{"place_id": id})
	return nil
}

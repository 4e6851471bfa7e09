package service

import (
	"context"
	"time"

	"histotrek/internal/domain"
	"histotrek/pkg/cache"
	"histotrek/pkg/logger"
)

// CachedPlaceService serves place reads through the cache and drops every
// cached place entry after a successful write.
type CachedPlaceService struct {
	places domain.PlaceService
	cache  *cache.Manager
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedPlaceService(places domain.PlaceService, manager *cache.Manager, ttl time.Duration, logger logger.Logger) *CachedPlaceService {
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	return &CachedPlaceService{
		places: places,
		cache:  manager,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedPlaceService) List(ctx context.Context) ([]*domain.Place, error) {
	return cache.ReadThrough(ctx, s.cache, cache.PlaceListKey, s.ttl, func() ([]*domain.Place, error) {
		return s.places.List(ctx)
	})
}

func (s *CachedPlaceService) Search(ctx context.Context, filter domain.PlaceFilter) ([]*domain.Place, error) {
	key := cache.PlaceSearchCacheKey(filter.Query, filter.Country, filter.Era)
	return cache.ReadThrough(ctx, s.cache, key, s.ttl, func() ([]*domain.Place, error) {
		return s.places.Search(ctx, filter)
	})
}

func (s *CachedPlaceService) Get(ctx context.Context, id int64) (*domain.Place, error) {
	return cache.ReadThrough(ctx, s.cache, cache.PlaceCacheKey(id), s.ttl, func() (*domain.Place, error) {
		return s.places.Get(ctx, id)
	})
}

func (s *CachedPlaceService) Create(ctx context.Context, place *domain.Place) (map[string]string, error) {
	errs, err := s.places.Create(ctx, place)
	if err == nil && len(errs) == 0 {
		s.cache.Invalidate(ctx, cache.PlacePrefix)
	}
	return errs, err
}

func (s *CachedPlaceService) Update(ctx context.Context, place *domain.Place) (map[string]string, error) {
	errs, err := s.places.Update(ctx, place)
	if err == nil && len(errs) == 0 {
		s.cache.Invalidate(ctx, cache.PlacePrefix)
	}
	return errs, err
}

func (s *CachedPlaceService) Delete(ctx context.Context, id int64) error {
	if err := s.places.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.PlacePrefix)
	return nil
}

// WarmUp preloads the catalogue and every place by id.
func (s *CachedPlaceService) WarmUp(ctx context.Context) error {
	places, err := s.places.List(ctx)
	if err != nil {
		s.logger.Error("Place catalogue could not be loaded for warm-up", map[string]interface{}{"error": err.Error()})
		return err
	}

	items := make(map[string]interface{}, len(places)+1)
	items[cache.PlaceListKey] = places
	for _, p := range places {
		items[cache.PlaceCacheKey(p.ID)] = p
	}

	return s.cache.WarmUp(ctx, items, s.ttl)
}

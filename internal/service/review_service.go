package service

import (
	"context"
	"strings"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/pkg/logger"
)

type ReviewService struct {
	reviews domain.ReviewRepository
	places  domain.PlaceRepository
	session *session.Context
	logger  logger.Logger
}

func NewReviewService(
	reviews domain.ReviewRepository,
	places domain.PlaceRepository,
	sc *session.Context,
	logger logger.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		places:  places,
		session: sc,
		logger:  logger.WithFields(map[string]interface{}{"service": "review"}),
	}
}

func checkReview(text string, rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.ErrInvalidRating
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyReview
	}
	return nil
}

func (s *ReviewService) Add(ctx context.Context, placeID int64, text string, rating int) (*domain.Review, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	if err := checkReview(text, rating); err != nil {
		return nil, err
	}
	if _, err := s.places.FindByID(ctx, placeID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		PlaceID:  placeID,
		UserID:   user.ID,
		Username: user.Username,
		Text:     strings.TrimSpace(text),
		Rating:   rating,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Review added", map[string]interface{}{"review_id": review.ID, "place_id": placeID})
	return review, nil
}

// authorize loads the review and checks that the current user owns it or is
// an administrator.
func (s *ReviewService) authorize(ctx context.Context, reviewID int64) (*domain.Review, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.UserID != user.ID && !user.IsAdmin() {
		return nil, domain.ErrNotOwner
	}
	return review, nil
}

func (s *ReviewService) Edit(ctx context.Context, reviewID int64, text string, rating int) (*domain.Review, error) {
	review, err := s.authorize(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := checkReview(text, rating); err != nil {
		return nil, err
	}

	review.Text = strings.TrimSpace(text)
	review.Rating = rating
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Review edited", map[string]interface{}{"review_id": reviewID})
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, reviewID int64) error {
	if _, err := s.authorize(ctx, reviewID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Review deleted", map[string]interface{}{"review_id": reviewID})
	return nil
}

func (s *ReviewService) ListForPlace(ctx context.Context, placeID int64) ([]*domain.Review, error) {
	return s.reviews.FindByPlaceID(ctx, placeID)
}

func (s *ReviewService) ListAll(ctx context.Context) ([]*domain.Review, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.reviews.FindAll(ctx)
}

func (s *ReviewService) Summary(ctx context.Context, placeID int64) (*domain.RatingSummary, error) {
	return s.reviews.RatingSummary(ctx, placeID)
}

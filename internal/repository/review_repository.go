package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/clock"
	"histotrek/pkg/logger"
)

const reviewTable = "review"

type ReviewRepository struct {
	base
}

func NewReviewRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.ReviewRepository {
	return &ReviewRepository{base: newBase(cm, logger, "review")}
}

// selectReviews joins the author so every review carries its username.
func (r *ReviewRepository) selectReviews(where ...exp.Expression) *goqu.SelectDataset {
	return r.builder().
		From(goqu.T(reviewTable).As("r")).
		Join(goqu.T(usersTable).As("u"), goqu.On(goqu.I("r.user_id").Eq(goqu.I("u.id")))).
		Select(
			goqu.I("r.id"), goqu.I("r.place_id"), goqu.I("r.user_id"), goqu.I("u.username"),
			goqu.I("r.text"), goqu.I("r.rating"), goqu.I("r.created_at"),
		).
		Where(where...).
		Order(goqu.I("r.created_at").Desc(), goqu.I("r.id").Desc())
}

func scanReview(row interface{ Scan(...interface{}) error }) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(&rv.ID, &rv.PlaceID, &rv.UserID, &rv.Username, &rv.Text, &rv.Rating, &rv.CreatedAt); err != nil {
		return nil, err
	}
	rv.CreatedAt = rv.CreatedAt.UTC()
	return &rv, nil
}

func (r *ReviewRepository) list(ctx context.Context, op string, ds *goqu.SelectDataset, fields map[string]interface{}) ([]*domain.Review, error) {
	start := time.Now()

	reviews := make([]*domain.Review, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		rv, err := scanReview(rows)
		if err != nil {
			return err
		}
		reviews = append(reviews, rv)
		return nil
	})

	if err := r.finish(ctx, op, start, err, "Reviews could not be listed", fields); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create stores review. The rating is stored as given.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	start := time.Now()
	review.CreatedAt = clock.Now(ctx)

	ds := r.builder().Insert(reviewTable).Rows(goqu.Record{
		"place_id":   review.PlaceID,
		"user_id":    review.UserID,
		"text":       review.Text,
		"rating":     review.Rating,
		"created_at": review.CreatedAt,
	})

	id, err := r.insert(ctx, ds)
	fields := map[string]interface{}{"place_id": review.PlaceID, "user_id": review.UserID}
	if err := r.finish(ctx, "create", start, err, "Review could not be created", fields); err != nil {
		return err
	}

	review.ID = id
	return nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	start := time.Now()
	ds := r.builder().Update(reviewTable).
		Set(goqu.Record{"text": review.Text, "rating": review.Rating}).
		Where(goqu.C("id").Eq(review.ID))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "update", start, err, "Review could not be updated", map[string]interface{}{"id": review.ID})
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.execOne(ctx, r.builder().Delete(reviewTable).Where(goqu.C("id").Eq(id)))
	return r.finish(ctx, "delete", start, err, "Review could not be deleted", map[string]interface{}{"id": id})
}

func (r *ReviewRepository) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	start := time.Now()

	var review *domain.Review
	err := r.query(ctx, r.selectReviews(goqu.I("r.id").Eq(id)), func(rows *sql.Rows) error {
		var err error
		review, err = scanReview(rows)
		return err
	})
	if err == nil && review == nil {
		err = sql.ErrNoRows
	}

	if err := r.finish(ctx, "find_by_id", start, err, "Review lookup failed", map[string]interface{}{"id": id}); err != nil {
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) FindByPlaceID(ctx context.Context, placeID int64) ([]*domain.Review, error) {
	return r.list(ctx, "find_by_place", r.selectReviews(goqu.I("r.place_id").Eq(placeID)),
		map[string]interface{}{"place_id": placeID})
}

func (r *ReviewRepository) FindByUserID(ctx context.Context, userID int64) ([]*domain.Review, error) {
	return r.list(ctx, "find_by_user", r.selectReviews(goqu.I("r.user_id").Eq(userID)),
		map[string]interface{}{"user_id": userID})
}

func (r *ReviewRepository) FindAll(ctx context.Context) ([]*domain.Review, error) {
	return r.list(ctx, "find_all", r.selectReviews(), nil)
}

func (r *ReviewRepository) RatingSummary(ctx context.Context, placeID int64) (*domain.RatingSummary, error) {
	start := time.Now()
	ds := r.builder().From(reviewTable).
		Select(goqu.COALESCE(goqu.AVG("rating"), 0), goqu.COUNT("*")).
		Where(goqu.C("place_id").Eq(placeID))

	summary := &domain.RatingSummary{PlaceID: placeID}
	err := r.queryRow(ctx, ds, &summary.Average, &summary.Count)
	if err := r.finish(ctx, "rating_summary", start, err, "Rating summary failed", map[string]interface{}{"place_id": placeID}); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *ReviewRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	start := time.Now()
	_, err := r.exec(ctx, r.builder().Delete(reviewTable).Where(goqu.C("user_id").Eq(userID)))
	return r.finish(ctx, "delete_by_user", start, err, "Reviews could not be deleted", map[string]interface{}{"user_id": userID})
}

func (r *ReviewRepository) DeleteByPlaceID(ctx context.Context, placeID int64) error {
	start := time.Now()
	_, err := r.exec(ctx, r.builder().Delete(reviewTable).Where(goqu.C("place_id").Eq(placeID)))
	return r.finish(ctx, "delete_by_place", start, err, "Reviews could not be deleted", map[string]interface{}{"place_id": placeID})
}

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
)

const placeTable = "place"

var placeColumns = []interface{}{"id", "name", "country", "era", "description", "image_url"}

type PlaceRepository struct {
	base
}

func NewPlaceRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.PlaceRepository {
	return &PlaceRepository{base: newBase(cm, logger, "place")}
}

func scanPlace(row interface{ Scan(...interface{}) error }) (*domain.Place, error) {
	var p domain.Place
	if err := row.Scan(&p.ID, &p.Name, &p.Country, &p.Era, &p.Description, &p.ImageURL); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaceRepository) list(ctx context.Context, op string, ds *goqu.SelectDataset, fields map[string]interface{}) ([]*domain.Place, error) {
	start := time.Now()

	places := make([]*domain.Place, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		p, err := scanPlace(rows)
		if err != nil {
			return err
		}
		places = append(places, p)
		return nil
	})

	if err := r.finish(ctx, op, start, err, "Places could not be listed", fields); err != nil {
		return nil, err
	}
	return places, nil
}

func (r *PlaceRepository) FindByID(ctx context.Context, id int64) (*domain.Place, error) {
	start := time.Now()
	ds := r.builder().From(placeTable).Select(placeColumns...).Where(goqu.C("id").Eq(id))

	var p domain.Place
	err := r.queryRow(ctx, ds, &p.ID, &p.Name, &p.Country, &p.Era, &p.Description, &p.ImageURL)
	if err := r.finish(ctx, "find_by_id", start, err, "Place lookup failed", map[string]interface{}{"id": id}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaceRepository) FindAll(ctx context.Context) ([]*domain.Place, error) {
	ds := r.builder().From(placeTable).Select(placeColumns...).Order(goqu.C("name").Asc(), goqu.C("id").Asc())
	return r.list(ctx, "find_all", ds, nil)
}

// Search matches Query as a case insensitive substring of the name or the
// description, and Country and Era exactly.
func (r *PlaceRepository) Search(ctx context.Context, filter domain.PlaceFilter) ([]*domain.Place, error) {
	conditions := make([]exp.Expression, 0, 3)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		conditions = append(conditions, goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("description").ILike(pattern),
		))
	}
	if filter.Country != "" {
		conditions = append(conditions, goqu.C("country").Eq(filter.Country))
	}
	if filter.Era != "" {
		conditions = append(conditions, goqu.C("era").Eq(filter.Era))
	}

	ds := r.builder().From(placeTable).Select(placeColumns...).
		Where(conditions...).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())

	return r.list(ctx, "search", ds, map[string]interface{}{
		"query":   filter.Query,
		"country": filter.Country,
		"era":     filter.Era,
	})
}

func placeRecord(p *domain.Place) goqu.Record {
	return goqu.Record{
		"name":        p.Name,
		"country":     p.Country,
		"era":         p.Era,
		"description": p.Description,
		"image_url":   p.ImageURL,
	}
}

func (r *PlaceRepository) Create(ctx context.Context, place *domain.Place) error {
	start := time.Now()

	id, err := r.insert(ctx, r.builder().Insert(placeTable).Rows(placeRecord(place)))
	if err := r.finish(ctx, "create", start, err, "Place could not be created", map[string]interface{}{"name": place.Name}); err != nil {
		return err
	}

	place.ID = id
	return nil
}

func (r *PlaceRepository) Update(ctx context.Context, place *domain.Place) error {
	start := time.Now()
	ds := r.builder().Update(placeTable).Set(placeRecord(place)).Where(goqu.C("id").Eq(place.ID))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "update", start, err, "Place could not be updated", map[string]interface{}{"id": place.ID})
}

func (r *PlaceRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	ds := r.builder().Delete(placeTable).Where(goqu.C("id").Eq(id))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "delete", start, err, "Place could not be deleted", map[string]interface{}{"id": id})
}

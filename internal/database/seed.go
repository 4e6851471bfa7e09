package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/password"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@histotrek.local"
	DefaultAdminPassword = "admin123"
)

var samplePlaces = []domain.Place{
	{
		Name:        "Colosseum",
		Country:     "Italy",
		Era:         "Ancient Rome",
		Description: "Oval amphitheatre in the centre of Rome, completed in 80 AD under Titus.",
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/d/de/Colosseo_2020.jpg",
	},
	{
		Name:        "Great Pyramid of Giza",
		Country:     "Egypt",
		Era:         "Old Kingdom",
		Description: "Oldest and largest of the pyramids of the Giza complex, built for the pharaoh Khufu.",
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/e/e3/Kheops-Pyramid.jpg",
	},
	{
		Name:        "Machu Picchu",
		Country:     "Peru",
		Era:         "Inca Empire",
		Description: "Fifteenth century Inca citadel on a mountain ridge above the Sacred Valley.",
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/e/eb/Machu_Picchu%2C_Peru.jpg",
	},
	{
		Name:        "Saint Basil's Cathedral",
		Country:     "Russia",
		Era:         "Tsardom of Russia",
		Description: "Cathedral on Red Square commissioned by Ivan the Terrible and consecrated in 1561.",
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/5/5b/Saint_Basils_Cathedral.jpg",
	},
	{
		Name:        "Great Wall of China",
		Country:     "China",
		Era:         "Ming Dynasty",
		Description: "Series of fortifications built across the historical northern borders of China.",
		ImageURL:    "https://upload.wikimedia.org/wikipedia/commons/2/23/The_Great_Wall_of_China_at_Jinshanling.jpg",
	},
}

func SeedMigrations() []Migration {
	return []Migration{
		{"seed_admin_user", SeedAdminUser},
		{"seed_sample_places", SeedSamplePlaces},
	}
}

// SeedAdminUser inserts the default administrator unless the username is already taken.
func SeedAdminUser(ctx context.Context, tx *sql.Tx, d dbpool.Dialect) error {
	exists, err := rowExists(ctx, tx, d.Builder().
		From("users").
		Select(goqu.COUNT("*")).
		Where(goqu.C("username").Eq(DefaultAdminUsername)))
	if err != nil || exists {
		return err
	}

	query, args, err := d.Builder().
		Insert("users").
		Rows(goqu.Record{
			"username": DefaultAdminUsername,
			"email":    DefaultAdminEmail,
			"password": password.Hash(DefaultAdminPassword),
			"role":     string(domain.RoleAdmin),
		}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// SeedSamplePlaces inserts the sample catalogue into an empty place table.
func SeedSamplePlaces(ctx context.Context, tx *sql.Tx, d dbpool.Dialect) error {
	exists, err := rowExists(ctx, tx, d.Builder().From("place").Select(goqu.COUNT("*")))
	if err != nil || exists {
		return err
	}

	rows := make([]interface{}, 0, len(samplePlaces))
	for _, p := range samplePlaces {
		rows = append(rows, goqu.Record{
			"name":        p.Name,
			"country":     p.Country,
			"era":         p.Era,
			"description": p.Description,
			"image_url":   p.ImageURL,
		})
	}

	query, args, err := d.Builder().Insert("place").Rows(rows...).ToSQL()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func rowExists(ctx context.Context, tx *sql.Tx, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return false, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

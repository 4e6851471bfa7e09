package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"histotrek/internal/config"
	"histotrek/internal/database"
	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
	"histotrek/pkg/password"
)

// SetupTestDatabase opens a migrated SQLite database in a temp dir behind a
// pool of the given size. The pool is shut down when the test ends.
func SetupTestDatabase(t *testing.T, size int) *dbpool.ConnectionManager {
	t.Helper()

	cfg := config.DatabaseConfig{
		URL:      "sqlite://" + filepath.Join(t.TempDir(), "histotrek.db") + "?_busy_timeout=5000",
		PoolSize: size,
		RunDDL:   true,
	}

	ctx := context.Background()
	cm, err := dbpool.NewConnectionManager(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Shutdown() })

	require.NoError(t, database.NewMigrationService(cm, logger.Nop()).Run(ctx, cfg))

	return cm
}

// Exec runs a raw statement, for fixtures the repositories do not expose.
func Exec(t *testing.T, cm *dbpool.ConnectionManager, query string, args ...interface{}) {
	t.Helper()

	err := cm.WithConn(context.Background(), func(conn *dbpool.PooledConn) error {
		_, err := conn.ExecContext(context.Background(), query, args...)
		return err
	})
	require.NoError(t, err)
}

func NewUser(username string, role domain.Role) *domain.User {
	return &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: password.Hash(username + "-pass"),
		Role:         role,
	}
}

func NewPlace(name string) *domain.Place {
	return &domain.Place{
		Name:        name,
		Country:     "Italy",
		Era:         "Ancient Rome",
		Description: name + " description",
		ImageURL:    "https://example.com/" + name + ".jpg",
	}
}

// Date returns a fixed UTC instant, handy for clock.Fixed.
func Date(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"histotrek/internal/config"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/clock"
	"histotrek/pkg/logger"
)

const migrationsTable = "migrations"

type Migration struct {
	Name string
	Func func(ctx context.Context, tx *sql.Tx, d dbpool.Dialect) error
}

type MigrationService struct {
	cm     *dbpool.ConnectionManager
	logger logger.Logger
}

func NewMigrationService(cm *dbpool.ConnectionManager, logger logger.Logger) *MigrationService {
	return &MigrationService{
		cm:     cm,
		logger: logger.WithFields(map[string]interface{}{"component": "migrations"}),
	}
}

// Run applies the schema when db.run.ddl is set and the seed data when db.run.dml is set.
func (m *MigrationService) Run(ctx context.Context, cfg config.DatabaseConfig) error {
	if cfg.RunDDL {
		if err := m.RunMigrations(ctx); err != nil {
			return err
		}
	}
	if cfg.RunDML {
		if err := m.RunSeeds(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MigrationService) InitMigrationTable(ctx context.Context) error {
	d := m.cm.Dialect()
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        id %s,
        name VARCHAR(255) NOT NULL UNIQUE,
        applied_at %s NOT NULL
    )`, migrationsTable, d.IDColumn, d.TimestampType)

	err := m.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		_, err := conn.ExecContext(ctx, query)
		return err
	})
	if err != nil {
		m.logger.Error("Migration table could not be created", map[string]interface{}{"error": err.Error()})
		return dbpool.Classify(err, "migration table could not be created")
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, name string) (bool, error) {
	query, args, err := m.cm.Dialect().Builder().
		From(migrationsTable).
		Select(goqu.COUNT("*")).
		Where(goqu.C("name").Eq(name)).
		ToSQL()
	if err != nil {
		return false, dbpool.Classify(err, "migration lookup could not be built")
	}

	var count int
	err = m.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		return conn.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		m.logger.Error("Migration state could not be checked", map[string]interface{}{"name": name, "error": err.Error()})
		return false, dbpool.Classify(err, "migration state could not be checked")
	}

	return count > 0, nil
}

// ApplyMigration runs one migration and records it in the same transaction.
func (m *MigrationService) ApplyMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration.Name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Debug("Migration already applied", map[string]interface{}{"name": migration.Name})
		return nil
	}

	m.logger.Info("Applying migration", map[string]interface{}{"name": migration.Name})

	d := m.cm.Dialect()
	record, args, err := d.Builder().
		Insert(migrationsTable).
		Rows(goqu.Record{"name": migration.Name, "applied_at": clock.Now(ctx)}).
		ToSQL()
	if err != nil {
		return dbpool.Classify(err, "migration record could not be built")
	}

	err = m.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if err := migration.Func(ctx, tx, d); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := tx.ExecContext(ctx, record, args...); err != nil {
			tx.Rollback()
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		m.logger.Error("Migration rolled back", map[string]interface{}{"name": migration.Name, "error": err.Error()})
		return dbpool.Classify(err, fmt.Sprintf("migration %s failed", migration.Name))
	}

	m.logger.Info("Migration applied", map[string]interface{}{"name": migration.Name})
	return nil
}

func (m *MigrationService) apply(ctx context.Context, migrations []Migration) error {
	if err := m.InitMigrationTable(ctx); err != nil {
		return err
	}

	for _, migration := range migrations {
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	m.logger.Info("Running schema migrations", nil)
	return m.apply(ctx, SchemaMigrations())
}

func (m *MigrationService) RunSeeds(ctx context.Context) error {
	m.logger.Info("Running seed data", nil)
	return m.apply(ctx, SeedMigrations())
}

// statements executes each DDL statement in order.
func statements(build func(d dbpool.Dialect) []string) func(ctx context.Context, tx *sql.Tx, d dbpool.Dialect) error {
	return func(ctx context.Context, tx *sql.Tx, d dbpool.Dialect) error {
		for _, stmt := range build(d) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

func SchemaMigrations() []Migration {
	return []Migration{
		{"create_users_table", statements(CreateUsersTable)},
		{"create_place_table", statements(CreatePlaceTable)},
		{"create_favorite_table", statements(CreateFavoriteTable)},
		{"create_review_table", statements(CreateReviewTable)},
		{"create_report_table", statements(CreateReportTable)},
		{"create_user_session_table", statements(CreateUserSessionTable)},
	}
}

func CreateUsersTable(d dbpool.Dialect) []string {
	return []string{fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS users (
        id %s,
        username VARCHAR(30) NOT NULL UNIQUE,
        email VARCHAR(255) NOT NULL UNIQUE,
        password VARCHAR(64) NOT NULL,
        role VARCHAR(10) NOT NULL DEFAULT 'USER'
    )`, d.IDColumn)}
}

func CreatePlaceTable(d dbpool.Dialect) []string {
	return []string{fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS place (
        id %s,
        name VARCHAR(255) NOT NULL,
        country VARCHAR(128) NOT NULL,
        era VARCHAR(128) NOT NULL,
        description TEXT NOT NULL,
        image_url VARCHAR(1024) NOT NULL
    )`, d.IDColumn)}
}

func CreateFavoriteTable(d dbpool.Dialect) []string {
	return []string{
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS favorite (
        id %s,
        user_id BIGINT NOT NULL,
        place_id BIGINT NOT NULL,
        created_at %s NOT NULL,
        UNIQUE (user_id, place_id),
        FOREIGN KEY (user_id) REFERENCES users (id),
        FOREIGN KEY (place_id) REFERENCES place (id)
    )`, d.IDColumn, d.TimestampType),
	}
}

func CreateReviewTable(d dbpool.Dialect) []string {
	return []string{
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS review (
        id %s,
        place_id BIGINT NOT NULL,
        user_id BIGINT NOT NULL,
        text TEXT NOT NULL,
        rating INTEGER NOT NULL,
        created_at %s NOT NULL,
        FOREIGN KEY (place_id) REFERENCES place (id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    )`, d.IDColumn, d.TimestampType),
		`CREATE INDEX review_place_id_idx ON review (place_id)`,
	}
}

func CreateReportTable(d dbpool.Dialect) []string {
	return []string{fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS report (
        id %s,
        type VARCHAR(20) NOT NULL,
        generated_at %s NOT NULL,
        content TEXT NOT NULL
    )`, d.IDColumn, d.TimestampType)}
}

func CreateUserSessionTable(d dbpool.Dialect) []string {
	return []string{
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS user_session (
        user_id BIGINT NOT NULL,
        session_token VARCHAR(64) NOT NULL UNIQUE,
        is_active SMALLINT NOT NULL DEFAULT 1,
        login_time %s NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    )`, d.TimestampType),
		`CREATE INDEX user_session_active_idx ON user_session (is_active, login_time)`,
	}
}

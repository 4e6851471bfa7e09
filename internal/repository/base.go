package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	dbpool "histotrek/pkg/database"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
	"histotrek/pkg/metrics"
)

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

// base holds what every DAO needs: the pool, a logger and the entity name
// used in logs and metrics. Each call checks out its own connection.
type base struct {
	cm     *dbpool.ConnectionManager
	logger logger.Logger
	entity string
}

func newBase(cm *dbpool.ConnectionManager, log logger.Logger, entity string) base {
	return base{
		cm:     cm,
		logger: log.WithFields(map[string]interface{}{"repository": entity}),
		entity: entity,
	}
}

func (b *base) builder() goqu.DialectWrapper {
	return b.cm.Dialect().Builder()
}

// finish records the operation and turns err into a typed error. Missing rows
// are not logged as failures.
func (b *base) finish(ctx context.Context, op string, start time.Time, err error, msg string, fields map[string]interface{}) error {
	metrics.RecordDatabaseOperation(op, b.entity, time.Since(start), err)
	if err == nil {
		return nil
	}

	classified := dbpool.Classify(err, msg)
	if apperrors.IsNotFound(classified) {
		return classified
	}

	logFields := map[string]interface{}{"operation": op, "error": err.Error()}
	for k, v := range fields {
		logFields[k] = v
	}
	b.logger.ErrorContext(ctx, msg, logFields)

	return classified
}

func (b *base) queryRow(ctx context.Context, ds sqlBuilder, dest ...interface{}) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return err
	}

	return b.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		return conn.QueryRowContext(ctx, query, args...).Scan(dest...)
	})
}

// query runs ds and hands every row to scan.
func (b *base) query(ctx context.Context, ds sqlBuilder, scan func(rows *sql.Rows) error) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return err
	}

	return b.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

func (b *base) exec(ctx context.Context, ds sqlBuilder) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}

	var affected int64
	err = b.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// execOne is exec for statements that must touch a row.
func (b *base) execOne(ctx context.Context, ds sqlBuilder) error {
	affected, err := b.exec(ctx, ds)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// insert runs ds and returns the generated id, through RETURNING where the
// dialect has it and LastInsertId otherwise.
func (b *base) insert(ctx context.Context, ds *goqu.InsertDataset) (int64, error) {
	if b.cm.Dialect().UseReturning {
		var id int64
		err := b.queryRow(ctx, ds.Returning("id"), &id)
		return id, err
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}

	var id int64
	err = b.cm.WithConn(ctx, func(conn *dbpool.PooledConn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

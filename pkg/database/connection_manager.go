package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"histotrek/internal/config"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
	"histotrek/pkg/metrics"
)

// ErrPoolClosed is returned by Acquire after Shutdown.
var ErrPoolClosed = apperrors.NewConnectionError("connection pool is shut down", nil)

// ConnectionManager is a fixed-size pool of pinned connections. Acquire blocks
// until one is free; there is no health check and no leak detection, so a
// handle that is never released shrinks the pool for good.
type ConnectionManager struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger

	size  int
	conns []*sql.Conn
	pool  chan *sql.Conn
	inUse atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// PooledConn is a checked out connection. Release (or Close) hands it back to
// the pool exactly once; later calls do nothing.
type PooledConn struct {
	conn *sql.Conn
	cm   *ConnectionManager
	once sync.Once
}

func NewConnectionManager(ctx context.Context, cfg config.DatabaseConfig, logger logger.Logger) (*ConnectionManager, error) {
	dialect, dsn, err := ParseURL(cfg.URL, cfg.Username, cfg.Password)
	if err != nil {
		return nil, apperrors.NewConnectionError("database url could not be parsed", err)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, apperrors.NewConnectionError("database could not be opened", err)
	}

	cm, err := NewFromDB(ctx, db, dialect, cfg.PoolSize, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return cm, nil
}

// NewFromDB pins size connections of an already opened database.
func NewFromDB(ctx context.Context, db *sql.DB, dialect Dialect, size int, logger logger.Logger) (*ConnectionManager, error) {
	if size < 1 {
		return nil, apperrors.NewValidationError("pool size must be positive")
	}

	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(0)

	cm := &ConnectionManager{
		db:      db,
		dialect: dialect,
		logger:  logger.WithFields(map[string]interface{}{"component": "connection_manager"}),
		size:    size,
		conns:   make([]*sql.Conn, 0, size),
		pool:    make(chan *sql.Conn, size),
		done:    make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			for _, opened := range cm.conns {
				opened.Close()
			}
			cm.logger.Error("Pooled connection could not be opened", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			return nil, apperrors.NewConnectionError("pooled connection could not be opened", err)
		}
		cm.conns = append(cm.conns, conn)
		cm.pool <- conn
	}

	metrics.UpdatePoolStats(size, 0)
	cm.logger.Info("Connection pool ready", map[string]interface{}{
		"driver": dialect.Driver,
		"size":   size,
	})

	return cm, nil
}

// Acquire waits for a free connection. Cancelling ctx aborts the wait with a
// Connection error; the pool itself never times out.
func (cm *ConnectionManager) Acquire(ctx context.Context) (*PooledConn, error) {
	if cm.isClosed() {
		return nil, ErrPoolClosed
	}

	start := time.Now()

	select {
	case conn := <-cm.pool:
		if cm.isClosed() {
			return nil, ErrPoolClosed
		}
		inUse := cm.inUse.Add(1)
		metrics.RecordPoolWait(time.Since(start))
		metrics.UpdatePoolStats(cm.size, int(inUse))
		return &PooledConn{conn: conn, cm: cm}, nil

	case <-cm.done:
		return nil, ErrPoolClosed

	case <-ctx.Done():
		cm.logger.WarnContext(ctx, "Waiting for a pooled connection was interrupted", map[string]interface{}{
			"waited": time.Since(start).String(),
			"in_use": cm.InUse(),
		})
		return nil, apperrors.NewConnectionError("waiting for a pooled connection was interrupted", ctx.Err())
	}
}

// WithConn acquires a connection, runs fn and releases the connection.
func (cm *ConnectionManager) WithConn(ctx context.Context, fn func(conn *PooledConn) error) error {
	conn, err := cm.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}

func (cm *ConnectionManager) release(conn *sql.Conn) {
	inUse := cm.inUse.Add(-1)
	metrics.UpdatePoolStats(cm.size, int(inUse))

	if cm.isClosed() {
		return
	}

	// Never blocks: the channel holds size slots and each connection is either
	// in the channel or checked out.
	cm.pool <- conn
}

func (cm *ConnectionManager) isClosed() bool {
	select {
	case <-cm.done:
		return true
	default:
		return false
	}
}

// Shutdown closes every pinned connection and the underlying database.
// Meant for process exit; blocked Acquire calls return ErrPoolClosed.
func (cm *ConnectionManager) Shutdown() error {
	var errs []error

	cm.closeOnce.Do(func() {
		close(cm.done)

		for _, conn := range cm.conns {
			if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
				errs = append(errs, err)
				cm.logger.Error("Pooled connection could not be closed", map[string]interface{}{"error": err.Error()})
			}
		}

		if err := cm.db.Close(); err != nil {
			errs = append(errs, err)
			cm.logger.Error("Database could not be closed", map[string]interface{}{"error": err.Error()})
		}

		metrics.UpdatePoolStats(0, 0)
		cm.logger.Info("Connection pool shut down", nil)
	})

	return errors.Join(errs...)
}

// Close is Shutdown, for io.Closer.
func (cm *ConnectionManager) Close() error {
	return cm.Shutdown()
}

func (cm *ConnectionManager) Dialect() Dialect {
	return cm.dialect
}

func (cm *ConnectionManager) Size() int {
	return cm.size
}

func (cm *ConnectionManager) InUse() int {
	return int(cm.inUse.Load())
}

func (cm *ConnectionManager) GetStats() map[string]interface{} {
	dbStats := cm.db.Stats()
	return map[string]interface{}{
		"driver":           cm.dialect.Driver,
		"size":             cm.size,
		"in_use":           cm.InUse(),
		"available":        len(cm.pool),
		"closed":           cm.isClosed(),
		"open_connections": dbStats.OpenConnections,
	}
}

// Release returns the connection to its pool.
func (pc *PooledConn) Release() {
	pc.once.Do(func() {
		pc.cm.release(pc.conn)
	})
}

func (pc *PooledConn) Close() error {
	pc.Release()
	return nil
}

func (pc *PooledConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return pc.conn.ExecContext(ctx, query, args...)
}

func (pc *PooledConn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return pc.conn.QueryContext(ctx, query, args...)
}

func (pc *PooledConn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return pc.conn.QueryRowContext(ctx, query, args...)
}

func (pc *PooledConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return pc.conn.BeginTx(ctx, opts)
}

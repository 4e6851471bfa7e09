package database

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/config"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
)

func newTestPool(t *testing.T, size int) *ConnectionManager {
	t.Helper()

	cfg := config.DatabaseConfig{
		URL:      "sqlite://" + filepath.Join(t.TempDir(), "pool.db") + "?_busy_timeout=5000",
		PoolSize: size,
	}

	cm, err := NewConnectionManager(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Shutdown() })

	return cm
}

func TestConnectionManager_OpensFixedSize(t *testing.T) {
	cm := newTestPool(t, 3)

	assert.Equal(t, 3, cm.Size())
	assert.Equal(t, 0, cm.InUse())
	assert.Equal(t, SQLite, cm.Dialect())

	stats := cm.GetStats()
	assert.Equal(t, 3, stats["available"])
	assert.Equal(t, false, stats["closed"])
}

func TestConnectionManager_InvalidSize(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:      "sqlite://" + filepath.Join(t.TempDir(), "pool.db"),
		PoolSize: 0,
	}

	_, err := NewConnectionManager(context.Background(), cfg, logger.Nop())

	assert.Error(t, err)
}

func TestConnectionManager_InvalidURL(t *testing.T) {
	cfg := config.DatabaseConfig{URL: "oracle://nowhere", PoolSize: 1}

	_, err := NewConnectionManager(context.Background(), cfg, logger.Nop())

	assert.True(t, apperrors.IsConnection(err))
}

func TestConnectionManager_PooledConnExecutes(t *testing.T) {
	cm := newTestPool(t, 2)
	ctx := context.Background()

	err := cm.WithConn(ctx, func(conn *PooledConn) error {
		if _, err := conn.ExecContext(ctx, "CREATE TABLE visits (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
			return err
		}
		_, err := conn.ExecContext(ctx, "INSERT INTO visits (name) VALUES (?)", "Petra")
		return err
	})
	require.NoError(t, err)

	var name string
	err = cm.WithConn(ctx, func(conn *PooledConn) error {
		return conn.QueryRowContext(ctx, "SELECT name FROM visits WHERE id = 1").Scan(&name)
	})
	require.NoError(t, err)
	assert.Equal(t, "Petra", name)
	assert.Equal(t, 0, cm.InUse())
}

func TestConnectionManager_ExhaustedPoolBlocksUntilCancelled(t *testing.T) {
	cm := newTestPool(t, 2)
	ctx := context.Background()

	first, err := cm.Acquire(ctx)
	require.NoError(t, err)
	second, err := cm.Acquire(ctx)
	require.NoError(t, err)
	defer first.Release()
	defer second.Release()

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = cm.Acquire(waitCtx)

	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, cm.InUse())
}

func TestConnectionManager_ReleaseWakesWaiter(t *testing.T) {
	cm := newTestPool(t, 1)
	ctx := context.Background()

	held, err := cm.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan *PooledConn, 1)
	go func() {
		conn, err := cm.Acquire(ctx)
		if err == nil {
			acquired <- conn
		}
	}()

	select {
	case <-acquired:
		t.Fatal("waiter must block while the only connection is checked out")
	case <-time.After(50 * time.Millisecond):
	}

	held.Release()

	select {
	case conn := <-acquired:
		assert.Equal(t, 1, cm.InUse())
		conn.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by release")
	}
}

func TestConnectionManager_DoubleReleaseIsNoop(t *testing.T) {
	cm := newTestPool(t, 2)

	conn, err := cm.Acquire(context.Background())
	require.NoError(t, err)

	conn.Release()
	conn.Release()
	require.NoError(t, conn.Close())

	assert.Equal(t, 0, cm.InUse())
	assert.Equal(t, 2, cm.GetStats()["available"])
}

func TestConnectionManager_NeverExceedsSize(t *testing.T) {
	const size = 3
	cm := newTestPool(t, size)
	ctx := context.Background()

	var current, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := cm.WithConn(ctx, func(conn *PooledConn) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(size))
	assert.Equal(t, 0, cm.InUse())
}

func TestConnectionManager_Shutdown(t *testing.T) {
	cm := newTestPool(t, 1)
	ctx := context.Background()

	held, err := cm.Acquire(ctx)
	require.NoError(t, err)

	waiterErr := make(chan error, 1)
	go func() {
		_, err := cm.Acquire(ctx)
		waiterErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cm.Shutdown())

	select {
	case err := <-waiterErr:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked waiter was not released by shutdown")
	}

	assert.NotPanics(t, held.Release)

	_, err = cm.Acquire(ctx)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, cm.Shutdown(), "second shutdown is a no-op")
}

func TestNewFromDB_WithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cm, err := NewFromDB(context.Background(), db, Postgres, 1, logger.Nop())
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM user_session").WillReturnResult(sqlmock.NewResult(0, 2))

	err = cm.WithConn(context.Background(), func(conn *PooledConn) error {
		res, err := conn.ExecContext(context.Background(), "DELETE FROM user_session WHERE user_id = $1", 4)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		assert.Equal(t, int64(2), affected)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	assert.NoError(t, cm.Shutdown())
}

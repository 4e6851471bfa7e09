package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histotrek/internal/config"
	"histotrek/internal/database"
	"histotrek/internal/domain"
	"histotrek/internal/service"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:   "test",
		Locale:   "en",
		LogLevel: "error",
		Database: config.DatabaseConfig{
			URL:      "sqlite://" + filepath.Join(t.TempDir(), "factory.db") + "?_busy_timeout=5000",
			PoolSize: 2,
			RunDDL:   true,
			RunDML:   true,
		},
	}
}

func TestNewFactory_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	f, err := NewFactory(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.GetMigrationService().Run(ctx, cfg.Database))
	assert.IsType(t, &service.PlaceService{}, f.GetPlaceService())
	assert.Nil(t, f.GetCache())

	errs, err := f.GetAuthService().Login(ctx, database.DefaultAdminUsername, database.DefaultAdminPassword, true)
	require.NoError(t, err)
	require.True(t, errs.Valid())
	assert.True(t, f.GetSession().CurrentUser().IsAdmin())

	places, err := f.GetPlaceService().List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, places)

	report, err := f.GetReportService().Generate(ctx, domain.ReportTypeFull)
	require.NoError(t, err)
	assert.Contains(t, report.Content, "Places: ")

	f.GetSession().Clear()
	restored, err := f.GetAuthService().RestoreSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, database.DefaultAdminUsername, restored.Username)

	messages := f.GetTranslator().Translate(cfg.Locale, errs)
	assert.Empty(t, messages)
}

func TestNewFactory_WithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.RedisAddr = mr.Addr()

	f, err := NewFactory(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer f.Close()

	assert.IsType(t, &service.CachedPlaceService{}, f.GetPlaceService())
	require.NotNil(t, f.GetCache())
	assert.NoError(t, f.GetCache().Ping(context.Background()))
}

func TestNewFactory_BadRedisShutsPoolDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	_, err := NewFactory(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
}

func TestFactory_CloseShutsPoolDown(t *testing.T) {
	f, err := NewFactory(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = f.GetConnectionManager().Acquire(context.Background())
	assert.True(t, apperrors.IsConnection(err))
}

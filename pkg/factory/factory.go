package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"histotrek/internal/config"
	"histotrek/internal/database"
	"histotrek/internal/domain"
	"histotrek/internal/i18n"
	"histotrek/internal/repository"
	"histotrek/internal/service"
	"histotrek/internal/session"
	"histotrek/pkg/cache"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
	redisclient "histotrek/pkg/redis"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetConnectionManager() *dbpool.ConnectionManager
	// GetCache is nil when no redis address is configured.
	GetCache() *cache.Manager
	GetSession() *session.Context
	GetTranslator() *i18n.Translator
	GetMigrationService() *database.MigrationService

	GetUserRepository() domain.UserRepository
	GetSessionRepository() domain.SessionRepository
	GetPlaceRepository() domain.PlaceRepository
	GetFavoriteRepository() domain.FavoriteRepository
	GetReviewRepository() domain.ReviewRepository
	GetReportRepository() domain.ReportRepository

	GetAuthService() *service.AuthService
	GetUserService() *service.UserService
	GetPlaceService() domain.PlaceService
	GetFavoriteService() *service.FavoriteService
	GetReviewService() *service.ReviewService
	GetReportService() *service.ReportService

	// Close releases the redis client and shuts the pool down.
	Close() error
}

type AppFactory struct {
	config      *config.Config
	logger      logger.Logger
	cm          *dbpool.ConnectionManager
	redisClient *redis.Client
	cache       *cache.Manager
	session     *session.Context
	translator  *i18n.Translator
	migrations  *database.MigrationService

	userRepository     domain.UserRepository
	sessionRepository  domain.SessionRepository
	placeRepository    domain.PlaceRepository
	favoriteRepository domain.FavoriteRepository
	reviewRepository   domain.ReviewRepository
	reportRepository   domain.ReportRepository

	authService     *service.AuthService
	userService     *service.UserService
	placeService    domain.PlaceService
	favoriteService *service.FavoriteService
	reviewService   *service.ReviewService
	reportService   *service.ReportService
}

// NewFactory opens the pool and builds every component. The redis cache is
// only wired when cache.redis.addr is set.
func NewFactory(ctx context.Context, cfg *config.Config, log logger.Logger) (Factory, error) {
	cm, err := dbpool.NewConnectionManager(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	translator, err := i18n.NewTranslator()
	if err != nil {
		cm.Shutdown()
		return nil, fmt.Errorf("translator could not be built: %w", err)
	}

	factory := &AppFactory{
		config:     cfg,
		logger:     log,
		cm:         cm,
		session:    session.NewContext(),
		translator: translator,
		migrations: database.NewMigrationService(cm, log),
	}

	if cfg.Cache.Enabled() {
		client, err := redisclient.NewClient(ctx, cfg.Cache)
		if err != nil {
			cm.Shutdown()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		factory.redisClient = client
		factory.cache = cache.NewManager(cache.NewRedisCache(client, log, "histotrek"), log)
	}

	factory.initRepositories()
	factory.initServices()

	return factory, nil
}

func (f *AppFactory) initRepositories() {
	f.userRepository = repository.NewUserRepository(f.cm, f.logger)
	f.sessionRepository = repository.NewSessionRepository(f.cm, f.logger)
	f.placeRepository = repository.NewPlaceRepository(f.cm, f.logger)
	f.favoriteRepository = repository.NewFavoriteRepository(f.cm, f.logger)
	f.reviewRepository = repository.NewReviewRepository(f.cm, f.logger)
	f.reportRepository = repository.NewReportRepository(f.cm, f.logger)
}

func (f *AppFactory) initServices() {
	f.authService = service.NewAuthService(f.userRepository, f.sessionRepository, f.session, f.logger)

	f.userService = service.NewUserService(
		f.userRepository,
		f.sessionRepository,
		f.favoriteRepository,
		f.reviewRepository,
		f.session,
		f.logger,
	)

	basePlaceService := service.NewPlaceService(f.placeRepository, f.favoriteRepository, f.reviewRepository, f.session, f.logger)
	if f.cache != nil {
		f.placeService = service.NewCachedPlaceService(basePlaceService, f.cache, f.config.Cache.TTL, f.logger)
	} else {
		f.placeService = basePlaceService
	}

	f.favoriteService = service.NewFavoriteService(f.favoriteRepository, f.placeRepository, f.session, f.logger)
	f.reviewService = service.NewReviewService(f.reviewRepository, f.placeRepository, f.session, f.logger)
	f.reportService = service.NewReportService(
		f.reportRepository,
		f.userRepository,
		f.placeRepository,
		f.reviewRepository,
		f.session,
		f.logger,
	)
}

func (f *AppFactory) Close() error {
	var errs []error
	if f.redisClient != nil {
		errs = append(errs, f.redisClient.Close())
	}
	errs = append(errs, f.cm.Shutdown())
	return errors.Join(errs...)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetConnectionManager() *dbpool.ConnectionManager {
	return f.cm
}

func (f *AppFactory) GetCache() *cache.Manager {
	return f.cache
}

func (f *AppFactory) GetSession() *session.Context {
	return f.session
}

func (f *AppFactory) GetTranslator() *i18n.Translator {
	return f.translator
}

func (f *AppFactory) GetMigrationService() *database.MigrationService {
	return f.migrations
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetSessionRepository() domain.SessionRepository {
	return f.sessionRepository
}

func (f *AppFactory) GetPlaceRepository() domain.PlaceRepository {
	return f.placeRepository
}

func (f *AppFactory) GetFavoriteRepository() domain.FavoriteRepository {
	return f.favoriteRepository
}

func (f *AppFactory) GetReviewRepository() domain.ReviewRepository {
	return f.reviewRepository
}

func (f *AppFactory) GetReportRepository() domain.ReportRepository {
	return f.reportRepository
}

func (f *AppFactory) GetAuthService() *service.AuthService {
	return f.authService
}

func (f *AppFactory) GetUserService() *service.UserService {
	return f.userService
}

func (f *AppFactory) GetPlaceService() domain.PlaceService {
	return f.placeService
}

func (f *AppFactory) GetFavoriteService() *service.FavoriteService {
	return f.favoriteService
}

func (f *AppFactory) GetReviewService() *service.ReviewService {
	return f.reviewService
}

func (f *AppFactory) GetReportService() *service.ReportService {
	return f.reportService
}

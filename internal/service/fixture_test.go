package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"histotrek/internal/domain"
	"histotrek/internal/repository"
	"histotrek/internal/session"
	"histotrek/internal/testutil"
	"histotrek/pkg/logger"
	"histotrek/pkg/password"
)

type fixture struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	places    domain.PlaceRepository
	favorites domain.FavoriteRepository
	reviews   domain.ReviewRepository
	reports   domain.ReportRepository
	sc        *session.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cm := testutil.SetupTestDatabase(t, 3)
	log := logger.Nop()

	return &fixture{
		users:     repository.NewUserRepository(cm, log),
		sessions:  repository.NewSessionRepository(cm, log),
		places:    repository.NewPlaceRepository(cm, log),
		favorites: repository.NewFavoriteRepository(cm, log),
		reviews:   repository.NewReviewRepository(cm, log),
		reports:   repository.NewReportRepository(cm, log),
		sc:        session.NewContext(),
	}
}

// user stores an account whose password is "secret".
func (f *fixture) user(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()

	u := testutil.NewUser(username, role)
	u.PasswordHash = password.Hash("secret")
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) place(t *testing.T, name string) *domain.Place {
	t.Helper()

	p := testutil.NewPlace(name)
	require.NoError(t, f.places.Create(context.Background(), p))
	return p
}

func (f *fixture) auth() *AuthService {
	return NewAuthService(f.users, f.sessions, f.sc, logger.Nop())
}

var (
	time1 = testutil.Date(1, 9)
	time2 = testutil.Date(2, 9)
)

package service

import (
	"context"

	"github.com/google/uuid"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/internal/validator"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/logger"
	"histotrek/pkg/metrics"
	"histotrek/pkg/password"
)

const (
	loginSuccess  = "success"
	loginRejected = "rejected"
	loginRestored = "restored"
	loginFailed   = "error"
)

type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	login    *validator.LoginValidator
	signup   *validator.SignupValidator
	session  *session.Context
	logger   logger.Logger
}

func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	sc *session.Context,
	logger logger.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		login:    validator.NewLoginValidator(users),
		signup:   validator.NewSignupValidator(users),
		session:  sc,
		logger:   logger.WithFields(map[string]interface{}{"service": "auth"}),
	}
}

// Login validates the credentials and makes the user current. With remember
// set a session row is stored so the next start logs in automatically.
func (s *AuthService) Login(ctx context.Context, login, pass string, remember bool) (validator.Errors, error) {
	errs, err := s.login.Validate(ctx, login, pass)
	if err != nil {
		metrics.RecordLogin(loginFailed)
		return nil, err
	}
	if !errs.Valid() {
		metrics.RecordLogin(loginRejected)
		s.logger.InfoContext(ctx, "Login rejected", map[string]interface{}{"login": login, "errors": len(errs)})
		return errs, nil
	}

	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		metrics.RecordLogin(loginFailed)
		return nil, err
	}

	if err := s.start(ctx, user, remember); err != nil {
		metrics.RecordLogin(loginFailed)
		return nil, err
	}

	metrics.RecordLogin(loginSuccess)
	s.logger.InfoContext(s.session.Annotate(ctx), "User logged in", map[string]interface{}{"remember": remember})
	return errs, nil
}

// Signup registers a USER account and logs it in. Uniqueness is checked by a
// scan before the insert; a concurrent duplicate surfaces as a constraint
// violation from the database.
func (s *AuthService) Signup(ctx context.Context, input domain.SignupInput, remember bool) (validator.Errors, error) {
	errs, err := s.signup.Validate(ctx, input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	if !errs.Valid() {
		return errs, nil
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: password.Hash(input.Password),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.start(ctx, user, remember); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "User signed up", map[string]interface{}{"username": user.Username})
	return errs, nil
}

func (s *AuthService) start(ctx context.Context, user *domain.User, remember bool) error {
	if remember {
		if err := s.sessions.CreateSession(ctx, user.ID, uuid.NewString()); err != nil {
			return err
		}
	}

	s.session.SetCurrentUser(user)
	return nil
}

// RestoreSession logs in the owner of the most recent active session. It
// returns nil without error when there is none.
func (s *AuthService) RestoreSession(ctx context.Context) (*domain.User, error) {
	user, err := s.sessions.FindUserByActiveSession(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Debug("No remembered session", nil)
			return nil, nil
		}
		return nil, err
	}

	s.session.SetCurrentUser(user)
	metrics.RecordLogin(loginRestored)
	s.logger.InfoContext(s.session.Annotate(ctx), "Session restored", map[string]interface{}{"username": user.Username})
	return user, nil
}

// Logout deactivates the remembered sessions of the current user and clears
// the session context.
func (s *AuthService) Logout(ctx context.Context) error {
	user := s.session.CurrentUser()
	if user == nil {
		return nil
	}

	if err := s.sessions.DeactivateByUserID(ctx, user.ID); err != nil {
		return err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "User logged out", nil)
	s.session.Clear()
	return nil
}

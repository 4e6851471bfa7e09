package service

import (
	"context"
	"strings"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/internal/validator"
	"histotrek/pkg/logger"
	"histotrek/pkg/password"
)

type UserService struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	favorites domain.FavoriteRepository
	reviews   domain.ReviewRepository
	settings  *validator.SettingsValidator
	session   *session.Context
	logger    logger.Logger
}

func NewUserService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	favorites domain.FavoriteRepository,
	reviews domain.ReviewRepository,
	sc *session.Context,
	logger logger.Logger,
) *UserService {
	return &UserService{
		users:     users,
		sessions:  sessions,
		favorites: favorites,
		reviews:   reviews,
		settings:  validator.NewSettingsValidator(users),
		session:   sc,
		logger:    logger.WithFields(map[string]interface{}{"service": "user"}),
	}
}

func (s *UserService) CurrentUser() (*domain.User, error) {
	return s.session.RequireUser()
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.users.FindAll(ctx)
}

// UpdateSettings changes the current user's username, email and, when given,
// password.
func (s *UserService) UpdateSettings(ctx context.Context, input domain.SettingsInput) (validator.Errors, error) {
	current, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}

	errs, err := s.settings.Validate(ctx, current, input)
	if err != nil || !errs.Valid() {
		return errs, err
	}

	updated := *current
	updated.Username = input.Username
	updated.Email = input.Email
	if strings.TrimSpace(input.Password) != "" {
		updated.PasswordHash = password.Hash(input.Password)
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.session.SetCurrentUser(&updated)
	s.logger.InfoContext(s.session.Annotate(ctx), "Settings updated", map[string]interface{}{
		"password_changed": updated.PasswordHash != current.PasswordHash,
	})
	return errs, nil
}

func (s *UserService) ChangeRole(ctx context.Context, userID int64, role domain.Role) error {
	admin, err := s.session.RequireAdmin()
	if err != nil {
		return err
	}
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	if userID == admin.ID {
		updated := *admin
		updated.Role = role
		s.session.SetCurrentUser(&updated)
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Role changed", map[string]interface{}{"target_id": userID, "role": role})
	return nil
}

// DeleteAccount removes a user with everything they own. Users may delete
// themselves; administrators may delete anyone.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	actor, err := s.session.RequireUser()
	if err != nil {
		return err
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return domain.ErrNotOwner
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.favorites.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.reviews.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Account deleted", map[string]interface{}{"target_id": userID})

	if actor.ID == userID {
		s.session.Clear()
	}
	return nil
}

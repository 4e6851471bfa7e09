package validator

import (
	"context"

	"histotrek/internal/domain"
	apperrors "histotrek/pkg/errors"
	"histotrek/pkg/password"
)

type loginForm struct {
	Login    string `json:"login" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

type LoginValidator struct {
	users domain.UserRepository
}

func NewLoginValidator(users domain.UserRepository) *LoginValidator {
	return &LoginValidator{users: users}
}

// Validate checks the credentials. The user is looked up only when both
// fields are present; lookup failures other than a missing row are returned
// as errors.
func (v *LoginValidator) Validate(ctx context.Context, login, pass string) (Errors, error) {
	result, err := check(loginForm{Login: login, Password: pass})
	if err != nil || !result.Valid() {
		return result, err
	}

	user, err := v.users.FindByLogin(ctx, login)
	if err != nil {
		if apperrors.IsNotFound(err) {
			result.Add(FieldLogin, KeyUserNotFound)
			return result, nil
		}
		return nil, err
	}

	if !password.Matches(pass, user.PasswordHash) {
		result.Add(FieldPassword, KeyWrongPassword)
	}

	return result, nil
}

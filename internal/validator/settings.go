package validator

import (
	"context"
	"strings"

	"histotrek/internal/domain"
)

type settingsForm struct {
	Username string `json:"username" validate:"notblank,username"`
	Email    string `json:"email" validate:"notblank,email_strict"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type SettingsValidator struct {
	users domain.UserRepository
}

func NewSettingsValidator(users domain.UserRepository) *SettingsValidator {
	return &SettingsValidator{users: users}
}

// Validate checks profile changes of current. Values equal to the current
// ones are never reported as taken.
func (v *SettingsValidator) Validate(ctx context.Context, current *domain.User, input domain.SettingsInput) (Errors, error) {
	form := settingsForm{
		Username: input.Username,
		Email:    input.Email,
		Password: strings.TrimSpace(input.Password),
	}
	if form.Password != "" {
		form.Password = input.Password
	}

	result, err := check(form)
	if err != nil {
		return nil, err
	}

	checkUsername := result[FieldUsername] == "" && input.Username != current.Username
	checkEmail := result[FieldEmail] == "" && input.Email != current.Email
	if !checkUsername && !checkEmail {
		return result, nil
	}

	taken, err := scanTaken(ctx, v.users, current)
	if err != nil {
		return nil, err
	}
	if checkUsername && taken.username(input.Username) {
		result.Add(FieldUsername, KeyUsernameTaken)
	}
	if checkEmail && taken.email(input.Email) {
		result.Add(FieldEmail, KeyEmailTaken)
	}

	return result, nil
}

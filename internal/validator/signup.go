package validator

import (
	"context"
	"strings"

	"histotrek/internal/domain"
)

type signupForm struct {
	Username string `json:"username" validate:"notblank,username"`
	Email    string `json:"email" validate:"notblank,email_strict"`
	Password string `json:"password" validate:"notblank,min=6"`
}

type SignupValidator struct {
	users domain.UserRepository
}

func NewSignupValidator(users domain.UserRepository) *SignupValidator {
	return &SignupValidator{users: users}
}

func (v *SignupValidator) Validate(ctx context.Context, username, email, pass string) (Errors, error) {
	result, err := check(signupForm{Username: username, Email: email, Password: pass})
	if err != nil {
		return nil, err
	}

	_, badUsername := result[FieldUsername]
	_, badEmail := result[FieldEmail]
	if badUsername && badEmail {
		return result, nil
	}

	taken, err := scanTaken(ctx, v.users, nil)
	if err != nil {
		return nil, err
	}
	if !badUsername && taken.username(username) {
		result.Add(FieldUsername, KeyUsernameTaken)
	}
	if !badEmail && taken.email(email) {
		result.Add(FieldEmail, KeyEmailTaken)
	}

	return result, nil
}

// takenSet is the result of a full scan of the users table.
type takenSet struct {
	usernames map[string]struct{}
	emails    map[string]struct{}
}

func (s takenSet) username(name string) bool {
	_, ok := s.usernames[strings.ToLower(name)]
	return ok
}

func (s takenSet) email(email string) bool {
	_, ok := s.emails[strings.ToLower(email)]
	return ok
}

// scanTaken loads every user except skip. Comparison is case insensitive.
func scanTaken(ctx context.Context, users domain.UserRepository, skip *domain.User) (takenSet, error) {
	all, err := users.FindAll(ctx)
	if err != nil {
		return takenSet{}, err
	}

	set := takenSet{
		usernames: make(map[string]struct{}, len(all)),
		emails:    make(map[string]struct{}, len(all)),
	}
	for _, u := range all {
		if skip != nil && u.ID == skip.ID {
			continue
		}
		set.usernames[strings.ToLower(u.Username)] = struct{}{}
		set.emails[strings.ToLower(u.Email)] = struct{}{}
	}
	return set, nil
}

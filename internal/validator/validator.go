package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field to the key of its first failing rule.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

func (e Errors) Add(field, key string) {
	if _, exists := e[field]; !exists {
		e[field] = key
	}
}

const (
	FieldLogin       = "login"
	FieldPassword    = "password"
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldName        = "name"
	FieldCountry     = "country"
	FieldEra         = "era"
	FieldDescription = "description"
	FieldImageURL    = "imageUrl"
)

const (
	KeyRequired         = "validation.required"
	KeyUserNotFound     = "validation.user_not_found"
	KeyWrongPassword    = "validation.wrong_password"
	KeyUsernameInvalid  = "validation.username_invalid"
	KeyUsernameTaken    = "validation.username_taken"
	KeyEmailInvalid     = "validation.email_invalid"
	KeyEmailTaken       = "validation.email_taken"
	KeyPasswordTooShort = "validation.password_too_short"
	KeyImageURLInvalid  = "validation.image_url_invalid"
)

const (
	UsernameMinLength = 5
	UsernameMaxLength = 30
	PasswordMinLength = 6
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+(?:[._][A-Za-z0-9]+)*$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9.+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)
	imageURLPattern = regexp.MustCompile(`^https?://\S+`)
)

var tagKeys = map[string]string{
	"required":     KeyRequired,
	"notblank":     KeyRequired,
	"username":     KeyUsernameInvalid,
	"email_strict": KeyEmailInvalid,
	"min":          KeyPasswordTooShort,
	"http_url":     KeyImageURLInvalid,
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	mustRegister(v, "email_strict", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	mustRegister(v, "http_url", func(fl validator.FieldLevel) bool {
		return imageURLPattern.MatchString(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func IsValidUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return false
	}
	return usernamePattern.MatchString(username)
}

// IsValidEmail rejects underscores anywhere in the address.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// check runs the struct tags of form and converts failures to Errors.
func check(form interface{}) (Errors, error) {
	result := Errors{}

	err := validate.Struct(form)
	if err == nil {
		return result, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	for _, fe := range fieldErrs {
		key, ok := tagKeys[fe.Tag()]
		if !ok {
			key = KeyRequired
		}
		result.Add(fe.Field(), key)
	}

	return result, nil
}

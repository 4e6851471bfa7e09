package i18n

import (
	"fmt"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	ut "github.com/go-playground/universal-translator"

	"histotrek/internal/validator"
)

const DefaultLocale = "en"

var messages = map[string]map[string]string{
	"en": {
		validator.KeyRequired:         "This field is required",
		validator.KeyUserNotFound:     "User not found",
		validator.KeyWrongPassword:    "Wrong password",
		validator.KeyUsernameInvalid:  "Username must be 5 to 30 letters or digits, optionally separated by single dots or underscores",
		validator.KeyUsernameTaken:    "This username is already taken",
		validator.KeyEmailInvalid:     "Enter a valid email address",
		validator.KeyEmailTaken:       "This email is already registered",
		validator.KeyPasswordTooShort: "Password must be at least 6 characters",
		validator.KeyImageURLInvalid:  "Image URL must start with http:// or https://",
	},
	"ru": {
		validator.KeyRequired:         "Обязательное поле",
		validator.KeyUserNotFound:     "Пользователь не найден",
		validator.KeyWrongPassword:    "Неверный пароль",
		validator.KeyUsernameInvalid:  "Имя пользователя: от 5 до 30 букв или цифр, допускаются одиночные точки и подчёркивания",
		validator.KeyUsernameTaken:    "Это имя пользователя уже занято",
		validator.KeyEmailInvalid:     "Введите корректный адрес электронной почты",
		validator.KeyEmailTaken:       "Этот адрес уже зарегистрирован",
		validator.KeyPasswordTooShort: "Пароль должен содержать не менее 6 символов",
		validator.KeyImageURLInvalid:  "Ссылка на изображение должна начинаться с http:// или https://",
	},
}

// Translator turns validation error keys into user facing messages.
type Translator struct {
	uni *ut.UniversalTranslator
}

func NewTranslator() (*Translator, error) {
	fallback := en.New()
	uni := ut.New(fallback, fallback, ru.New())

	for locale, catalog := range messages {
		trans, found := uni.GetTranslator(locale)
		if !found {
			return nil, fmt.Errorf("locale %s is not registered", locale)
		}
		for key, text := range catalog {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to add %s message %s: %w", locale, key, err)
			}
		}
	}

	return &Translator{uni: uni}, nil
}

// Message translates a single key. Unknown locales fall back to English and
// unknown keys are returned unchanged.
func (t *Translator) Message(locale, key string) string {
	trans, _ := t.uni.GetTranslator(locale)
	msg, err := trans.T(key)
	if err != nil || msg == "" {
		return key
	}
	return msg
}

func (t *Translator) Translate(locale string, errs validator.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, key := range errs {
		out[field] = t.Message(locale, key)
	}
	return out
}

// Locale reports which locale a request for locale resolves to.
func (t *Translator) Locale(locale string) string {
	trans, _ := t.uni.GetTranslator(locale)
	return trans.Locale()
}

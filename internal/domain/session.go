package domain

import (
	"context"
	"time"
)

// Session is a persisted "remember me" row in user_session.
type Session struct {
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	LoginTime time.Time `json:"login_time"`
}

type SessionRepository interface {
	CreateSession(ctx context.Context, userID int64, token string) error
	// FindUserByActiveSession returns the owner of the most recent active session.
	FindUserByActiveSession(ctx context.Context) (*User, error)
	FindByUserID(ctx context.Context, userID int64) ([]*Session, error)
	DeactivateByUserID(ctx context.Context, userID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
}

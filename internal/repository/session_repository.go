package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/clock"
	"histotrek/pkg/logger"
)

const sessionTable = "user_session"

type SessionRepository struct {
	base
}

func NewSessionRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.SessionRepository {
	return &SessionRepository{base: newBase(cm, logger, "session")}
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID int64, token string) error {
	start := time.Now()
	ds := r.builder().Insert(sessionTable).Rows(goqu.Record{
		"user_id":       userID,
		"session_token": token,
		"is_active":     1,
		"login_time":    clock.Now(ctx),
	})

	_, err := r.exec(ctx, ds)
	return r.finish(ctx, "create", start, err, "Session could not be created", map[string]interface{}{"user_id": userID})
}

// FindUserByActiveSession returns a NotFound error when no session is active.
func (r *SessionRepository) FindUserByActiveSession(ctx context.Context) (*domain.User, error) {
	start := time.Now()
	ds := r.builder().
		From(goqu.T(sessionTable).As("s")).
		Join(goqu.T(usersTable).As("u"), goqu.On(goqu.I("s.user_id").Eq(goqu.I("u.id")))).
		Select(goqu.I("u.id"), goqu.I("u.username"), goqu.I("u.email"), goqu.I("u.password"), goqu.I("u.role")).
		Where(goqu.I("s.is_active").Eq(1)).
		Order(goqu.I("s.login_time").Desc()).
		Limit(1)

	var user *domain.User
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		var err error
		user, err = scanUser(rows)
		return err
	})
	if err == nil && user == nil {
		err = sql.ErrNoRows
	}

	if err := r.finish(ctx, "find_active", start, err, "Active session lookup failed", nil); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *SessionRepository) FindByUserID(ctx context.Context, userID int64) ([]*domain.Session, error) {
	start := time.Now()
	ds := r.builder().From(sessionTable).
		Select("user_id", "session_token", "is_active", "login_time").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("login_time").Desc())

	sessions := make([]*domain.Session, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		var s domain.Session
		var active int
		if err := rows.Scan(&s.UserID, &s.Token, &active, &s.LoginTime); err != nil {
			return err
		}
		s.IsActive = active == 1
		s.LoginTime = s.LoginTime.UTC()
		sessions = append(sessions, &s)
		return nil
	})

	if err := r.finish(ctx, "find_by_user", start, err, "Sessions could not be listed", map[string]interface{}{"user_id": userID}); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) DeactivateByUserID(ctx context.Context, userID int64) error {
	start := time.Now()
	ds := r.builder().Update(sessionTable).
		Set(goqu.Record{"is_active": 0}).
		Where(goqu.C("user_id").Eq(userID), goqu.C("is_active").Eq(1))

	_, err := r.exec(ctx, ds)
	return r.finish(ctx, "deactivate", start, err, "Sessions could not be deactivated", map[string]interface{}{"user_id": userID})
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	start := time.Now()
	_, err := r.exec(ctx, r.builder().Delete(sessionTable).Where(goqu.C("user_id").Eq(userID)))
	return r.finish(ctx, "delete_by_user", start, err, "Sessions could not be deleted", map[string]interface{}{"user_id": userID})
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
)

const usersTable = "users"

var userColumns = []interface{}{"id", "username", "email", "password", "role"}

type UserRepository struct {
	base
}

func NewUserRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.UserRepository {
	return &UserRepository{base: newBase(cm, logger, "user")}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	var user domain.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}

func (r *UserRepository) findOne(ctx context.Context, op string, where exp.Expression, fields map[string]interface{}) (*domain.User, error) {
	start := time.Now()
	ds := r.builder().From(usersTable).Select(userColumns...).Where(where).Limit(1)

	var user *domain.User
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		var err error
		user, err = scanUser(rows)
		return err
	})
	if err == nil && user == nil {
		err = sql.ErrNoRows
	}

	if err := r.finish(ctx, op, start, err, "User lookup failed", fields); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "find_by_id", goqu.C("id").Eq(id), map[string]interface{}{"id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_username", goqu.C("username").Eq(username), map[string]interface{}{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_email", goqu.C("email").Eq(email), map[string]interface{}{"email": email})
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_login",
		goqu.Or(goqu.C("username").Eq(login), goqu.C("email").Eq(login)),
		map[string]interface{}{"login": login})
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	start := time.Now()
	ds := r.builder().From(usersTable).Select(userColumns...).Order(goqu.C("id").Asc())

	users := make([]*domain.User, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		user, err := scanUser(rows)
		if err != nil {
			return err
		}
		users = append(users, user)
		return nil
	})

	if err := r.finish(ctx, "find_all", start, err, "Users could not be listed", nil); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	ds := r.builder().Insert(usersTable).Rows(goqu.Record{
		"username": user.Username,
		"email":    user.Email,
		"password": user.PasswordHash,
		"role":     string(user.Role),
	})

	id, err := r.insert(ctx, ds)
	if err := r.finish(ctx, "create", start, err, "User could not be created", map[string]interface{}{"username": user.Username}); err != nil {
		return err
	}

	user.ID = id
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	start := time.Now()
	ds := r.builder().Update(usersTable).
		Set(goqu.Record{
			"username": user.Username,
			"email":    user.Email,
			"password": user.PasswordHash,
			"role":     string(user.Role),
		}).
		Where(goqu.C("id").Eq(user.ID))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "update", start, err, "User could not be updated", map[string]interface{}{"id": user.ID})
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	start := time.Now()
	ds := r.builder().Update(usersTable).
		Set(goqu.Record{"role": string(role)}).
		Where(goqu.C("id").Eq(id))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "update_role", start, err, "User role could not be updated", map[string]interface{}{"id": id, "role": role})
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	ds := r.builder().Delete(usersTable).Where(goqu.C("id").Eq(id))

	err := r.execOne(ctx, ds)
	return r.finish(ctx, "delete", start, err, "User could not be deleted", map[string]interface{}{"id": id})
}

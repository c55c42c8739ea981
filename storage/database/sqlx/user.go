package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	pqUniqueViolation = "23505"
	pqFKViolation     = "23503"
)

// pqErrorCode returns the postgres error code of err, if any.
func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(errors.Cause(err), &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM users WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, username, email, ids); err != nil {
			return core.NewPersistenceError("user.CheckUsernameUniqueness", err)
		}
	}

	var matches []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &matches, repo.db.Rebind(query), args...); err != nil {
		return core.NewPersistenceError("user.CheckUsernameUniqueness", err)
	}

	for _, m := range matches {
		if username != "" && m.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && m.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
	INSERT INTO users (id, name, username, email, password_hash, is_active, role, created_at, updated_at, last_login)
	VALUES (:id, :name, :username, :email, :password_hash, :is_active, :role, :created_at, :updated_at, :last_login)`

	if _, err := repo.db.NamedExecContext(ctx, query, usr); err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, core.NewPersistenceError("user.CreateUser", err)
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	query := `SELECT * FROM users WHERE id = $1`
	if err := repo.db.GetContext(ctx, &usr, query, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.NewPersistenceError("user.GetUserByID", err)
	}
	return usr, nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var usr user.User
	query := `SELECT * FROM users WHERE username = $1 OR email = $1`
	if err := repo.db.GetContext(ctx, &usr, query, uname); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, core.NewPersistenceError("user.GetUserByUsernameOrEmail", err)
	}
	return usr, nil
}

func (repo userRepository) QueryActiveUsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	users := make([]user.User, 0)
	query := `SELECT * FROM users WHERE is_active AND role = $1 ORDER BY name, username`
	if err := repo.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, core.NewPersistenceError("user.QueryActiveUsersByRole", err)
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
	UPDATE users
	SET name = :name, username = :username, email = :email, password_hash = :password_hash,
	    is_active = :is_active, role = :role, updated_at = :updated_at, last_login = :last_login
	WHERE id = :id`

	res, err := repo.db.NamedExecContext(ctx, query, usr)
	if err != nil {
		return user.User{}, core.NewPersistenceError("user.UpdateUser", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

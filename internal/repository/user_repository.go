package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id, username, email, name, password_hash, role, theme_preference, created_at, updated_at"

// Create inserts the user and fills in ID and timestamps.  Username and
// email are normalized to lower case before the write.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ThemePreference == "" {
		u.ThemePreference = model.ThemeSystem
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, name, password_hash, role, theme_preference, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.Username, u.Email, u.Name, u.PasswordHash, u.Role, u.ThemePreference, fmtTime(now), fmtTime(now))
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(strings.ToLower(err.Error()), "username") {
				return ErrUsernameExists
			}
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE username=? LIMIT 1", username)
	return scanUser(row)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// Count returns the number of registered users.  The first account ever
// created becomes the admin.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateTheme stores a new theme preference.  Callers verify the user
// exists and the value is one of the known themes.
func (r *UserRepo) UpdateTheme(ctx context.Context, id uint64, theme string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET theme_preference=?, updated_at=? WHERE id=?",
		theme, fmtTime(time.Now().UTC()), id)
	return err
}

// UpdateRole stores a new account role.  Callers verify the user exists
// and the value is one of the known roles.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=?",
		role, fmtTime(time.Now().UTC()), id)
	return err
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var created, updated string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.ThemePreference, &created, &updated)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	return u, nil
}

func scanUserRows(rows *sql.Rows) (model.User, error) {
	var u model.User
	var created, updated string
	if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.ThemePreference, &created, &updated); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	return u, nil
}

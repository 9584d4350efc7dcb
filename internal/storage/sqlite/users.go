package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"consistify/internal/models"
)

const userColumns = `id, name, username, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a user. Username and email must be unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.Role == "" {
		u.Role = "USER"
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO users(name, username, email, password_hash, role) VALUES(?, ?, ?, ?, ?)`,
		strings.TrimSpace(u.Name), u.Username, u.Email, u.PasswordHash, u.Role)
	if isUniqueViolation(err) {
		return models.User{}, fmt.Errorf("%w: email or username already exists", models.ErrConflict)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %w", models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindUserByLogin looks a user up by email or username.
func (s *Store) FindUserByLogin(ctx context.Context, email, username string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? OR username = ? LIMIT 1`, email, username))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %w", models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

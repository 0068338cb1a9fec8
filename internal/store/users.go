package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"storefront/internal/models"
)

// ErrDuplicateEmail is returned when the email unique constraint fires
var ErrDuplicateEmail = errors.New("email already registered")

// CreateUser inserts a new user. Duplicate emails hit the unique
// constraint and map to ErrDuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves all users with paging
func (s *Store) GetUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT * FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return users, err
}

// UpdateUserRole changes a user's role
func (s *Store) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2", role, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %d", userID)
	}
	return nil
}

// UpdateUserProfile updates username and email
func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, username, email string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = $1, email = $2, updated_at = NOW() WHERE id = $3",
		username, email, userID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateUserPassword replaces the stored password hash
func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		passwordHash, userID)
	return err
}

// DeleteUser removes a user; dependent rows cascade
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID)
	return err
}

// CountUsers returns the registered user count
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users")
	return count, err
}

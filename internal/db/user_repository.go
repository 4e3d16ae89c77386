package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openmart/storefront/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(database *PostgresDB) *UserRepository {
	return &UserRepository{db: database.Conn}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetEmail looks up the notification address for a user.
func (r *UserRepository) GetEmail(ctx context.Context, id int) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE id = $1`, id,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user email: %w", err)
	}
	return email, nil
}

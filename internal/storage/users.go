package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kostadinov1/gym-backend/internal/models"
)

const pgUniqueViolation = "23505"

// CreateUser inserts a new account. Returns models.ErrEmailTaken when the
// email is already registered.
func (db *DB) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, hashed_password, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, u.ID, u.Email, u.HashedPassword, u.FullName).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail looks up an account by its normalised email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, `WHERE email = $1`, email)
}

// GetUser looks up an account by ID.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return db.getUser(ctx, `WHERE id = $1`, userID)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, full_name, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "querying user")
	}
	return &u, nil
}

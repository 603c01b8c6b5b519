package store

import (
	"context"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/schema"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CreateUser inserts a user; an empty role takes the column default.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, external_auth_id, image_url, role)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, '')::user_role, 'customer'))
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, user, query,
		user.Name, user.Email, user.ExternalAuthID, user.ImageURL, string(user.Role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}
	return nil
}

// UpsertUserByExternalAuthID creates the user on first sight of an identity
// and refreshes the profile fields afterwards. The role is never overwritten.
func (s *Store) UpsertUserByExternalAuthID(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, external_auth_id, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_auth_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, image_url = EXCLUDED.image_url
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, user, query,
		user.Name, user.Email, user.ExternalAuthID, user.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", classify(err))
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, s.q, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetUserByExternalAuthID retrieves a user by identity provider subject
func (s *Store) GetUserByExternalAuthID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, s.q, &user, "SELECT * FROM users WHERE external_auth_id = $1", externalID)
	if err != nil {
		return nil, notFound(err, "user", externalID)
	}
	return &user, nil
}

// UpdateUserRole changes a user's role
func (s *Store) UpdateUserRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, s.q, &user,
		"UPDATE users SET role = $2::user_role WHERE id = $1 RETURNING *", id, string(role))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// UpdateUserProfile overwrites the profile fields
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, image_url = $4
		WHERE id = $1
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, user, query, user.ID, user.Name, user.Email, user.ImageURL)
	if err != nil {
		return notFound(err, "user", user.ID)
	}
	return nil
}

// DeleteUser fails with ErrForeignKeyViolation while addresses, orders,
// reviews or feedback still reference the user.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableUsers, id)
}

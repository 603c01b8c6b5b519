package store

import (
	"context"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/schema"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CreateShippingAddress inserts an address for its user
func (s *Store) CreateShippingAddress(ctx context.Context, addr *models.ShippingAddress) error {
	query := `
		INSERT INTO shipping_addresses (user_id, address1, address2, city, state, zip, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, false))
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, addr, query,
		addr.UserID, addr.Address1, addr.Address2, addr.City, addr.State, addr.Zip, addr.Country, addr.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to create shipping address: %w", classify(err))
	}
	return nil
}

// GetShippingAddress retrieves an address by ID
func (s *Store) GetShippingAddress(ctx context.Context, id uuid.UUID) (*models.ShippingAddress, error) {
	var addr models.ShippingAddress
	err := sqlx.GetContext(ctx, s.q, &addr, "SELECT * FROM shipping_addresses WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "shipping address", id)
	}
	return &addr, nil
}

// ListShippingAddresses returns a user's addresses, default first
func (s *Store) ListShippingAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	addrs := []models.ShippingAddress{}
	err := sqlx.SelectContext(ctx, s.q, &addrs,
		"SELECT * FROM shipping_addresses WHERE user_id = $1 ORDER BY is_default DESC NULLS LAST, created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping addresses: %w", err)
	}
	return addrs, nil
}

// UpdateShippingAddress overwrites the address lines
func (s *Store) UpdateShippingAddress(ctx context.Context, addr *models.ShippingAddress) error {
	query := `
		UPDATE shipping_addresses
		SET address1 = $2, address2 = $3, city = $4, state = $5, zip = $6, country = $7
		WHERE id = $1
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, addr, query,
		addr.ID, addr.Address1, addr.Address2, addr.City, addr.State, addr.Zip, addr.Country)
	if err != nil {
		return notFound(err, "shipping address", addr.ID)
	}
	return nil
}

// SetDefaultShippingAddress marks one address as the user's default and
// clears the flag on the others, atomically.
func (s *Store) SetDefaultShippingAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Store) error {
		addr, err := tx.GetShippingAddress(ctx, addressID)
		if err != nil {
			return err
		}
		if addr.UserID != userID {
			return fmt.Errorf("shipping address %s for user %s: %w", addressID, userID, ErrNotFound)
		}

		_, err = tx.q.ExecContext(ctx,
			"UPDATE shipping_addresses SET is_default = (id = $2) WHERE user_id = $1", userID, addressID)
		if err != nil {
			return fmt.Errorf("failed to set default shipping address: %w", classify(err))
		}
		return nil
	})
}

// DeleteShippingAddress fails while orders still reference the address.
func (s *Store) DeleteShippingAddress(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableShippingAddresses, id)
}

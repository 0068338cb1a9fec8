package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateAddress inserts an address. When the address is marked default,
// the insert and the unset of previous defaults run in one transaction.
func (s *Store) CreateAddress(ctx context.Context, a *models.Address) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx,
			"UPDATE addresses SET is_default = FALSE WHERE user_id = $1", a.UserID); err != nil {
			return fmt.Errorf("failed to unset defaults: %w", err)
		}
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO addresses (user_id, street, city, state, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		a.UserID, a.Street, a.City, a.State, a.PostalCode, a.Country, a.IsDefault,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetAddressesByUserID lists a user's addresses, default first
func (s *Store) GetAddressesByUserID(ctx context.Context, userID int64) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id", userID)
	return addresses, err
}

// GetAddressByID retrieves an address owned by the given user
func (s *Store) GetAddressByID(ctx context.Context, id, userID int64) (*models.Address, error) {
	var address models.Address
	err := s.db.GetContext(ctx, &address,
		"SELECT * FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("address not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress updates address fields, handling the default flag
// atomically in the same transaction
func (s *Store) UpdateAddress(ctx context.Context, a *models.Address) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx,
			"UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2",
			a.UserID, a.ID); err != nil {
			return fmt.Errorf("failed to unset defaults: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE addresses
		SET street = $1, city = $2, state = $3, postal_code = $4, country = $5, is_default = $6
		WHERE id = $7 AND user_id = $8`,
		a.Street, a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.ID, a.UserID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("address not found: %d", a.ID)
	}

	return tx.Commit()
}

// SetDefaultAddress flips the default flag to exactly one address.
// Unset runs before set inside one transaction; a single UPDATE over the
// whole set would trip the partial unique index mid-statement whenever
// the new default's row is visited first. The index still guards
// concurrent writers.
func (s *Store) SetDefaultAddress(ctx context.Context, userID, addressID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default AND id <> $2",
		userID, addressID); err != nil {
		return fmt.Errorf("failed to unset defaults: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE addresses SET is_default = TRUE WHERE id = $2 AND user_id = $1",
		userID, addressID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("address not found: %d", addressID)
	}

	return tx.Commit()
}

// DeleteAddress removes an address owned by the given user
func (s *Store) DeleteAddress(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("address not found: %d", id)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"
)

// GetPreferences returns the user's preferences, falling back to
// defaults when none were saved yet
func (s *Store) GetPreferences(ctx context.Context, userID int64) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.GetContext(ctx, &prefs,
		"SELECT * FROM user_preferences WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return &models.UserPreferences{
			UserID:        userID,
			Language:      "en",
			Notifications: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpsertPreferences saves the user's preferences
func (s *Store) UpsertPreferences(ctx context.Context, p *models.UserPreferences) error {
	return s.db.QueryRowxContext(ctx, `
		INSERT INTO user_preferences (user_id, newsletter, language, notifications)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET newsletter = EXCLUDED.newsletter,
		    language = EXCLUDED.language,
		    notifications = EXCLUDED.notifications,
		    updated_at = NOW()
		RETURNING updated_at`,
		p.UserID, p.Newsletter, p.Language, p.Notifications,
	).Scan(&p.UpdatedAt)
}

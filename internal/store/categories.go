package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query, c.Name, c.Slug, c.Description).
		Scan(&c.ID, &c.CreatedAt)
}

// GetCategories retrieves all categories
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY name")
	return categories, err
}

// GetCategoryByID retrieves a category by ID
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoryBySlug retrieves a category by slug
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category not found: %s", slug)
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"storefront/internal/models"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID int64
	Search     string
	Limit      int
	Offset     int
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, discount, stock, images, category_id, specs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.Discount, p.Stock,
		pq.StringArray(p.Images), p.CategoryID, p.Specs,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves products matching the filter
func (s *Store) GetProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1=1"
	args := []interface{}{}

	if f.CategoryID > 0 {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var products []models.Product
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// GetAllProducts retrieves the full catalog without paging
func (s *Store) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpdateProduct updates mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, discount = $4,
		    images = $5, category_id = $6, specs = $7, updated_at = NOW()
		WHERE id = $8`,
		p.Name, p.Description, p.Price, p.Discount,
		pq.StringArray(p.Images), p.CategoryID, p.Specs, p.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product not found: %d", p.ID)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product not found: %d", id)
	}
	return nil
}

// CountProducts returns the catalog size
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}

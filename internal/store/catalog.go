package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/schema"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CreateCategory inserts a category
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	err := sqlx.GetContext(ctx, s.q, category,
		"INSERT INTO categories (name) VALUES ($1) RETURNING *", category.Name)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", classify(err))
	}
	return nil
}

// GetCategory retrieves a category by ID
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := sqlx.GetContext(ctx, s.q, &category, "SELECT * FROM categories WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return &category, nil
}

// GetCategoryByName returns the oldest category with the given name. Names
// are not unique in the schema.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := sqlx.GetContext(ctx, s.q, &category,
		"SELECT * FROM categories WHERE name = $1 ORDER BY created_at, id LIMIT 1", name)
	if err != nil {
		return nil, notFound(err, "category", name)
	}
	return &category, nil
}

// ListCategories retrieves all categories
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := sqlx.SelectContext(ctx, s.q, &categories, "SELECT * FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// RenameCategory updates a category's name
func (s *Store) RenameCategory(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	var category models.Category
	err := sqlx.GetContext(ctx, s.q, &category,
		"UPDATE categories SET name = $2 WHERE id = $1 RETURNING *", id, name)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return &category, nil
}

// DeleteCategory fails with ErrForeignKeyViolation while products reference it.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableCategories, id)
}

const insertProduct = `
	INSERT INTO products (name, price_in_cents, body, category_id, stock, slug)
	VALUES ($1, $2, $3, $4, $5, $6)`

// CreateProduct inserts a product; a duplicate slug fails with ErrUniqueViolation.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	err := sqlx.GetContext(ctx, s.q, product, insertProduct+" RETURNING *",
		product.Name, product.PriceInCents, product.Body, product.CategoryID, product.Stock, product.Slug)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", classify(err))
	}
	return nil
}

// InsertProductIfAbsent inserts the product unless its slug is taken. On a
// slug hit the existing row is loaded into product and inserted is false.
func (s *Store) InsertProductIfAbsent(ctx context.Context, product *models.Product) (inserted bool, err error) {
	err = sqlx.GetContext(ctx, s.q, product, insertProduct+" ON CONFLICT (slug) DO NOTHING RETURNING *",
		product.Name, product.PriceInCents, product.Body, product.CategoryID, product.Stock, product.Slug)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to insert product: %w", classify(err))
	}

	existing, err := s.GetProductBySlug(ctx, product.Slug)
	if err != nil {
		return false, err
	}
	*product = *existing
	return false, nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, s.q, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return &product, nil
}

// GetProductBySlug retrieves a product by slug
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, s.q, &product, "SELECT * FROM products WHERE slug = $1", slug)
	if err != nil {
		return nil, notFound(err, "product", slug)
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}

	err := sqlx.SelectContext(ctx, s.q, &products,
		"SELECT * FROM products WHERE id = ANY($1::uuid[])", uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Limit      int
	Offset     int
}

// ListProducts returns products newest first
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT * FROM products
		WHERE ($1::uuid IS NULL OR category_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	products := []models.Product{}
	if err := sqlx.SelectContext(ctx, s.q, &products, query, filter.CategoryID, filter.Limit, filter.Offset); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct overwrites the mutable product columns
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, price_in_cents = $3, body = $4, category_id = $5, stock = $6, slug = $7
		WHERE id = $1
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, product, query,
		product.ID, product.Name, product.PriceInCents, product.Body, product.CategoryID, product.Stock, product.Slug)
	if err != nil {
		return notFound(err, "product", product.ID)
	}
	return nil
}

// DeleteProduct removes the product and, through the cascade, its images.
// Order items and reviews block the delete.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableProducts, id)
}

// AddProductImage attaches an image to a product
func (s *Store) AddProductImage(ctx context.Context, image *models.ProductImage) error {
	err := sqlx.GetContext(ctx, s.q, image,
		"INSERT INTO product_images (product_id, image_url) VALUES ($1, $2) RETURNING *",
		image.ProductID, image.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to add product image: %w", classify(err))
	}
	return nil
}

// ListProductImages retrieves all images for a product
func (s *Store) ListProductImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	err := sqlx.SelectContext(ctx, s.q, &images,
		"SELECT * FROM product_images WHERE product_id = $1 ORDER BY created_at, id", productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	return images, nil
}

// DeleteProductImage removes a single image
func (s *Store) DeleteProductImage(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableProductImages, id)
}

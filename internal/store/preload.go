package store

import (
	"context"
	"database/sql/driver"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/schema"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func uuidArray(ids []uuid.UUID) driver.Valuer {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return pq.Array(strs)
}

// loadRelation fetches the rows reachable from table through the named
// relation for every key in keys, in one query.
func loadRelation[T any](ctx context.Context, s *Store, table, name string, keys ...uuid.UUID) ([]T, error) {
	rel, err := schema.Lookup(table, name)
	if err != nil {
		return nil, err
	}

	out := []T{}
	if len(keys) == 0 {
		return out, nil
	}
	if err := sqlx.SelectContext(ctx, s.q, &out, rel.LoadQuery(), uuidArray(keys)); err != nil {
		return nil, fmt.Errorf("failed to load %s.%s: %w", table, name, err)
	}
	return out, nil
}

func loadOne[T any](ctx context.Context, s *Store, table, name string, key uuid.UUID) (*T, error) {
	rows, err := loadRelation[T](ctx, s, table, name, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetProductDetail loads a product by slug with its category, images and reviews.
func (s *Store) GetProductDetail(ctx context.Context, slug string) (*models.ProductDetail, error) {
	product, err := s.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &models.ProductDetail{Product: *product}
	if detail.Category, err = loadOne[models.Category](ctx, s, schema.TableProducts, "category", product.CategoryID); err != nil {
		return nil, err
	}
	if detail.Images, err = loadRelation[models.ProductImage](ctx, s, schema.TableProducts, schema.TableProductImages, product.ID); err != nil {
		return nil, err
	}
	if detail.Reviews, err = loadRelation[models.Review](ctx, s, schema.TableProducts, schema.TableReviews, product.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetOrderDetail loads an order with its user, shipping address and items.
func (s *Store) GetOrderDetail(ctx context.Context, id uuid.UUID) (*models.OrderDetail, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.OrderDetail{Order: *order}
	if detail.User, err = loadOne[models.User](ctx, s, schema.TableOrders, "user", order.UserID); err != nil {
		return nil, err
	}
	if detail.ShippingAddress, err = loadOne[models.ShippingAddress](ctx, s, schema.TableOrders, "shipping_address", order.ShippingAddressID); err != nil {
		return nil, err
	}
	if detail.Items, err = loadRelation[models.OrderItem](ctx, s, schema.TableOrders, schema.TableOrderItems, order.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetReviewDetail loads a review with its author, product and feedback.
func (s *Store) GetReviewDetail(ctx context.Context, id uuid.UUID) (*models.ReviewDetail, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ReviewDetail{Review: *review}
	if detail.User, err = loadOne[models.User](ctx, s, schema.TableReviews, "user", review.UserID); err != nil {
		return nil, err
	}
	if detail.Product, err = loadOne[models.Product](ctx, s, schema.TableReviews, "product", review.ProductID); err != nil {
		return nil, err
	}
	if detail.Feedback, err = loadRelation[models.ReviewFeedback](ctx, s, schema.TableReviews, schema.TableReviewFeedbacks, review.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ProductCategories resolves the category of every product in one query.
func (s *Store) ProductCategories(ctx context.Context, products []models.Product) (map[uuid.UUID]models.Category, error) {
	keys := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		keys = append(keys, p.CategoryID)
	}

	categories, err := loadRelation[models.Category](ctx, s, schema.TableProducts, "category", keys...)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

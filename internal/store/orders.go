package store

import (
	"context"
	"fmt"

	"smrt/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CreateOrder creates a new order. Empty status and nil metadata take the
// column defaults.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.Metadata == nil {
		order.Metadata = models.DefaultOrderMetadata()
	}

	query := `
		INSERT INTO orders (user_id, total_in_cents, checkout_session_id, shipping_address_id, status, metadata)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, '')::order_status, 'pending'), $6)
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, order, query,
		order.UserID, order.TotalInCents, order.CheckoutSessionID, order.ShippingAddressID,
		string(order.Status), order.Metadata)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", classify(err))
	}
	return nil
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// GetOrderForUpdate locks the order row until the surrounding transaction ends.
func (s *Store) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.tx == nil {
		return nil, ErrNoTransaction
	}
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// GetOrderByCheckoutSession retrieves the order paid through a checkout session
func (s *Store) GetOrderByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order,
		"SELECT * FROM orders WHERE checkout_session_id = $1 ORDER BY created_at DESC LIMIT 1", sessionID)
	if err != nil {
		return nil, notFound(err, "order for checkout session", sessionID)
	}
	return &order, nil
}

// ListOrdersByUser retrieves orders for a user, newest first
func (s *Store) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	err := sqlx.SelectContext(ctx, s.q, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the status. Transition rules are enforced by callers.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order,
		"UPDATE orders SET status = $2::order_status WHERE id = $1 RETURNING *", id, string(status))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// SetCheckoutSession records the payment processor's opaque session id
func (s *Store) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order,
		"UPDATE orders SET checkout_session_id = $2 WHERE id = $1 RETURNING *", id, sessionID)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// UpdateOrderMetadata replaces the metadata document. A nil document clears
// the column to NULL.
func (s *Store) UpdateOrderMetadata(ctx context.Context, id uuid.UUID, meta models.OrderMetadata) (*models.Order, error) {
	var order models.Order
	err := sqlx.GetContext(ctx, s.q, &order,
		"UPDATE orders SET metadata = $2 WHERE id = $1 RETURNING *", id, meta)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// CreateOrderItem creates a new order item. A zero quantity takes the
// column default of 1.
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, price_at_purchase_in_cents, quantity)
		VALUES ($1, $2, $3, COALESCE(NULLIF($4, 0), 1))
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, item, query,
		item.OrderID, item.ProductID, item.PriceAtPurchaseInCents, item.Quantity)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", classify(err))
	}
	return nil
}

// ListOrderItems retrieves all items for an order
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := sqlx.SelectContext(ctx, s.q, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at, id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

// UpdateOrderItemQuantity changes an item's quantity; its price snapshot is
// frozen by the database.
func (s *Store) UpdateOrderItemQuantity(ctx context.Context, id uuid.UUID, quantity int) (*models.OrderItem, error) {
	var item models.OrderItem
	err := sqlx.GetContext(ctx, s.q, &item,
		"UPDATE order_items SET quantity = $2 WHERE id = $1 RETURNING *", id, quantity)
	if err != nil {
		return nil, notFound(err, "order item", id)
	}
	return &item, nil
}

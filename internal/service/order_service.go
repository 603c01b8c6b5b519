package service

import (
	"context"
	"fmt"
	"sort"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order business logic
type OrderService struct {
	store     *store.Store
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, publisher EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	UserID            uuid.UUID          `json:"user_id" validate:"required"`
	ShippingAddressID uuid.UUID          `json:"shipping_address_id" validate:"required"`
	Items             []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// PlacedOrder is an order together with its items
type PlacedOrder struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// mergeItems folds repeated product lines into one, keeping first-seen order.
func mergeItems(items []OrderItemRequest) []OrderItemRequest {
	index := make(map[uuid.UUID]int, len(items))
	merged := make([]OrderItemRequest, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// calculateTotal prices items at the current catalog price
func calculateTotal(items []OrderItemRequest, products map[uuid.UUID]*models.Product) (int64, error) {
	prices := make([]int64, len(items))
	quantities := make([]int, len(items))
	for i, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return 0, fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		prices[i] = product.PriceInCents
		quantities[i] = item.Quantity
	}
	return util.SumLineTotals(prices, quantities)
}

// PlaceOrder creates the order and its items in one transaction. Each item
// snapshots the product price at purchase time.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlacedOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if err := validateStruct(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}
	items := mergeItems(req.Items)

	placed := &PlacedOrder{}
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		addr, err := tx.GetShippingAddress(ctx, req.ShippingAddressID)
		if err != nil {
			return err
		}
		if addr.UserID != req.UserID {
			return validationErrorf("shipping address %s does not belong to user %s", addr.ID, req.UserID)
		}

		ids := make([]uuid.UUID, len(items))
		for i, item := range items {
			ids[i] = item.ProductID
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		total, err := calculateTotal(items, byID)
		if err != nil {
			return err
		}

		meta := models.DefaultOrderMetadata()
		for k, v := range req.Metadata {
			meta[k] = v
		}

		placed.Order = models.Order{
			UserID:            req.UserID,
			ShippingAddressID: req.ShippingAddressID,
			TotalInCents:      &total,
			Status:            models.OrderStatusPending,
			Metadata:          meta,
		}
		if err := tx.CreateOrder(ctx, &placed.Order); err != nil {
			return err
		}

		for _, item := range items {
			orderItem := models.OrderItem{
				OrderID:                placed.Order.ID,
				ProductID:              item.ProductID,
				PriceAtPurchaseInCents: byID[item.ProductID].PriceInCents,
				Quantity:               item.Quantity,
			}
			if err := tx.CreateOrderItem(ctx, &orderItem); err != nil {
				return err
			}
			placed.Items = append(placed.Items, orderItem)
		}
		return nil
	})
	if err != nil {
		recordViolation("place_order", err)
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		util.SpanError(span, err)
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", placed.Order.ID.String()),
		zap.String("total", util.FormatCents(*placed.Order.TotalInCents)))

	s.publishOrderPlaced(ctx, placed)
	return placed, nil
}

func failureReason(err error) string {
	switch {
	case store.IsNotFound(err):
		return "not_found"
	case isValidation(err):
		return "invalid_request"
	case store.ViolationKind(err) != "":
		return "constraint"
	default:
		return "db_error"
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, placed *PlacedOrder) {
	if s.publisher == nil {
		return
	}
	items := make([]models.OrderItemData, len(placed.Items))
	for i, item := range placed.Items {
		items[i] = models.OrderItemData{
			ProductID:              item.ProductID,
			Quantity:               item.Quantity,
			PriceAtPurchaseInCents: item.PriceAtPurchaseInCents,
		}
	}
	event := &models.OrderPlacedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:      placed.Order.ID,
		UserID:       placed.Order.UserID,
		TotalInCents: *placed.Order.TotalInCents,
		Items:        items,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

// AttachCheckoutSession records the processor session on a pending order
func (s *OrderService) AttachCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, validationErrorf("checkout session id is required")
	}

	var order *models.Order
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, orderID, current.Status)
		}
		order, err = tx.SetCheckoutSession(ctx, orderID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// TransitionStatus moves an order from pending to paid or cancelled. Moving
// to the status the order already has is a no-op.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.TransitionStatus")
	defer span.End()

	if !to.IsValid() {
		return nil, validationErrorf("unknown order status %q", to)
	}

	var (
		order   *models.Order
		from    models.OrderStatus
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = current.Status
		if from == to {
			order = current
			return nil
		}
		if !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		order, err = tx.UpdateOrderStatus(ctx, orderID, to)
		changed = err == nil
		return err
	})
	if err != nil {
		util.SpanError(span, err)
		return nil, err
	}
	if !changed {
		return order, nil
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	if s.publisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeOrderStatusChanged),
			OrderID:   orderID,
			From:      from,
			To:        to,
			Reason:    reason,
		}
		if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return order, nil
}

// TransitionBySession applies a status transition to the order paid through
// a checkout session.
func (s *OrderService) TransitionBySession(ctx context.Context, sessionID string, to models.OrderStatus, reason string) (*models.Order, error) {
	order, err := s.store.GetOrderByCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.TransitionStatus(ctx, order.ID, to, reason)
}

// GetOrder retrieves an order without its associations
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// GetOrderDetail retrieves an order with its user, address and items
func (s *OrderService) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderDetail")
	defer span.End()

	detail, err := s.store.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(detail.Items, func(i, j int) bool {
		return detail.Items[i].CreatedAt.Before(detail.Items[j].CreatedAt)
	})
	return detail, nil
}

// ListOrdersForUser lists a user's orders, newest first
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

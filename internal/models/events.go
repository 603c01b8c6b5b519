package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeReviewSubmitted    = "REVIEW_SUBMITTED"
	EventTypeCheckoutCompleted  = "CHECKOUT_COMPLETED"
	EventTypeCheckoutExpired    = "CHECKOUT_EXPIRED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// OrderPlacedEvent published when an order and its items are persisted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      uuid.UUID       `json:"order_id"`
	UserID       uuid.UUID       `json:"user_id"`
	TotalInCents int64           `json:"total_in_cents"`
	Items        []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published after a status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID uuid.UUID   `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
	Reason  string      `json:"reason,omitempty"`
}

// ReviewSubmittedEvent published when a review is stored
type ReviewSubmittedEvent struct {
	BaseEvent
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    *int      `json:"rating,omitempty"`
}

// CheckoutCompletedEvent is delivered by the payment provider bridge
type CheckoutCompletedEvent struct {
	BaseEvent
	SessionID     string `json:"session_id"`
	AmountInCents int64  `json:"amount_in_cents"`
}

// CheckoutExpiredEvent is delivered when a checkout session lapses
type CheckoutExpiredEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID              uuid.UUID `json:"product_id"`
	Quantity               int       `json:"quantity"`
	PriceAtPurchaseInCents int64     `json:"price_at_purchase_in_cents"`
}

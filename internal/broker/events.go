package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing storefront domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(event fmt.Stringer) string {
	return "order-" + event.String()
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishReviewSubmitted publishes ReviewSubmitted event, keyed by product
func (ep *EventPublisher) PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	return ep.producer.PublishEvent(ctx, "product-"+event.ProductID.String(), event)
}

// EventHandler routes payment processor events
type EventHandler struct {
	onCheckoutCompleted func(context.Context, *models.CheckoutCompletedEvent) error
	onCheckoutExpired   func(context.Context, *models.CheckoutExpiredEvent) error
	logger              *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnCheckoutCompleted registers a handler for CheckoutCompleted events
func (eh *EventHandler) OnCheckoutCompleted(handler func(context.Context, *models.CheckoutCompletedEvent) error) {
	eh.onCheckoutCompleted = handler
}

// OnCheckoutExpired registers a handler for CheckoutExpired events
func (eh *EventHandler) OnCheckoutExpired(handler func(context.Context, *models.CheckoutExpiredEvent) error) {
	eh.onCheckoutExpired = handler
}

// HandleMessage routes messages to appropriate handlers. Unknown event types
// are skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return Permanent(fmt.Errorf("failed to unmarshal base event: %w", err))
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeCheckoutCompleted:
		if eh.onCheckoutCompleted != nil {
			var event models.CheckoutCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return Permanent(fmt.Errorf("failed to unmarshal CheckoutCompleted event: %w", err))
			}
			return eh.onCheckoutCompleted(ctx, &event)
		}

	case models.EventTypeCheckoutExpired:
		if eh.onCheckoutExpired != nil {
			var event models.CheckoutExpiredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return Permanent(fmt.Errorf("failed to unmarshal CheckoutExpired event: %w", err))
			}
			return eh.onCheckoutExpired(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}

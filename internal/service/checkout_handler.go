package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"go.uber.org/zap"
)

const (
	checkoutLockTTL        = 30 * time.Second
	checkoutIdempotencyTTL = 7 * 24 * time.Hour
)

// ErrSessionBusy is returned while another worker holds the session lock.
var ErrSessionBusy = errors.New("checkout session is being processed")

// ErrAmountMismatch is returned when the processor charged a different total.
var ErrAmountMismatch = errors.New("checkout amount does not match order total")

// OrderTransitioner is the order operation checkout events drive
type OrderTransitioner interface {
	TransitionBySession(ctx context.Context, sessionID string, to models.OrderStatus, reason string) (*models.Order, error)
}

// OrderLookup resolves the order behind a checkout session
type OrderLookup interface {
	GetOrderByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error)
}

// IdempotencyStore remembers processed events and serializes work per session
type IdempotencyStore interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// CheckoutEventHandler applies payment processor events to orders
type CheckoutEventHandler struct {
	deps   CheckoutDeps
	logger *zap.Logger
}

// CheckoutDeps bundles the collaborators of CheckoutEventHandler
type CheckoutDeps struct {
	Transitioner OrderTransitioner
	Lookup       OrderLookup
	Keys         IdempotencyStore
}

// NewCheckoutEventHandler creates a new checkout event handler
func NewCheckoutEventHandler(deps CheckoutDeps) *CheckoutEventHandler {
	return &CheckoutEventHandler{
		deps:   deps,
		logger: util.GetLogger(),
	}
}

func eventKey(eventID string) string {
	return "checkout:event:" + eventID
}

func sessionLockKey(sessionID string) string {
	return "checkout:lock:" + sessionID
}

// process runs fn once per event ID while holding the session lock.
func (h *CheckoutEventHandler) process(ctx context.Context, eventType string, base models.BaseEvent, sessionID string, fn func(context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		util.CheckoutEventLatency.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		util.CheckoutEventsTotal.WithLabelValues(eventType, result).Inc()
	}()

	if sessionID == "" {
		return validationErrorf("%s event %s has no session id", eventType, base.EventID)
	}

	seen, err := h.deps.Keys.CheckIdempotencyKey(ctx, eventKey(base.EventID))
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if seen {
		h.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	token, ok, err := h.deps.Keys.AcquireLock(ctx, sessionLockKey(sessionID), checkoutLockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock checkout session: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionBusy, sessionID)
	}
	defer func() {
		if relErr := h.deps.Keys.ReleaseLock(context.WithoutCancel(ctx), sessionLockKey(sessionID), token); relErr != nil {
			h.logger.Warn("Failed to release checkout lock", zap.String("session_id", sessionID), zap.Error(relErr))
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}

	if err := h.deps.Keys.SetIdempotencyKey(ctx, eventKey(base.EventID), eventType, checkoutIdempotencyTTL); err != nil {
		h.logger.Error("Failed to mark event processed", zap.String("event_id", base.EventID), zap.Error(err))
	}
	return nil
}

// HandleCheckoutCompleted marks the session's order as paid
func (h *CheckoutEventHandler) HandleCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutEventHandler.HandleCheckoutCompleted")
	defer span.End()

	err := h.process(ctx, models.EventTypeCheckoutCompleted, event.BaseEvent, event.SessionID, func(ctx context.Context) error {
		order, err := h.deps.Lookup.GetOrderByCheckoutSession(ctx, event.SessionID)
		if err != nil {
			return err
		}
		if order.TotalInCents != nil && *order.TotalInCents != event.AmountInCents {
			h.logger.Error("Checkout amount mismatch",
				zap.String("order_id", order.ID.String()),
				zap.Int64("expected", *order.TotalInCents),
				zap.Int64("charged", event.AmountInCents))
			return fmt.Errorf("%w: order %s expected %s, charged %s", ErrAmountMismatch, order.ID,
				util.FormatCents(*order.TotalInCents), util.FormatCents(event.AmountInCents))
		}

		if _, err := h.deps.Transitioner.TransitionBySession(ctx, event.SessionID, models.OrderStatusPaid, "checkout completed"); err != nil {
			return err
		}
		h.logger.Info("Order paid", zap.String("order_id", order.ID.String()))
		return nil
	})
	if err != nil {
		util.SpanError(span, err)
	}
	return err
}

// HandleCheckoutExpired cancels the session's order. An order that was
// already paid is left alone.
func (h *CheckoutEventHandler) HandleCheckoutExpired(ctx context.Context, event *models.CheckoutExpiredEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutEventHandler.HandleCheckoutExpired")
	defer span.End()

	err := h.process(ctx, models.EventTypeCheckoutExpired, event.BaseEvent, event.SessionID, func(ctx context.Context) error {
		reason := event.Reason
		if reason == "" {
			reason = "checkout expired"
		}
		_, err := h.deps.Transitioner.TransitionBySession(ctx, event.SessionID, models.OrderStatusCancelled, reason)
		if errors.Is(err, ErrInvalidTransition) {
			h.logger.Warn("Expired session refers to a settled order", zap.String("session_id", event.SessionID))
			return nil
		}
		if store.IsNotFound(err) {
			h.logger.Warn("Expired session has no order", zap.String("session_id", event.SessionID))
			return nil
		}
		return err
	})
	if err != nil {
		util.SpanError(span, err)
	}
	return err
}

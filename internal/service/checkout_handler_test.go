package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"smrt/internal/models"
	"smrt/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeys struct {
	mu       sync.Mutex
	seen     map[string]bool
	locked   map[string]string
	released []string
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{seen: map[string]bool{}, locked: map[string]string{}}
}

func (f *fakeKeys) CheckIdempotencyKey(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key], nil
}

func (f *fakeKeys) SetIdempotencyKey(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key] = true
	return nil
}

func (f *fakeKeys) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locked[key]; held {
		return "", false, nil
	}
	token := uuid.NewString()
	f.locked[key] = token
	return token, true, nil
}

func (f *fakeKeys) ReleaseLock(_ context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked[key] == token {
		delete(f.locked, key)
	}
	f.released = append(f.released, key)
	return nil
}

type fakeOrders struct {
	orders      map[string]*models.Order
	transitions []models.OrderStatus
}

func (f *fakeOrders) GetOrderByCheckoutSession(_ context.Context, sessionID string) (*models.Order, error) {
	order, ok := f.orders[sessionID]
	if !ok {
		return nil, fmt.Errorf("order for session %s: %w", sessionID, store.ErrNotFound)
	}
	return order, nil
}

func (f *fakeOrders) TransitionBySession(ctx context.Context, sessionID string, to models.OrderStatus, _ string) (*models.Order, error) {
	order, err := f.GetOrderByCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order.Status == to {
		return order, nil
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}
	order.Status = to
	f.transitions = append(f.transitions, to)
	return order, nil
}

func newCheckoutFixture(status models.OrderStatus, total int64) (*CheckoutEventHandler, *fakeOrders, *fakeKeys) {
	orders := &fakeOrders{orders: map[string]*models.Order{
		"cs_1": {ID: uuid.New(), Status: status, TotalInCents: &total},
	}}
	keys := newFakeKeys()
	h := NewCheckoutEventHandler(CheckoutDeps{Transitioner: orders, Lookup: orders, Keys: keys})
	return h, orders, keys
}

func completed(sessionID string, amount int64) *models.CheckoutCompletedEvent {
	return &models.CheckoutCompletedEvent{
		BaseEvent:     models.NewBaseEvent(models.EventTypeCheckoutCompleted),
		SessionID:     sessionID,
		AmountInCents: amount,
	}
}

func TestCheckoutCompletedMarksOrderPaid(t *testing.T) {
	h, orders, keys := newCheckoutFixture(models.OrderStatusPending, 400)
	event := completed("cs_1", 400)

	require.NoError(t, h.HandleCheckoutCompleted(context.Background(), event))
	assert.Equal(t, models.OrderStatusPaid, orders.orders["cs_1"].Status)
	assert.True(t, keys.seen[eventKey(event.EventID)])
	assert.Empty(t, keys.locked)

	// redelivery is ignored
	require.NoError(t, h.HandleCheckoutCompleted(context.Background(), event))
	assert.Len(t, orders.transitions, 1)
}

func TestCheckoutCompletedAmountMismatch(t *testing.T) {
	h, orders, keys := newCheckoutFixture(models.OrderStatusPending, 400)
	event := completed("cs_1", 399)

	err := h.HandleCheckoutCompleted(context.Background(), event)
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, models.OrderStatusPending, orders.orders["cs_1"].Status)
	assert.False(t, keys.seen[eventKey(event.EventID)])
	assert.Empty(t, keys.locked)
}

func TestCheckoutCompletedUnknownSession(t *testing.T) {
	h, _, _ := newCheckoutFixture(models.OrderStatusPending, 400)

	err := h.HandleCheckoutCompleted(context.Background(), completed("cs_missing", 400))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckoutCompletedRequiresSession(t *testing.T) {
	h, _, _ := newCheckoutFixture(models.OrderStatusPending, 400)

	err := h.HandleCheckoutCompleted(context.Background(), completed("", 400))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutCompletedSessionBusy(t *testing.T) {
	h, orders, keys := newCheckoutFixture(models.OrderStatusPending, 400)
	keys.locked[sessionLockKey("cs_1")] = "other-worker"

	err := h.HandleCheckoutCompleted(context.Background(), completed("cs_1", 400))
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.Empty(t, orders.transitions)
	assert.Equal(t, "other-worker", keys.locked[sessionLockKey("cs_1")])
}

func TestCheckoutExpiredCancelsPendingOrder(t *testing.T) {
	h, orders, _ := newCheckoutFixture(models.OrderStatusPending, 400)
	event := &models.CheckoutExpiredEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeCheckoutExpired),
		SessionID: "cs_1",
	}

	require.NoError(t, h.HandleCheckoutExpired(context.Background(), event))
	assert.Equal(t, models.OrderStatusCancelled, orders.orders["cs_1"].Status)
}

func TestCheckoutExpiredLeavesPaidOrder(t *testing.T) {
	h, orders, keys := newCheckoutFixture(models.OrderStatusPaid, 400)
	event := &models.CheckoutExpiredEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeCheckoutExpired),
		SessionID: "cs_1",
		Reason:    "timeout",
	}

	require.NoError(t, h.HandleCheckoutExpired(context.Background(), event))
	assert.Equal(t, models.OrderStatusPaid, orders.orders["cs_1"].Status)
	assert.True(t, keys.seen[eventKey(event.EventID)])
}

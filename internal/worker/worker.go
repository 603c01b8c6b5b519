package worker

import (
	"context"
	"errors"

	"smrt/internal/broker"
	"smrt/internal/models"
	"smrt/internal/service"
	"smrt/internal/store"
	"smrt/internal/util"

	"go.uber.org/zap"
)

// CheckoutWorker applies payment processor events from Kafka to orders
type CheckoutWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewCheckoutWorker creates a new checkout worker
func NewCheckoutWorker(
	consumer *broker.Consumer,
	checkoutHandler *service.CheckoutEventHandler,
) *CheckoutWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnCheckoutCompleted(settleOrRetry[*models.CheckoutCompletedEvent](checkoutHandler.HandleCheckoutCompleted))
	eventHandler.OnCheckoutExpired(settleOrRetry[*models.CheckoutExpiredEvent](checkoutHandler.HandleCheckoutExpired))

	return &CheckoutWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming until ctx is cancelled
func (w *CheckoutWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting checkout worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CheckoutWorker) Stop() error {
	w.logger.Info("Stopping checkout worker")
	return w.consumer.Close()
}

// settleOrRetry marks failures that no redelivery can fix as permanent.
// Everything else, such as a busy session lock or an unreachable database,
// is left for the consumer to retry.
func settleOrRetry[E any](fn func(context.Context, E) error) func(context.Context, E) error {
	return func(ctx context.Context, event E) error {
		err := fn(ctx, event)
		if unrecoverable(err) {
			return broker.Permanent(err)
		}
		return err
	}
}

func unrecoverable(err error) bool {
	return errors.Is(err, service.ErrAmountMismatch) ||
		errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrInvalidTransition) ||
		store.IsNotFound(err)
}

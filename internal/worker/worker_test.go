package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"smrt/internal/broker"
	"smrt/internal/service"
	"smrt/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestSettleOrRetry(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"success", nil, false},
		{"busy session", fmt.Errorf("%w: cs_1", service.ErrSessionBusy), false},
		{"database down", errors.New("dial tcp: connection refused"), false},
		{"amount mismatch", fmt.Errorf("%w: order", service.ErrAmountMismatch), true},
		{"missing session id", fmt.Errorf("%w: no session", service.ErrValidation), true},
		{"already cancelled", fmt.Errorf("%w: cancelled -> paid", service.ErrInvalidTransition), true},
		{"unknown session", fmt.Errorf("order cs_9: %w", store.ErrNotFound), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := settleOrRetry(func(context.Context, string) error { return tt.err })
			err := fn(context.Background(), "event")

			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.permanent, broker.IsPermanent(err))
		})
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyReviewed   = errors.New("product already reviewed by this user")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownUser       = errors.New("unknown user")
	ErrDuplicateContact  = errors.New("contact already submitted for this email")
)

// EventPublisher publishes storefront domain events. Publishing happens after
// the database commit; failures are logged and never undo the write.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error
}

var validate = validator.New()

// validateStruct runs struct-tag validation and wraps failures in ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "url", "http_url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// recordViolation counts constraint failures by kind and operation.
func recordViolation(operation string, err error) {
	if kind := store.ViolationKind(err); kind != "" {
		util.ConstraintViolationsTotal.WithLabelValues(kind, operation).Inc()
	}
}

func optionalString(s string) *string {
	return models.StringPtr(strings.TrimSpace(s))
}

func isValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

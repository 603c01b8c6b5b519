package service

import (
	"context"
	"fmt"
	"strings"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"go.uber.org/zap"
)

// subscribeAttempts bounds the insert/lookup loop in Subscribe when
// unsubscribes keep racing the lookup.
const subscribeAttempts = 3

type marketingStore interface {
	CreateNewsletterSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	GetNewsletterSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	DeleteNewsletterSubscription(ctx context.Context, email string) error
	CreateContact(ctx context.Context, contact *models.Contact) error
}

// MarketingService handles newsletter signups and the contact form
type MarketingService struct {
	store  marketingStore
	logger *zap.Logger
}

// NewMarketingService creates a new marketing service
func NewMarketingService(store *store.Store) *MarketingService {
	return &MarketingService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// SubscribeRequest is a newsletter signup
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// SubscribeResult reports whether the email was already on the list
type SubscribeResult struct {
	Subscription      *models.NewsletterSubscription `json:"subscription"`
	AlreadySubscribed bool                           `json:"already_subscribed"`
}

// ContactRequest is a contact-form submission
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"required,max=40"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe adds an email to the newsletter. Signing up twice is not an error.
func (s *MarketingService) Subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResult, error) {
	ctx, span := util.StartSpan(ctx, "MarketingService.Subscribe")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		util.NewsletterSignupsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < subscribeAttempts; attempt++ {
		sub, err := s.store.CreateNewsletterSubscription(ctx, req.Email)
		if err == nil {
			util.NewsletterSignupsTotal.WithLabelValues("created").Inc()
			return &SubscribeResult{Subscription: sub}, nil
		}
		if !store.IsUniqueViolation(err) {
			util.NewsletterSignupsTotal.WithLabelValues("failed").Inc()
			util.SpanError(span, err)
			return nil, err
		}
		recordViolation("subscribe", err)

		existing, err := s.store.GetNewsletterSubscription(ctx, req.Email)
		if err == nil {
			util.NewsletterSignupsTotal.WithLabelValues("duplicate").Inc()
			return &SubscribeResult{Subscription: existing, AlreadySubscribed: true}, nil
		}
		if !store.IsNotFound(err) {
			util.SpanError(span, err)
			return nil, err
		}
		// unsubscribed between the insert and the lookup
		s.logger.Debug("Subscription vanished, retrying insert", zap.Int("attempt", attempt+1))
		lastErr = err
	}
	util.NewsletterSignupsTotal.WithLabelValues("failed").Inc()
	return nil, fmt.Errorf("failed to subscribe after %d attempts: %w", subscribeAttempts, lastErr)
}

// Unsubscribe removes an email from the newsletter
func (s *MarketingService) Unsubscribe(ctx context.Context, email string) error {
	return s.store.DeleteNewsletterSubscription(ctx, normalizeEmail(email))
}

// SubmitContact stores a contact-form message. Each email may submit once.
func (s *MarketingService) SubmitContact(ctx context.Context, req *ContactRequest) (*models.Contact, error) {
	ctx, span := util.StartSpan(ctx, "MarketingService.SubmitContact")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: optionalString(req.Subject),
		Message: optionalString(req.Message),
	}
	if err := s.store.CreateContact(ctx, contact); err != nil {
		recordViolation("submit_contact", err)
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateContact, err)
		}
		util.SpanError(span, err)
		return nil, err
	}

	s.logger.Info("Contact submitted", zap.String("contact_id", contact.ID.String()))
	return contact, nil
}

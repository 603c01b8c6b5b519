package store

import (
	"context"
	"fmt"

	"smrt/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateNewsletterSubscription stores an email; duplicates fail with ErrUniqueViolation.
func (s *Store) CreateNewsletterSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	var sub models.NewsletterSubscription
	err := sqlx.GetContext(ctx, s.q, &sub,
		"INSERT INTO newsletter_subscriptions (email) VALUES ($1) RETURNING *", email)
	if err != nil {
		return nil, fmt.Errorf("failed to create newsletter subscription: %w", classify(err))
	}
	return &sub, nil
}

// GetNewsletterSubscription looks up a subscription by email
func (s *Store) GetNewsletterSubscription(ctx context.Context, email string) (*models.NewsletterSubscription, error) {
	var sub models.NewsletterSubscription
	err := sqlx.GetContext(ctx, s.q, &sub,
		"SELECT * FROM newsletter_subscriptions WHERE email = $1", email)
	if err != nil {
		return nil, notFound(err, "newsletter subscription", email)
	}
	return &sub, nil
}

// DeleteNewsletterSubscription unsubscribes an email
func (s *Store) DeleteNewsletterSubscription(ctx context.Context, email string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM newsletter_subscriptions WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("failed to delete newsletter subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("newsletter subscription %s: %w", email, ErrNotFound)
	}
	return nil
}

// CreateContact stores a contact-form submission; one per email.
func (s *Store) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (name, email, phone, subject, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, contact, query,
		contact.Name, contact.Email, contact.Phone, contact.Subject, contact.Message)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", classify(err))
	}
	return nil
}

// GetContactByEmail retrieves a contact submission
func (s *Store) GetContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	var contact models.Contact
	err := sqlx.GetContext(ctx, s.q, &contact, "SELECT * FROM contacts WHERE email = $1", email)
	if err != nil {
		return nil, notFound(err, "contact", email)
	}
	return &contact, nil
}

// ListContacts returns submissions newest first
func (s *Store) ListContacts(ctx context.Context, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	contacts := []models.Contact{}
	err := sqlx.SelectContext(ctx, s.q, &contacts,
		"SELECT * FROM contacts ORDER BY created_at DESC, id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

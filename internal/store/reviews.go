package store

import (
	"context"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/schema"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CreateReview inserts a review. A second review by the same user for the
// same product fails with ErrUniqueViolation on reviews_user_product_unique;
// a rating outside 1..5 fails with ErrDomainViolation on rating_check.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, product_id, rating, title, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, review, query,
		review.UserID, review.ProductID, review.Rating, review.Title, review.Body)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", classify(err))
	}
	return nil
}

// GetReview retrieves a review by ID
func (s *Store) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := sqlx.GetContext(ctx, s.q, &review, "SELECT * FROM reviews WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "review", id)
	}
	return &review, nil
}

// ListReviewsByProduct returns a product's reviews, most recent first
func (s *Store) ListReviewsByProduct(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	reviews := []models.Review{}
	err := sqlx.SelectContext(ctx, s.q, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY reviewed_at DESC, id LIMIT $2 OFFSET $3",
		productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListReviewsByUser returns a user's reviews, most recent first
func (s *Store) ListReviewsByUser(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	err := sqlx.SelectContext(ctx, s.q, &reviews,
		"SELECT * FROM reviews WHERE user_id = $1 ORDER BY reviewed_at DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// UpdateReview overwrites rating, title and body
func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	query := `
		UPDATE reviews SET rating = $2, title = $3, body = $4
		WHERE id = $1
		RETURNING *`

	err := sqlx.GetContext(ctx, s.q, review, query, review.ID, review.Rating, review.Title, review.Body)
	if err != nil {
		return notFound(err, "review", review.ID)
	}
	return nil
}

// IncrementFoundHelpful bumps the helpful counter in a single statement
func (s *Store) IncrementFoundHelpful(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := sqlx.GetContext(ctx, s.q, &review,
		"UPDATE reviews SET found_helpful = found_helpful + 1 WHERE id = $1 RETURNING *", id)
	if err != nil {
		return nil, notFound(err, "review", id)
	}
	return &review, nil
}

// DeleteReview fails while feedback references the review.
func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableReviews, id)
}

// CreateReviewFeedback inserts a reply on a review
func (s *Store) CreateReviewFeedback(ctx context.Context, fb *models.ReviewFeedback) error {
	err := sqlx.GetContext(ctx, s.q, fb,
		"INSERT INTO review_feedbacks (review_id, user_id, body) VALUES ($1, $2, $3) RETURNING *",
		fb.ReviewID, fb.UserID, fb.Body)
	if err != nil {
		return fmt.Errorf("failed to create review feedback: %w", classify(err))
	}
	return nil
}

// ListReviewFeedback returns replies on a review, oldest first
func (s *Store) ListReviewFeedback(ctx context.Context, reviewID uuid.UUID) ([]models.ReviewFeedback, error) {
	feedback := []models.ReviewFeedback{}
	err := sqlx.SelectContext(ctx, s.q, &feedback,
		"SELECT * FROM review_feedbacks WHERE review_id = $1 ORDER BY created_at, id", reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review feedback: %w", err)
	}
	return feedback, nil
}

// DeleteReviewFeedback removes a single reply
func (s *Store) DeleteReviewFeedback(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, schema.TableReviewFeedbacks, id)
}

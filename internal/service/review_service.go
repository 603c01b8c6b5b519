package service

import (
	"context"
	"errors"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reviewUniqueConstraint = "reviews_user_product_unique"

// ReviewService handles product reviews and feedback
type ReviewService struct {
	store     *store.Store
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store *store.Store, publisher EventPublisher) *ReviewService {
	return &ReviewService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// SubmitReviewRequest represents a review submission
type SubmitReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Title     string    `json:"title" validate:"max=200"`
	Body      string    `json:"body" validate:"max=5000"`
}

// FeedbackRequest represents a reply on a review
type FeedbackRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (s *ReviewService) resolveUser(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, ErrUnknownUser
	}
	user, err := s.store.GetUserByExternalAuthID(ctx, externalID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, externalID)
		}
		return nil, err
	}
	return user, nil
}

// Submit stores a review. A concurrent or repeated submission for the same
// product surfaces as ErrAlreadyReviewed and is not retried.
func (s *ReviewService) Submit(ctx context.Context, externalUserID string, req *SubmitReviewRequest) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Submit")
	defer span.End()

	if err := validateStruct(req); err != nil {
		util.ReviewsSubmittedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	user, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	rating := req.Rating
	review := &models.Review{
		UserID:    user.ID,
		ProductID: req.ProductID,
		Rating:    &rating,
		Title:     optionalString(req.Title),
		Body:      optionalString(req.Body),
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		recordViolation("create_review", err)
		util.SpanError(span, err)
		if store.IsUniqueViolation(err) && store.ConstraintName(err) == reviewUniqueConstraint {
			util.ReviewsSubmittedTotal.WithLabelValues("duplicate").Inc()
			return nil, fmt.Errorf("%w: %w", ErrAlreadyReviewed, err)
		}
		util.ReviewsSubmittedTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	util.ReviewsSubmittedTotal.WithLabelValues("created").Inc()
	s.logger.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("product_id", review.ProductID.String()))

	if s.publisher != nil {
		event := &models.ReviewSubmittedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeReviewSubmitted),
			ReviewID:  review.ID,
			ProductID: review.ProductID,
			UserID:    review.UserID,
			Rating:    review.Rating,
		}
		if err := s.publisher.PublishReviewSubmitted(ctx, event); err != nil {
			s.logger.Error("Failed to publish ReviewSubmitted event", zap.Error(err))
		}
	}
	return review, nil
}

// MarkHelpful increments the review's helpful counter
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	return s.store.IncrementFoundHelpful(ctx, reviewID)
}

// AddFeedback stores a reply from a known user
func (s *ReviewService) AddFeedback(ctx context.Context, externalUserID string, reviewID uuid.UUID, req *FeedbackRequest) (*models.ReviewFeedback, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.AddFeedback")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	fb := &models.ReviewFeedback{ReviewID: reviewID, UserID: user.ID, Body: optionalString(req.Body)}
	if err := s.store.CreateReviewFeedback(ctx, fb); err != nil {
		recordViolation("create_review_feedback", err)
		if errors.Is(err, store.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("review %s: %w", reviewID, store.ErrNotFound)
		}
		return nil, err
	}
	return fb, nil
}

// ListForProduct returns a product's reviews by slug, newest first
func (s *ReviewService) ListForProduct(ctx context.Context, slug string, limit, offset int) ([]models.Review, error) {
	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.store.ListReviewsByProduct(ctx, product.ID, limit, offset)
}

// GetDetail loads a review with author, product and feedback
func (s *ReviewService) GetDetail(ctx context.Context, id uuid.UUID) (*models.ReviewDetail, error) {
	return s.store.GetReviewDetail(ctx, id)
}

package api

import (
	"net/http"

	"smrt/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listReviews(c *gin.Context) {
	reviews, err := h.svc.Reviews.ListForProduct(c.Request.Context(), c.Param("slug"),
		queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, "Failed to list reviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// submitReview stores a review for the authenticated caller
func (h *Handler) submitReview(c *gin.Context) {
	var req service.SubmitReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.svc.Reviews.Submit(c.Request.Context(), caller(c).ExternalAuthID, &req)
	if err != nil {
		respondError(c, "Failed to submit review", err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) getReview(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Reviews.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Review not found", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) markHelpful(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	review, err := h.svc.Reviews.MarkHelpful(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to mark review helpful", err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) addFeedback(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.svc.Reviews.AddFeedback(c.Request.Context(), caller(c).ExternalAuthID, id, &req)
	if err != nil {
		respondError(c, "Failed to add feedback", err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

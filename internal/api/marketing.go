package api

import (
	"net/http"

	"smrt/internal/service"

	"github.com/gin-gonic/gin"
)

// subscribe answers 201 for a new signup and 200 when already subscribed
func (h *Handler) subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Marketing.Subscribe(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to subscribe", err)
		return
	}
	status := http.StatusCreated
	if result.AlreadySubscribed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	if err := h.svc.Marketing.Unsubscribe(c.Request.Context(), c.Param("email")); err != nil {
		respondError(c, "Failed to unsubscribe", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitContact(c *gin.Context) {
	var req service.ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	contact, err := h.svc.Marketing.SubmitContact(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to submit contact", err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

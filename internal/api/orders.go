package api

import (
	"net/http"

	"smrt/internal/models"
	"smrt/internal/service"

	"github.com/gin-gonic/gin"
)

type checkoutSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// placeOrder handles order creation
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if !canAccess(caller(c), req.UserID) {
		forbidden(c, "Cannot place orders for another user")
		return
	}

	placed, err := h.svc.Orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to place order", err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

// getOrder returns an order with its user, address and items
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Orders.GetOrderDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Order not found", err)
		return
	}
	if !canAccess(caller(c), detail.UserID) {
		forbidden(c, "Not your order")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) attachCheckoutSession(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req checkoutSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	current, err := h.svc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Order not found", err)
		return
	}
	if !canAccess(caller(c), current.UserID) {
		forbidden(c, "Not your order")
		return
	}
	order, err := h.svc.Orders.AttachCheckoutSession(c.Request.Context(), id, req.SessionID)
	if err != nil {
		respondError(c, "Failed to attach checkout session", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) transitionOrder(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": err.Error()})
		return
	}
	order, err := h.svc.Orders.TransitionStatus(c.Request.Context(), id, status, req.Reason)
	if err != nil {
		respondError(c, "Failed to change order status", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ListOrdersForUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

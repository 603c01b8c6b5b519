package api

import (
	"net/http"

	"smrt/internal/service"

	"github.com/gin-gonic/gin"
)

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

// syncUser upserts the caller's own identity. The header must name the same
// user as the claims.
func (h *Handler) syncUser(c *gin.Context) {
	externalID := c.GetHeader(ExternalUserHeader)
	if externalID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing " + ExternalUserHeader})
		return
	}
	var claims service.IdentityClaims
	if !bindJSON(c, &claims) {
		return
	}
	if claims.ExternalID != externalID {
		forbidden(c, "Claims do not match "+ExternalUserHeader)
		return
	}
	user, err := h.svc.Customers.SyncUser(c.Request.Context(), &claims)
	if err != nil {
		respondError(c, "Failed to sync user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateRole(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Customers.UpdateRole(c.Request.Context(), id, req.Role)
	if err != nil {
		respondError(c, "Failed to update role", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listAddresses(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	addrs, err := h.svc.Customers.ListAddresses(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to list addresses", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (h *Handler) addAddress(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.AddressRequest
	if !bindJSON(c, &req) {
		return
	}
	addr, err := h.svc.Customers.AddAddress(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to add address", err)
		return
	}
	c.JSON(http.StatusCreated, addr)
}

func (h *Handler) setDefaultAddress(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	addressID, ok := paramUUID(c, "addressId")
	if !ok {
		return
	}
	if err := h.svc.Customers.SetDefaultAddress(c.Request.Context(), userID, addressID); err != nil {
		respondError(c, "Failed to set default address", err)
		return
	}
	c.Status(http.StatusNoContent)
}

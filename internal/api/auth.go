package api

import (
	"context"
	"net/http"

	"smrt/internal/models"
	"smrt/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const callerKey = "caller"

// UserResolver maps the identity provider's user id to a stored user
type UserResolver interface {
	GetUserByExternalAuthID(ctx context.Context, externalID string) (*models.User, error)
}

// authenticate resolves ExternalUserHeader to a user and aborts with 401 when
// the header is missing or names nobody.
func (h *Handler) authenticate(c *gin.Context) {
	externalID := c.GetHeader(ExternalUserHeader)
	if externalID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing " + ExternalUserHeader})
		return
	}

	user, err := h.users.GetUserByExternalAuthID(c.Request.Context(), externalID)
	if err != nil {
		if store.IsNotFound(err) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to resolve user",
			"details": err.Error(),
		})
		return
	}

	c.Set(callerKey, user)
	c.Next()
}

func requireAdmin(c *gin.Context) {
	if !isAdmin(caller(c)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}
	c.Next()
}

// requireAccountOwner lets through admins and the user named by the :id
// path parameter.
func requireAccountOwner(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		c.Abort()
		return
	}
	if !canAccess(caller(c), id) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not your account"})
		return
	}
	c.Next()
}

// caller returns the user stored by authenticate, or nil on public routes
func caller(c *gin.Context) *models.User {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func isAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

func canAccess(user *models.User, ownerID uuid.UUID) bool {
	return user != nil && (user.ID == ownerID || user.Role == models.RoleAdmin)
}

func forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{"error": message})
}

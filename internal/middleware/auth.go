package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/refoapp/backend/internal/authz"
	"github.com/refoapp/backend/internal/models"
	"github.com/refoapp/backend/internal/utils"
)

// AuthMiddleware verifies JWT tokens and adds user info to context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("is_owner", claims.IsOwner)

		c.Next()
	}
}

// Authorize checks the actor's role against the policy for a resource
// and action.
func Authorize(enforcer *authz.Enforcer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFromContext(c)

		if err := enforcer.Require(actor, resource, action); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminMiddleware ensures the user has admin privileges
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, _ := c.Get("is_admin")
		isOwner, _ := c.Get("is_owner")
		if isAdmin != true && isOwner != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID from context
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return id, true
}

// actorFromContext rebuilds a minimal user from the token claims for
// policy checks.
func actorFromContext(c *gin.Context) *models.User {
	// A valid token implies an active account; disabled accounts are
	// rejected at login and refresh.
	actor := &models.User{IsActive: true}
	if isAdmin, ok := c.Get("is_admin"); ok {
		actor.IsAdmin, _ = isAdmin.(bool)
	}
	if isOwner, ok := c.Get("is_owner"); ok {
		actor.IsOwner, _ = isOwner.(bool)
	}
	return actor
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	return ""
}

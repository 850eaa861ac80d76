package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// AuthMiddleware validates the bearer token and puts the agent identity into
// the request context. Every radar endpoint is identity-scoped.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := security.ValidateJWT(token, config.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		agent := security.GetAgentFromClaims(claims)
		if agent == nil || agent.Identity == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token carries no identity"})
			c.Abort()
			return
		}

		c.Set("identity", agent.Identity)
		c.Set("role", agent.Role)
		c.Next()
	}
}

// extractToken reads the token from the Authorization header, falling back to
// a query parameter for EventSource and websocket clients that cannot set
// headers.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// RequireRole rejects authenticated requests whose role is not in the
// allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString("role")] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the authenticated agent identity from the gin context.
func GetIdentity(c *gin.Context) string {
	return c.GetString("identity")
}

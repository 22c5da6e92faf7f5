package middleware

import (
	"net/http"
	"strings"

	"fixserv/models"
	"fixserv/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware authenticates the bearer token and restricts the route to
// the given roles. An empty role list admits any authenticated actor. The
// actor's id and role are stored on the context for handlers.
func JWTAuthMiddleware(roles ...models.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractActorFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if len(roles) > 0 && !roleAllowed(models.ActorRole(role), roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}

		c.Set("actorID", actorID)
		c.Set("actorRole", role)
		c.Next()
	}
}

func roleAllowed(role models.ActorRole, allowed []models.ActorRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

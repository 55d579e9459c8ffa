package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is where validated claims are stored on the gin context.
const ContextKey = "claims"

// Bearer enforces HS256 bearer tokens and stores the claims on the context.
func Bearer(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextKey, claims)
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles. Must run after Bearer.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claimsAny, ok := c.Get(ContextKey)
		claims, _ := claimsAny.(Claims)
		if !ok || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// FromContext returns the claims set by Bearer, if any.
func FromContext(c *gin.Context) (Claims, bool) {
	claimsAny, ok := c.Get(ContextKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := claimsAny.(Claims)
	return claims, ok
}

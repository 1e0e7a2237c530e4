package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abdasg25/BioPass/ports"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// AuthMiddleware creates middleware that validates login tokens
func AuthMiddleware(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided."})
			return
		}

		identity, err := tokenizer.ParseLoginToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token."})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

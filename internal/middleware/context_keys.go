package middleware

import "github.com/gin-gonic/gin"

// userIDKey and tenantIDKey hold the resolved identity attached to every
// request. This core trusts the (userID, tenantID) pair; authentication
// itself is an external collaborator concern.
const (
	userIDKey   = contextKey("userID")
	tenantIDKey = contextKey("tenantID")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v := c.Request.Context().Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok {
			return userID, true
		}
	}
	return "", false
}

// GetTenantIDFromContext retrieves the resolved tenant ID from the Gin context.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	if v := c.Request.Context().Value(tenantIDKey); v != nil {
		if tenantID, ok := v.(string); ok {
			return tenantID, true
		}
	}
	return "", false
}

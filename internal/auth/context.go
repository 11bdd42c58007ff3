package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated admin user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetProviderID returns the provider the authenticated admin belongs to,
// or empty string.
func GetProviderID(c *gin.Context) string {
	if v, ok := c.Get("providerID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// appCtxKey is the Gin context key used to store the authenticated app name.
const appCtxKey = "app_name"

// APIKeyMiddleware gates the collector APIs by mapping X-API-Key → app name.
// In production this mapping would typically come from IAM/JWT/Secret Manager.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		appName, ok := keys[apiKey]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(appCtxKey, appName)
		c.Next()
	}
}

// AppName returns the authenticated app name from the request context.
func AppName(c *gin.Context) string {
	v, _ := c.Get(appCtxKey)
	s, _ := v.(string)
	return s
}

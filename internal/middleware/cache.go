package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets the Cache-Control header for responses. A zero max age
// marks the response as uncacheable, which schedule and registration data
// must always be.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := "no-store"
	if maxAgeSeconds > 0 {
		value = fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

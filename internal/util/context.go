package util

import (
	"github.com/gin-gonic/gin"
)

// IPMiddleware extracts client IP and stores it in the context so services
// can include it in log lines without holding the gin context.
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gin's ClientIP() handles X-Forwarded-For and other headers
		c.Set("client_ip", c.ClientIP())
		c.Next()
	}
}

// GetIP returns the client IP recorded by IPMiddleware.
func GetIP(c *gin.Context) string {
	return c.GetString("client_ip")
}

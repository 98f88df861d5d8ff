package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP resolves the client address once per request and stores it under
// "real_ip" for the rate limiter. Proxy headers win over the socket peer:
// CF-Connecting-IP first, then the left-most X-Forwarded-For entry, then
// whatever gin derives from the connection.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ip := forwardedIP(c); ip != "" {
			c.Set("real_ip", ip)
		} else {
			c.Set("real_ip", c.ClientIP())
		}
		c.Next()
	}
}

func forwardedIP(c *gin.Context) string {
	if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
		if ip := net.ParseIP(cf); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return ""
}

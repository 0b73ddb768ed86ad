package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limit for loopback and private network clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		// 10.0.0.0/8, 172.16/12, 192.168/16, loopback
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowMethods bypasses the limit for the given HTTP methods, so a form page
// can be viewed freely while its submissions are limited.
func AllowMethods(methods ...string) AllowFunc {
	return func(c *gin.Context) bool {
		for _, m := range methods {
			if strings.EqualFold(c.Request.Method, m) {
				return true
			}
		}
		return false
	}
}

// AllowAny bypasses the limit when any of fns does.
func AllowAny(fns ...AllowFunc) AllowFunc {
	return func(c *gin.Context) bool {
		for _, fn := range fns {
			if fn != nil && fn(c) {
				return true
			}
		}
		return false
	}
}

package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/skyport/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUser limits by the signed-in account and route, and by IP for anonymous requests.
func KeyByUser() KeyFunc {
	return func(c *gin.Context) string {
		u := CurrentUser(c)
		if u == nil {
			return "rl:user:anon:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
		}
		return "rl:user:" + u.ID + ":path:" + normalizePath(c)
	}
}

// window is a fixed window counter: INCR, start the window on the first hit
// and return the count with the time left in one round trip.
var window = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type AllowFunc func(*gin.Context) bool // return true to bypass the limit

// hit counts one request against key and reports the count and the
// milliseconds until the window resets.
func hit(c *gin.Context, rdb *redis.Client, key string, per time.Duration) (count int, resetMs int64, err error) {
	res, err := window.Run(c.Request.Context(), rdb, []string{key}, per.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	return toInt(res[0]), int64(toInt(res[1])), nil
}

// RateLimit allows limit requests per key in each fixed window, answering 429
// with Retry-After beyond that. OPTIONS and requests allow accepts are not
// counted. A nil client disables it, and Redis errors let requests through.
func RateLimit(rdb *redis.Client, limit int, per time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || per <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		count, resetMs, err := hit(c, rdb, keyFn(c), per)
		if err != nil {
			c.Next()
			return
		}
		resetSec := 0
		if resetMs > 0 {
			resetSec = int((resetMs + 999) / 1000)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, limit-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > limit {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

func toInt(v any) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}

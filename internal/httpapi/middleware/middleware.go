package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// OwnerIDKey is the gin context key holding the caller identity.
	OwnerIDKey = "owner_id"

	requestIDHeader = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered", "path", c.Request.URL.Path, "panic", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    50000,
					"message": "internal error",
					"data":    nil,
				})
			}
		}()
		c.Next()
	}
}

// Identity extracts the caller identity from the Authorization header and
// stores it on the context. When debug is set, the user_id header is honored
// instead, which keeps local testing free of any token plumbing.
func Identity(debug bool) gin.HandlerFunc {
	header := "Authorization"
	if debug {
		header = "user_id"
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(header))
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    40101,
				"message": "caller identity required",
				"data":    nil,
			})
			return
		}
		c.Set(OwnerIDKey, raw)
		c.Next()
	}
}

// Limiter counts a caller's hits inside the current window. Satisfied by
// *redisstore.Store.
type Limiter interface {
	Hit(ctx context.Context, callerID string, window time.Duration) (int64, error)
}

// RateLimit rejects callers that exceed limit requests per window. A nil
// limiter disables limiting; counter errors fail open.
func RateLimit(store Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || limit <= 0 {
			c.Next()
			return
		}
		caller, _ := c.Get(OwnerIDKey)
		id, _ := caller.(string)
		if id == "" {
			id = c.ClientIP()
		}
		n, err := store.Hit(c.Request.Context(), id, window)
		if err != nil {
			slog.Warn("rate limit check failed", "err", err)
			c.Next()
			return
		}
		if n > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    42901,
				"message": "too many requests",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}

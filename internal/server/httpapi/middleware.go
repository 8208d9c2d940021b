package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
)

const identityKey = "identity"

// RequestLogger tags every request with an id and logs its outcome.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "request_id", requestID))

		c.Next()

		l.Info(c.Request.Context(), "Request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// RateLimit rejects clients that exceed the limiter's rate, keyed by IP.
func RateLimit(l logging.Logger, lim *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		lc, err := lim.Get(c.Request.Context(), ip)
		if err != nil {
			l.Error(c.Request.Context(), "rate limit check failed", "ip", ip, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		if lc.Reached {
			l.Warn(c.Request.Context(), "rate limit exceeded", "ip", ip, "limit", lc.Limit)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// BearerAuth validates "Authorization: Bearer <jwt>" and stores the caller.
func BearerAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		id, err := auth.ParseToken(token, secret)
		if err != nil {
			msg := common.ErrInvalidToken.Error()
			if errors.Is(err, common.ErrTokenExpired) {
				msg = common.ErrTokenExpired.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "user_id", id.UserID))
		c.Next()
	}
}

// RequireAdmin must run after BearerAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := identity(c); !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

package http

import (
	"time"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/logging"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequireClaims rejects requests without a valid bearer token before any
// later handler runs. On success the claims are stored in the request
// context (auth.ClaimsFromContext).
func RequireClaims(v auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.ClaimsFromHeader(c.GetHeader(common.AuthorizationHeaderName), v)
		if err != nil {
			fail(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// claimsOf returns the claims stored by RequireClaims.
func claimsOf(c *gin.Context) (*auth.Claims, bool) {
	return auth.ClaimsFromContext(c.Request.Context())
}

// RequestID reuses the inbound X-Request-ID or generates one, and echoes
// it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if claims, ok := claimsOf(c); ok {
			args = append(args, "user_id", claims.User.ID)
		}
		l.Info(c.Request.Context(), "http request", args...)
	}
}

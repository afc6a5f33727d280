package resources

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger puts a request scoped logger, tagged with the request id, in the request context.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)

		ctx := c.Request.Context()
		logger := log.Ctx(ctx).With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}

// BasicAuth guards a route group with a bcrypt password hash. An empty hash disables the check.
func BasicAuth(user string, passwordHash string) gin.HandlerFunc {
	if passwordHash == "" {
		log.Warn().Str("stage", "startup").Str("component", "basic-auth").Msg("no admin password hash configured, write routes are unprotected")

		return func(c *gin.Context) { c.Next() }
	}

	hash := []byte(passwordHash)

	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok || u != user || bcrypt.CompareHashAndPassword(hash, []byte(p)) != nil {
			log.Ctx(c.Request.Context()).Warn().Str("user", u).Msg("basic auth rejected")
			c.Header("WWW-Authenticate", `Basic realm="eventmappr", charset="UTF-8"`)
			c.AbortWithStatus(http.StatusUnauthorized)

			return
		}

		c.Next()
	}
}

package http

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/metrics"
	"github.com/layer-3/remitwise/service"
	"github.com/rs/zerolog"
)

const (
	ctxAddress = "userAddress"
	ctxSession = "session"
	ctxToken   = "sessionToken"

	headerRequestID = "X-Request-ID"
)

// sessionToken extracts the session token from the cookie, falling back to
// an Authorization bearer header.
func sessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}

// RequireSession admits requests carrying a valid, unrevoked session without
// looking at the state of the account behind it.
func RequireSession(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return authMiddleware(cookieName, authService.ParseSession)
}

// RequireAuth admits requests carrying a valid session of an active user.
// Sessions of deactivated users are rejected with 410.
func RequireAuth(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return authMiddleware(cookieName, authService.ValidateSession)
}

type sessionResolver func(ctx context.Context, token string) (*core.Session, error)

func authMiddleware(cookieName string, resolve sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			fail(c, core.Unauthenticated("authentication required", nil))
			return
		}

		session, err := resolve(c.Request.Context(), token)
		if err != nil {
			fail(c, err)
			return
		}

		c.Set(ctxAddress, session.Address)
		c.Set(ctxSession, session)
		c.Set(ctxToken, token)

		c.Next()
	}
}

// RequireAdmin admits requests whose bearer token equals secret. An empty
// secret disables the administrative routes.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			fail(c, core.NewError(core.KindForbidden, string(core.KindForbidden), "administration is disabled", nil))
			return
		}

		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.EqualFold(auth[:7], "Bearer ") {
			fail(c, core.Unauthenticated("admin credentials required", nil))
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(auth[7:])), []byte(secret)) != 1 {
			fail(c, core.NewError(core.KindForbidden, string(core.KindForbidden), "invalid admin credentials", nil))
			return
		}

		c.Next()
	}
}

// RequestLogger logs every request and records it in the HTTP metrics
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveRequest(c.Request.Method, c.FullPath(), status, latency)

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func callerAddress(c *gin.Context) string {
	return c.GetString(ctxAddress)
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/rs/zerolog"
)

var kindStatus = map[core.Kind]int{
	core.KindInvalidInput:       http.StatusBadRequest,
	core.KindInvalidCredential:  http.StatusUnauthorized,
	core.KindUnauthenticated:    http.StatusUnauthorized,
	core.KindForbidden:          http.StatusForbidden,
	core.KindNotFound:           http.StatusNotFound,
	core.KindConflict:           http.StatusBadRequest,
	core.KindAccountDeactivated: http.StatusGone,
	core.KindUpstream:           http.StatusBadGateway,
	core.KindInternal:           http.StatusInternalServerError,
}

// sentinels classifies the domain errors that services return unwrapped
var sentinels = []struct {
	err  error
	kind core.Kind
	code string
	msg  string
}{
	{core.ErrUserNotFound, core.KindNotFound, "USER_NOT_FOUND", "user not found"},
	{core.ErrUserAlreadyDeactivated, core.KindConflict, "USER_ALREADY_DEACTIVATED", "account is already deactivated"},
	{core.ErrUserNotDeactivated, core.KindConflict, "USER_NOT_DEACTIVATED", "account is not deactivated"},
	{core.ErrUserDeactivated, core.KindAccountDeactivated, "USER_DEACTIVATED", "account has been deactivated"},
	{core.ErrTokenExpired, core.KindUnauthenticated, string(core.KindUnauthenticated), "session expired"},
	{core.ErrTokenInvalidated, core.KindUnauthenticated, string(core.KindUnauthenticated), "session has been revoked"},
	{core.ErrInvalidToken, core.KindUnauthenticated, string(core.KindUnauthenticated), "invalid session"},
	{core.ErrInvalidAddress, core.KindInvalidInput, string(core.KindInvalidInput), "invalid Stellar address"},
	{core.ErrContractNotConfigured, core.KindInternal, string(core.KindInternal), "contract not configured"},
}

// classify turns any error into the client facing error it maps to
func classify(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return core.NewError(s.kind, s.code, s.msg, err)
		}
	}

	return core.NewError(core.KindInternal, string(core.KindInternal), "internal server error", err)
}

// ErrorHandler writes the last error attached to the context as a JSON
// error response. Unclassified errors are logged and reported as a generic
// internal error.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		coreErr := classify(err)

		status, ok := kindStatus[coreErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request failed")
		}

		c.JSON(status, gin.H{"error": coreErr.Code, "message": coreErr.Message})
	}
}

// fail attaches err to the context for ErrorHandler and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/service"
)

// UserHandlers serves the routes a signed-in user manages their account with
type UserHandlers struct {
	userService *service.UserService
	cookie      CookieConfig
}

func NewUserHandlers(userService *service.UserService, cookie CookieConfig) *UserHandlers {
	return &UserHandlers{userService: userService, cookie: cookie}
}

// Deactivate soft-deletes the caller's account
func (h *UserHandlers) Deactivate(c *gin.Context) {
	at, err := h.userService.Deactivate(c.Request.Context(), callerAddress(c))
	if err != nil {
		fail(c, err)
		return
	}

	h.cookie.clear(c)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Account deactivated successfully",
		"deactivatedAt": at,
	})
}

func (h *UserHandlers) Profile(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), callerAddress(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) Preferences(c *gin.Context) {
	prefs, err := h.userService.Preferences(c.Request.Context(), callerAddress(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (h *UserHandlers) UpdatePreferences(c *gin.Context) {
	var patch core.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, core.InvalidInput("invalid request body"))
		return
	}

	prefs, err := h.userService.UpdatePreferences(c.Request.Context(), callerAddress(c), patch)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

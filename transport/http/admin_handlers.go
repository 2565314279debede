package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/service"
)

// AdminHandlers serves the administrative user lifecycle routes
type AdminHandlers struct {
	userService   *service.UserService
	retentionDays int
}

func NewAdminHandlers(userService *service.UserService, retentionDays int) *AdminHandlers {
	if retentionDays <= 0 {
		retentionDays = service.DefaultRetentionDays
	}
	return &AdminHandlers{userService: userService, retentionDays: retentionDays}
}

func (h *AdminHandlers) Reactivate(c *gin.Context) {
	address := c.Param("address")
	if err := h.userService.Reactivate(c.Request.Context(), address); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account reactivated", "address": address})
}

// GetUser returns a user whether or not it is deactivated
func (h *AdminHandlers) GetUser(c *gin.Context) {
	user, err := h.userService.GetIncludingDeactivated(c.Request.Context(), c.Param("address"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists active users, or every user with ?active=false
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, core.InvalidInput("active must be a boolean"))
			return
		}
		activeOnly = v
	}

	var (
		users []core.User
		err   error
	)
	if activeOnly {
		users, err = h.userService.ListActive(c.Request.Context())
	} else {
		users, err = h.userService.ListIncludingDeactivated(c.Request.Context())
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

func (h *AdminHandlers) CountUsers(c *gin.Context) {
	count, err := h.userService.CountActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": count})
}

// PurgeEligible lists the users a purge would delete right now
func (h *AdminHandlers) PurgeEligible(c *gin.Context) {
	days, ok := h.retention(c)
	if !ok {
		return
	}

	users, err := h.userService.PurgeCandidates(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"retentionDays": days, "users": users, "count": len(users)})
}

func (h *AdminHandlers) Purge(c *gin.Context) {
	days, ok := h.retention(c)
	if !ok {
		return
	}

	purged, err := h.userService.PurgeEligible(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"retentionDays": days, "purged": purged, "count": len(purged)})
}

func (h *AdminHandlers) retention(c *gin.Context) (int, bool) {
	raw := c.Query("retentionDays")
	if raw == "" {
		return h.retentionDays, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		fail(c, core.InvalidInput("retentionDays must be a positive integer"))
		return 0, false
	}
	return days, true
}

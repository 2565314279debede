package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookie      CookieConfig
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookie CookieConfig) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookie:      cookie,
	}
}

// Nonce issues a login nonce. The address comes from the query string on
// GET and from the JSON body (address or publicKey) on POST.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	address := c.Query("address")

	if c.Request.Method == http.MethodPost {
		var req struct {
			Address   string `json:"address"`
			PublicKey string `json:"publicKey"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, core.InvalidInput("invalid request body"))
			return
		}
		address = req.Address
		if address == "" {
			address = req.PublicKey
		}
	}

	nonce, err := h.authService.IssueNonce(c.Request.Context(), address)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce.Value})
}

// Login verifies the signed nonce and sets the session cookie
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address"`
		Message   string `json:"message"`
		Signature string `json:"signature"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, core.InvalidInput("invalid request body"))
		return
	}

	session, token, err := h.authService.Login(c.Request.Context(), req.Address, req.Message, req.Signature)
	if err != nil {
		fail(c, err)
		return
	}

	h.cookie.set(c, token, h.authService.SessionTTL())
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"address": session.Address,
	})
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		fail(c, err)
		return
	}

	h.cookie.clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"address": callerAddress(c),
	})
}

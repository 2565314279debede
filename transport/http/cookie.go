package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the attributes of the session cookie
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// DefaultCookieConfig returns the cookie attributes used in production
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     "session",
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cc CookieConfig) set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(cc.SameSite)
	c.SetCookie(cc.Name, token, int(ttl.Seconds()), cc.Path, cc.Domain, cc.Secure, cc.HTTPOnly)
}

func (cc CookieConfig) clear(c *gin.Context) {
	c.SetSameSite(cc.SameSite)
	c.SetCookie(cc.Name, "", -1, cc.Path, cc.Domain, cc.Secure, cc.HTTPOnly)
}

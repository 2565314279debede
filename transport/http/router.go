package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/metrics"
	"github.com/layer-3/remitwise/service"
	"github.com/rs/zerolog"
)

// RouterConfig carries the transport level settings of the router
type RouterConfig struct {
	Logger        zerolog.Logger
	CORSOrigins   []string
	Cookie        CookieConfig
	AdminSecret   string
	RetentionDays int
}

// Services bundles the business services the routes are served by
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Contracts *service.ContractService
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()

	router.Use(RequestLogger(cfg.Logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		cfg.Logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   string(core.KindInternal),
			"message": "internal server error",
		})
	}))

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", headerRequestID}
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	router.Use(ErrorHandler(cfg.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Create handlers
	authHandlers := NewAuthHandlers(svc.Auth, cfg.Cookie)
	userHandlers := NewUserHandlers(svc.Users, cfg.Cookie)
	adminHandlers := NewAdminHandlers(svc.Users, cfg.RetentionDays)

	requireAuth := RequireAuth(svc.Auth, cfg.Cookie.Name)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("/nonce", authHandlers.Nonce)
		auth.POST("/nonce", authHandlers.Nonce)
		auth.POST("/login", authHandlers.Login)
		auth.POST("/logout", RequireSession(svc.Auth, cfg.Cookie.Name), authHandlers.Logout)
		auth.GET("/me", requireAuth, authHandlers.Me)
	}

	user := router.Group("/user")
	{
		// Deactivated callers must reach the handler to get USER_ALREADY_DEACTIVATED
		user.POST("/deactivate", RequireSession(svc.Auth, cfg.Cookie.Name), userHandlers.Deactivate)

		user.GET("/profile", requireAuth, userHandlers.Profile)
		user.GET("/preferences", requireAuth, userHandlers.Preferences)
		user.PATCH("/preferences", requireAuth, userHandlers.UpdatePreferences)
	}

	admin := router.Group("/admin")
	admin.Use(RequireAdmin(cfg.AdminSecret))
	{
		admin.GET("/users", adminHandlers.ListUsers)
		admin.GET("/users/count", adminHandlers.CountUsers)
		admin.GET("/users/purge-eligible", adminHandlers.PurgeEligible)
		admin.POST("/users/purge", adminHandlers.Purge)
		admin.GET("/users/:address", adminHandlers.GetUser)
		admin.POST("/users/:address/reactivate", adminHandlers.Reactivate)
	}

	if svc.Contracts != nil {
		contractHandlers := NewContractHandlers(svc.Contracts)

		api := router.Group("/api/v1")
		api.Use(requireAuth)
		{
			api.POST("/bills", contractHandlers.CreateBill)
			api.POST("/bills/:id/pay", contractHandlers.PayBill)
			api.POST("/insurance", contractHandlers.CreatePolicy)
			api.POST("/insurance/:id/pay", contractHandlers.PayPremium)
			api.POST("/insurance/:id/deactivate", contractHandlers.DeactivatePolicy)
			api.POST("/split", contractHandlers.InitializeSplit)
			api.PUT("/split", contractHandlers.UpdateSplit)
		}
	}

	return router
}

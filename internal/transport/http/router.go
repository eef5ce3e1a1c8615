package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/deafauth/deafauth/internal/token"
	"github.com/deafauth/deafauth/internal/transport/http/handler"
	"github.com/deafauth/deafauth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, gate *token.Gate) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Security())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "deafauth",
			"endpoints": gin.H{
				"signup": "/auth/signup (POST)",
				"verify": "/auth/verify/:token (GET, POST)",
				"login":  "/auth/login (POST)",
				"me":     "/auth/me (GET, requires bearer token)",
				"health": "/auth/health (GET)",
			},
		})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.GET("/verify/:token", authHandler.Verify)
		auth.POST("/verify/:token", authHandler.Verify)
		auth.POST("/login", authHandler.Login)
		auth.GET("/health", authHandler.Health)

		auth.GET("/me", middleware.Auth(gate), authHandler.Me)
	}

	return r
}

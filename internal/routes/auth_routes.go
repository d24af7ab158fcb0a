package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
	"toilet_finder/internal/middleware"
)

func AuthRoutes(r *gin.RouterGroup, h *controllers.Controller, limiter *middleware.RateLimiter) {
	auth := r.Group("/auth")
	auth.Use(middleware.RateLimit(limiter))
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.RequireAuth(), h.Me)
	}
}

package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/models"
)

func AdminRoutes(r *gin.RouterGroup, h *controllers.Controller) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth())
	{
		moderation := admin.Group("")
		moderation.Use(middleware.RequireModerator())
		moderation.GET("/pending", h.PendingToilets)
		moderation.PUT("/approve/:id", h.ApproveToilet)
		moderation.PUT("/reject/:id", h.RejectToilet)

		users := admin.Group("/users")
		users.Use(middleware.RequireRole(models.RoleAdmin))
		users.GET("", h.ListUsers)
		users.PUT("/:id/role", h.SetUserRole)
	}
}

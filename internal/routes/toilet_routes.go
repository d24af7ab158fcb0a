package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
	"toilet_finder/internal/middleware"
)

func ToiletRoutes(r *gin.RouterGroup, h *controllers.Controller) {
	toilets := r.Group("/toilets")
	{
		toilets.GET("", h.ListToilets)
		toilets.GET("/:id", h.GetToilet)
		toilets.POST("", middleware.RequireAuth(), h.CreateToilet)
		toilets.PUT("/:id", middleware.RequireAuth(), h.UpdateToilet)
		toilets.DELETE("/:id", middleware.RequireAuth(), h.DeleteToilet)
	}
}

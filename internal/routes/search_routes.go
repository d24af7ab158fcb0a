package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
)

func SearchRoutes(r *gin.RouterGroup, h *controllers.Controller) {
	search := r.Group("/search")
	{
		search.GET("/nearby", h.Nearby)
		search.GET("/geojson", h.NearbyGeoJSON)
	}
}

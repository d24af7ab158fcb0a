package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
)

func WebSocketRoutes(r *gin.RouterGroup, h *controllers.Controller) {
	ws := r.Group("/notifications")
	{
		ws.GET("/ws", h.Notifications)
	}
}

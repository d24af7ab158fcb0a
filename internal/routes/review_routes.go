package routes

import (
	"github.com/gin-gonic/gin"

	"toilet_finder/internal/controllers"
	"toilet_finder/internal/middleware"
)

func ReviewRoutes(r *gin.RouterGroup, h *controllers.Controller) {
	reviews := r.Group("/reviews")
	reviews.GET("/toilet/:toiletId", h.ListReviewsByToilet)

	authed := reviews.Group("")
	authed.Use(middleware.RequireAuth())
	{
		authed.POST("", h.CreateReview)
		authed.PUT("/:id", h.UpdateReview)
		authed.DELETE("/:id", h.DeleteReview)
		authed.POST("/:id/restore", h.RestoreReview)
		authed.POST("/:id/like", h.LikeReview)
		authed.POST("/:id/dislike", h.DislikeReview)
		authed.POST("/:id/replies", h.AddReply)
	}
}

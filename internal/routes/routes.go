package routes

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toilet_finder/internal/controllers"
	"toilet_finder/internal/logger"
	"toilet_finder/internal/middleware"
)

// Deps is everything the router needs from main.
type Deps struct {
	Controller *controllers.Controller
	// AuthRateLimit is requests per minute per IP on /api/auth; 0 disables it.
	AuthRateLimit int
	// RequestLog receives one line per request. Nil disables request logging.
	RequestLog io.Writer
}

// SetupRouter builds the engine. The caller owns the returned limiter and
// should Stop it on shutdown.
func SetupRouter(deps Deps) (*gin.Engine, *middleware.RateLimiter) {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.RequestLog != nil {
		r.Use(logger.RequestLogger(deps.RequestLog))
	}
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Toilet finder API is running")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(deps.AuthRateLimit, time.Minute)
	limiter.StartCleanup(10 * time.Minute)

	api := r.Group("/api")
	AuthRoutes(api, deps.Controller, limiter)
	ToiletRoutes(api, deps.Controller)
	ReviewRoutes(api, deps.Controller)
	SearchRoutes(api, deps.Controller)
	AdminRoutes(api, deps.Controller)
	WebSocketRoutes(api, deps.Controller)

	return r, limiter
}

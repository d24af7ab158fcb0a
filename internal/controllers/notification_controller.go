package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth is the query-string token; origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Notifications upgrades to a websocket that receives moderation events.
// The JWT is passed as ?token=. Anything the client sends is ignored.
func (h *Controller) Notifications(c *gin.Context) {
	if h.hub == nil {
		fail(c, apierror.New(http.StatusServiceUnavailable, "Notifications unavailable"))
		return
	}
	tokenString := c.Query("token")
	if tokenString == "" {
		fail(c, apierror.Unauthorized("No token"))
		return
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket connection attempt with invalid token")
		fail(c, apierror.Unauthorized("Invalid token"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(conn, claims.UserID, claims.Role)
	defer h.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("user_id", claims.UserID).Warn("Notification socket closed unexpectedly")
			}
			break
		}
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  claims.UserID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Debug("Notification socket closed")
}

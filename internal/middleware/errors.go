package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/apierror"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Errors carrying a status become {success:false, message}; anything else
// is logged and returned as a 500 {success:false, error}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apierror.Error
		if errors.As(err, &apiErr) {
			body := gin.H{"success": false, "message": apiErr.Message}
			for k, v := range apiErr.Extra {
				body[k] = v
			}
			if apiErr.Err != nil {
				logrus.WithError(apiErr.Err).WithField("path", c.Request.URL.Path).Warn(apiErr.Message)
			}
			c.JSON(apierror.StatusOf(apiErr), body)
			return
		}

		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Server Error"})
	}
}

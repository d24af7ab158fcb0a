package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetOutput(os.Stderr)

	Setup(Options{File: filepath.Join(t.TempDir(), "app.log"), Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	Setup(Options{File: filepath.Join(t.TempDir(), "app.log"), Level: "bogus"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestLogger(&buf))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/toilets", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Zero(t, buf.Len())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/toilets", nil))
	assert.Contains(t, buf.String(), "/api/toilets")
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pwarestaurants/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", w.Body.String())
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOutput("info", "json", &buf)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) {
		Logger(c, log).Info("inside handler")
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var handlerLine, accessLine map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &handlerLine))
	require.NoError(t, json.Unmarshal(lines[1], &accessLine))

	assert.Equal(t, "req-1", handlerLine["request_id"])
	assert.Equal(t, "req-1", accessLine["request_id"])
	assert.Equal(t, float64(404), accessLine["status"])
	assert.Equal(t, "/missing", accessLine["path"])
	assert.Equal(t, "warning", accessLine["level"])
}

func TestLogger_Fallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	fallback := logrus.New()
	assert.Equal(t, logrus.FieldLogger(fallback), Logger(c, fallback))
}

func TestCORS(t *testing.T) {
	newRouter := func(origins []string) *gin.Engine {
		r := gin.New()
		r.Use(CORS(origins))
		r.GET("/api/restaurants", func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
		return r
	}

	t.Run("AllowAll", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
		req.Header.Set("Origin", "http://anywhere.test")
		w := httptest.NewRecorder()
		newRouter([]string{"*"}).ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Restricted", func(t *testing.T) {
		r := newRouter([]string{"http://localhost:3000"})

		req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
		req.Header.Set("Origin", "http://evil.test")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	newRouter := func(rps float64, burst int) *gin.Engine {
		r := gin.New()
		r.Use(RateLimit(rps, burst))
		r.POST("/api/restaurant/rating", func(c *gin.Context) { c.Status(http.StatusCreated) })
		return r
	}
	post := func(r *gin.Engine, ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/restaurant/rating", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("Disabled", func(t *testing.T) {
		r := newRouter(0, 0)
		for i := 0; i < 50; i++ {
			require.Equal(t, http.StatusCreated, post(r, "10.0.0.1"))
		}
	})

	t.Run("BurstThenReject", func(t *testing.T) {
		r := newRouter(0.001, 2)
		assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1"))
		assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, post(r, "10.0.0.1"))

		assert.Equal(t, http.StatusCreated, post(r, "10.0.0.2"), "clients are limited separately")
	})
}

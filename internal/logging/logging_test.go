package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json", "taskflex", "test")

	log.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "taskflex", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "kept", line["message"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := NewWithWriter(&bytes.Buffer{}, "nonsense", "json", "s", "e")
	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json", "taskflex", "test")

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/things/:id", func(c *gin.Context) {
		require.Equal(t, zerolog.DebugLevel, zerolog.Ctx(c.Request.Context()).GetLevel())
		c.Set(UserIDKey, "u-1")
		c.Status(http.StatusTeapot)
	})

	t.Run("propagates request id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		r.ServeHTTP(w, req)

		require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "req-1", line["request_id"])
		require.Equal(t, "/things/:id", line["path"])
		require.Equal(t, float64(http.StatusTeapot), line["status"])
		require.Equal(t, "u-1", line["user_id"])
		require.Equal(t, "warn", line["level"])
	})

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/1", nil))
		require.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

package middleware

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

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(RequestLogger(logger))

	var fromCtx *zerolog.Logger

	server.GET("/ping", func(c *gin.Context) {
		fromCtx = zerolog.Ctx(c.Request.Context())
		fromCtx.Info().Msg("inside")
		c.Status(http.StatusTeapot)
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/ping", nil)
	request.Header.Set(RequestIDHeader, "req-42")

	server.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusTeapot, recorder.Code)
	require.Equal(t, "req-42", recorder.Header().Get(RequestIDHeader))
	require.NotNil(t, fromCtx)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		require.Equal(t, "req-42", entry["request_id"])
	}

	var last map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &last))
	require.Equal(t, float64(http.StatusTeapot), last["status_code"])
	require.Equal(t, "/ping", last["path"])
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	server := gin.New()
	server.Use(RequestLogger(zerolog.Nop()))
	server.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, recorder.Header().Get(RequestIDHeader))
}

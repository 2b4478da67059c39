package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(NewStructuredLogger(logger))
	router.Get("/agents/{agentId}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agents/ghost", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	var line struct {
		Level   string `json:"level"`
		Msg     string `json:"msg"`
		Request struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"request"`
		Response struct {
			Status int `json:"status"`
		} `json:"response"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line.Level)
	assert.Equal(t, "/agents/ghost", line.Request.Path)
	assert.NotEmpty(t, line.Request.ID)
	assert.Equal(t, http.StatusNotFound, line.Response.Status)
}

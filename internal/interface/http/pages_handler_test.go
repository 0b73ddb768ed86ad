package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

func serve(h gin.HandlerFunc, path string) (*httptest.ResponseRecorder, envelope) {
	r := gin.New()
	r.GET(path, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestPagesHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewPagesHandler(nil, map[string]func(ctx context.Context) error{"redis": ok})
	w, env := serve(h.Health, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Data["redis"])

	h = NewPagesHandler(nil, map[string]func(ctx context.Context) error{"redis": ok, "postgres": down})
	w, env = serve(h.Health, "/api/health")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "connection refused", env.Error["postgres"])
	assert.Equal(t, "ok", env.Error["redis"])
}

func TestPagesHandler_SessionAnonymous(t *testing.T) {
	h := NewPagesHandler(nil, nil)
	w, env := serve(h.Session, "/api/session")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", env.Data["state"])
	assert.Equal(t, false, env.Data["confirmed"])
	assert.NotContains(t, env.Data, "username")
}

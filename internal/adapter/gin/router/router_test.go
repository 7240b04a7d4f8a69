package router

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
	"go.uber.org/zap/zaptest"

	"user-directory-service/internal/adapter/gin/handler"
	"user-directory-service/pkg/security"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func setup(t *testing.T, redis Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	return SetupRouter(Deps{
		Users:  handler.NewUserHandler(nil, log),
		Ledger: handler.NewLedgerHandler(nil, log),
		Admin:  security.NewAdminVerifier("has-the-privilege", ""),
		Redis:  redis,
		Log:    log,
	})
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	t.Run("without redis", func(t *testing.T) {
		w := serve(setup(t, nil), http.MethodGet, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"user-directory-service"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("redis up", func(t *testing.T) {
		w := serve(setup(t, pingerFunc(func(context.Context) error { return nil })), http.MethodGet, "/health")

		assert.JSONEq(t, `{"status":"healthy","service":"user-directory-service","redis":"ok"}`, w.Body.String())
	})

	t.Run("redis down", func(t *testing.T) {
		w := serve(setup(t, pingerFunc(func(context.Context) error { return errors.New("refused") })), http.MethodGet, "/health")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"user-directory-service","redis":"unavailable"}`, w.Body.String())
	})
}

func TestOpenAPIDocument(t *testing.T) {
	w := serve(setup(t, nil), http.MethodGet, "/openapi.json")

	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/users/{id}")
}

func TestSwaggerUI(t *testing.T) {
	w := serve(setup(t, nil), http.MethodGet, "/swagger/index.html")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := setup(t, nil)

	for _, path := range []string{"/users", "/transactions"} {
		w := serve(r, http.MethodPost, path)

		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"You are not authorized for this action."}`, w.Body.String())
	}
}

package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, configured, provided string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/sessions", Middleware(configured), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	req, err := http.NewRequest(http.MethodPost, "/sessions", nil)
	require.NoError(t, err)
	if provided != "" {
		req.Header.Set("X-API-Key", provided)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareAcceptsMatchingKey(t *testing.T) {
	w := performRequest(t, "secret", "secret")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestMiddlewareRejectsWrongKey(t *testing.T) {
	w := performRequest(t, "secret", "nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsMissingKey(t *testing.T) {
	w := performRequest(t, "secret", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareDisabledWithoutConfiguredKey(t *testing.T) {
	w := performRequest(t, "", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActorRouter(svc *JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ActorMiddleware(svc, "system", nil))
	r.GET("/whoami", func(c *gin.Context) {
		actor, _ := ActorFromContext(c.Request.Context())
		c.String(http.StatusOK, actor+"|"+c.GetString(ActorContextKey))
	})
	return r
}

func callWhoami(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActorMiddleware(t *testing.T) {
	svc := NewJWTService("secret", "edusuite")
	r := newActorRouter(svc)

	w := callWhoami(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "system|system", w.Body.String())

	token, err := svc.GenerateToken("staff-7", "")
	require.NoError(t, err)
	w = callWhoami(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-7|staff-7", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, callWhoami(r, "Bearer junk").Code)
	assert.Equal(t, http.StatusUnauthorized, callWhoami(r, "Basic dXNlcjpwYXNz").Code)
}

func TestActorMiddleware_WithoutSecretRejectsTokens(t *testing.T) {
	r := newActorRouter(nil)

	assert.Equal(t, http.StatusOK, callWhoami(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, callWhoami(r, "Bearer anything").Code)
}

func TestActorResolver(t *testing.T) {
	resolve := ActorResolver("system")
	assert.Equal(t, "system", resolve(context.Background()))
	assert.Equal(t, "system", resolve(WithActor(context.Background(), "")))
	assert.Equal(t, "u1", resolve(WithActor(context.Background(), "u1")))
}

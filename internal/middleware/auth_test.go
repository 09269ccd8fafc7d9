package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) *Auth {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Auth{
		JWT:    pkg.NewJWTManager("a", "r"),
		Users:  redis.NewUserTokenRepository(rdb),
		Admins: redis.NewAdminTokenRepository(rdb),
	}
}

func session(t *testing.T, a *Auth, store *redis.TokenRepository, id uint64, role string) string {
	t.Helper()
	pair, err := a.JWT.GeneratePair(id, role)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), id, pair.AccessToken))
	return pair.AccessToken
}

func serve(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	a := newAuth(t)
	r := gin.New()
	var seen uint64
	r.GET("/user", a.User(), func(c *gin.Context) { seen = UserID(c) })
	r.GET("/admin", a.Admin(), func(c *gin.Context) { seen = AdminID(c) })

	userTok := session(t, a, a.Users, 5, pkg.RoleUser)
	adminTok := session(t, a, a.Admins, 9, pkg.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/user", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/user", "not-a-jwt").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", userTok).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/user", adminTok).Code)

	require.Equal(t, http.StatusOK, serve(r, "/user", userTok).Code)
	assert.Equal(t, uint64(5), seen)
	require.Equal(t, http.StatusOK, serve(r, "/admin", adminTok).Code)
	assert.Equal(t, uint64(9), seen)

	// 另一处登录覆盖了 token
	session(t, a, a.Users, 5, pkg.RoleUser)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/user", userTok).Code)

	require.NoError(t, a.Users.Delete(context.Background(), 5))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/user", userTok).Code)
}

func TestOptionalAuth(t *testing.T) {
	a := newAuth(t)
	r := gin.New()
	var seen uint64
	r.GET("/", a.Optional(), func(c *gin.Context) { seen = UserID(c) })

	require.Equal(t, http.StatusOK, serve(r, "/", "").Code)
	assert.Zero(t, seen)

	require.Equal(t, http.StatusOK, serve(r, "/", "garbage").Code)
	assert.Zero(t, seen)

	tok := session(t, a, a.Users, 3, pkg.RoleUser)
	require.Equal(t, http.StatusOK, serve(r, "/", tok).Code)
	assert.Equal(t, uint64(3), seen)
}

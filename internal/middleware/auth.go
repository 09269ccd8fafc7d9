package middleware

import (
	"errors"
	"net/http"
	"strings"

	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey  = "user_id"
	ContextAdminIDKey = "admin_id"
)

// Auth 解析 bearer token，并和 redis 里保存的 token 比对
type Auth struct {
	JWT    *pkg.JWTManager
	Users  *redis.TokenRepository
	Admins *redis.TokenRepository
}

func bearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// User 普通用户接口
func (a *Auth) User() gin.HandlerFunc {
	return a.require(pkg.RoleUser, a.Users, ContextUserIDKey)
}

// Admin 管理员接口，用户 token 访问返回 403
func (a *Auth) Admin() gin.HandlerFunc {
	return a.require(pkg.RoleAdmin, a.Admins, ContextAdminIDKey)
}

func (a *Auth) require(role string, store *redis.TokenRepository, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing or invalid authorization header"})
			return
		}

		claims, err := a.JWT.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "permission denied"})
			return
		}

		// redis校验是否是正确的token
		stored, err := store.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, redis.ErrTokenNotFound) || (err == nil && stored != tokenStr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "session expired or logged in elsewhere"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
			return
		}

		// 校验通过后更新过期时间
		if err = store.Extend(c.Request.Context(), claims.UserID); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
			return
		}

		c.Set(key, claims.UserID)
		c.Next()
	}
}

// Optional 公开接口：带了有效的用户 token 就注入 user_id，否则按游客处理
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := a.JWT.ParseAccess(tokenStr)
		if err != nil || claims.Role != pkg.RoleUser {
			c.Next()
			return
		}
		stored, err := a.Users.Get(c.Request.Context(), claims.UserID)
		if err == nil && stored == tokenStr {
			c.Set(ContextUserIDKey, claims.UserID)
		}
		c.Next()
	}
}

// UserID 未登录时返回 0
func UserID(c *gin.Context) uint64 {
	return c.GetUint64(ContextUserIDKey)
}

func AdminID(c *gin.Context) uint64 {
	return c.GetUint64(ContextAdminIDKey)
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	UserTokenPrefix  = "login:user:token"
	AdminTokenPrefix = "login:admin:token"
	TokenExpire      = 30 * time.Minute
)

// TokenRepository 单会话：每个账号只保留最近一次登录的 access token
type TokenRepository struct {
	RDB    *redis.Client
	Prefix string
}

func NewUserTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{RDB: rdb, Prefix: UserTokenPrefix}
}

func NewAdminTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{RDB: rdb, Prefix: AdminTokenPrefix}
}

func (r *TokenRepository) key(id uint64) string {
	return fmt.Sprintf("%s:%d", r.Prefix, id)
}

func (r *TokenRepository) Save(ctx context.Context, id uint64, token string) error {
	if err := r.RDB.Set(ctx, r.key(id), token, TokenExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, id uint64) (string, error) {
	token, err := r.RDB.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// Extend 滑动过期
func (r *TokenRepository) Extend(ctx context.Context, id uint64) error {
	if err := r.RDB.Expire(ctx, r.key(id), TokenExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.RDB.Del(ctx, r.key(id)).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	EmailCodePrefix     = "email:code"

	// 两阶段键
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email code not found")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
	ErrCodeMismatch        = errors.New("code mismatch")
)

// 取值+写入目标+设置 TTL+删除源
var promoteScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// 比对成功才删除，验证码只能用一次
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return -1
end
if val ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// EmailRepository scope 取 register / reset
type EmailRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewEmailRepository(rdb *redis.Client) *EmailRepository {
	return &EmailRepository{RDB: rdb, TTL: DefaultEmailCodeTTL}
}

func (e *EmailRepository) key(scope, stage, email string) string {
	return fmt.Sprintf("%s:%s:%s:%s", EmailCodePrefix, scope, stage, email)
}

// SavePending 邮件发出前先写 pending
func (e *EmailRepository) SavePending(ctx context.Context, scope, email, code string) error {
	if err := e.RDB.Set(ctx, e.key(scope, PendingSuffix, email), code, e.TTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// Confirm 邮件发送成功后 pending -> confirmed
func (e *EmailRepository) Confirm(ctx context.Context, scope, email string) error {
	px := int64(e.TTL / time.Millisecond)
	ok, err := promoteScript.Run(ctx, e.RDB,
		[]string{e.key(scope, PendingSuffix, email), e.key(scope, ConfirmedSuffix, email)}, px).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeletePending 发送失败时清理（幂等）
func (e *EmailRepository) DeletePending(ctx context.Context, scope, email string) error {
	return e.RDB.Del(ctx, e.key(scope, PendingSuffix, email)).Err()
}

func (e *EmailRepository) GetConfirmed(ctx context.Context, scope, email string) (string, error) {
	val, err := e.RDB.Get(ctx, e.key(scope, ConfirmedSuffix, email)).Result()
	if err != nil {
		return "", ErrEmailNotFound
	}
	return val, nil
}

// Consume 校验并删除 confirmed 验证码
func (e *EmailRepository) Consume(ctx context.Context, scope, email, code string) error {
	res, err := consumeScript.Run(ctx, e.RDB, []string{e.key(scope, ConfirmedSuffix, email)}, code).Int()
	if err != nil {
		return ErrRedisUnavailable
	}
	switch res {
	case -1:
		return ErrEmailNotFound
	case 0:
		return ErrCodeMismatch
	}
	return nil
}

package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"alumni_network/internal/model"
	"alumni_network/internal/repository/mysql"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 单连接内存库，所有 goroutine 串行使用同一个连接
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, mysql.Migrate(db))
	return db
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func countRows(t *testing.T, db *gorm.DB, m any, where ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// insertBeforeCreate 第一次往 table 插入前，先在同一连接上执行 stmt，相当于另一个请求抢先提交了同一行
func insertBeforeCreate(t *testing.T, db *gorm.DB, table, stmt string, args ...any) {
	t.Helper()
	var once sync.Once
	name := "test:race_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		once.Do(func() {
			if err := tx.Session(&gorm.Session{NewDB: true}).Exec(stmt, args...).Error; err != nil {
				_ = tx.AddError(err)
			}
		})
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Password: "x", FullName: email}
	require.NoError(t, db.Create(u).Error)
	return u
}

type fixture struct {
	db          *gorm.DB
	authz       *AuthzService
	communities *CommunityService
	roles       *RoleService
	positions   *PositionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	authz := NewAuthzService(db)
	return &fixture{
		db:          db,
		authz:       authz,
		communities: NewCommunityService(db, authz),
		roles:       NewRoleService(db, authz),
		positions:   NewPositionService(db, authz),
	}
}

// community 建社区并返回 President 的用户
func (f *fixture) community(t *testing.T, name string, mode model.JoinMode) (*model.Community, *model.User) {
	t.Helper()
	owner := createUser(t, f.db, "owner-"+name+"@uni.edu")
	c, err := f.communities.CreateCommunity(context.Background(), owner.ID, name, "", mode)
	require.NoError(t, err)
	return c, owner
}

// member 建用户并直接加入开放社区
func (f *fixture) member(t *testing.T, c *model.Community, email string) *model.User {
	t.Helper()
	u := createUser(t, f.db, email)
	_, err := (&mysql.MembershipRepository{DB: f.db}).Upsert(context.Background(), c.ID, u.ID, model.MembershipApproved)
	require.NoError(t, err)
	return u
}

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[to] = body
	return nil
}

type fakeProducer struct {
	mu   sync.Mutex
	keys []string
	vals []string
	err  error
}

func (p *fakeProducer) Send(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.vals = append(p.vals, string(value))
	return nil
}

func (p *fakeProducer) Close() error { return nil }

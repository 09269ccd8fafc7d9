package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alumni_network/internal/model"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/mysql"
	"alumni_network/internal/repository/redis"
	"alumni_network/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

type testServer struct {
	t   *testing.T
	r   *gin.Engine
	db  *gorm.DB
	rdb *goredis.Client
	jwt *pkg.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	jwt := pkg.NewJWTManager("test-access", "test-refresh")

	r := InitRouter(Deps{DB: db, RDB: rdb, Mailer: nopMailer{}, JWT: jwt, Log: log, Registry: prometheus.NewRegistry()})
	return &testServer{t: t, r: r, db: db, rdb: rdb, jwt: jwt}
}

// do 返回状态码和解析后的 JSON
func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	out := map[string]any{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

// login 直接建用户再走登录接口
func (s *testServer) login(email string) string {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(s.t, err)
	require.NoError(s.t, s.db.Create(&model.User{Email: email, Password: string(hash), FullName: email}).Error)

	code, body := s.do(http.MethodPost, "/api/user/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, code, body)
	return body["access_token"].(string)
}

func (s *testServer) adminLogin() string {
	s.t.Helper()
	svc := service.NewAdminService(s.db, redis.NewAdminTokenRepository(s.rdb), redis.NewUserTokenRepository(s.rdb), s.jwt)
	_, _, err := svc.EnsureAdmin(context.Background(), "root", "admin-pass-1")
	require.NoError(s.t, err)
	code, body := s.do(http.MethodPost, "/api/admin/login", "", map[string]string{"username": "root", "password": "admin-pass-1"})
	require.Equal(s.t, http.StatusOK, code, body)
	return body["access_token"].(string)
}

func TestAuthStatuses(t *testing.T) {
	s := newTestServer(t)
	token := s.login("ada@uni.edu")

	code, _ := s.do(http.MethodPost, "/api/communities", "", map[string]string{"name": "CS Alumni"})
	assert.Equal(t, http.StatusUnauthorized, code, "no token")

	code, _ = s.do(http.MethodPost, "/api/communities", "garbage", map[string]string{"name": "CS Alumni"})
	assert.Equal(t, http.StatusUnauthorized, code, "bad token")

	code, _ = s.do(http.MethodGet, "/api/admin/report", token, nil)
	assert.Equal(t, http.StatusForbidden, code, "user token on admin route")

	// 重新登录后旧 token 失效
	code, body := s.do(http.MethodPost, "/api/user/login", "", map[string]string{"email": "ada@uni.edu", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/communities", token, map[string]string{"name": "CS Alumni"})
	assert.Equal(t, http.StatusUnauthorized, code, "old session")

	code, _ = s.do(http.MethodPost, "/api/communities", body["access_token"].(string), map[string]string{"name": "CS Alumni"})
	assert.Equal(t, http.StatusCreated, code)

	admin := s.adminLogin()
	code, _ = s.do(http.MethodPost, "/api/communities", admin, map[string]string{"name": "Admin Club"})
	assert.Equal(t, http.StatusForbidden, code, "admin token on user route")
	code, report := s.do(http.MethodGet, "/api/admin/report", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, report["communities"])
}

func TestCommunityFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner@uni.edu")
	other := s.login("other@uni.edu")

	code, body := s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": ""})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"name"}, body["fields"])

	code, body = s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": strings.Repeat("a", 141)})
	require.Equal(t, http.StatusBadRequest, code, "longer than the column")
	assert.Equal(t, []any{"name"}, body["fields"])

	code, body = s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "CS Alumni", "join_mode": "sometimes"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"join_mode"}, body["fields"])

	code, _ = s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "CS Alumni"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(http.MethodPost, "/api/communities", other, map[string]string{"name": "CS Alumni"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(http.MethodGet, "/api/communities/1/roles", "", nil)
	require.Equal(t, http.StatusOK, code)
	roles := body["roles"].([]any)
	require.Len(t, roles, 1)
	assert.Equal(t, "President", roles[0].(map[string]any)["name"])

	code, _ = s.do(http.MethodPost, "/api/communities/1/posts", other, map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusForbidden, code, "not a member yet")

	code, body = s.do(http.MethodPost, "/api/communities/1/join", other, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "approved", body["status"])
	code, body = s.do(http.MethodPost, "/api/communities/1/join", other, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["already"])

	code, body = s.do(http.MethodPost, "/api/communities/1/posts", other, map[string]string{"body": "hello"})
	require.Equal(t, http.StatusCreated, code)
	postID := body["post"].(map[string]any)["id"]
	assert.EqualValues(t, 1, postID)

	code, body = s.do(http.MethodPost, "/api/posts/1/like", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["changed"])
	code, body = s.do(http.MethodPost, "/api/posts/1/like", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["changed"])

	code, body = s.do(http.MethodGet, "/api/posts/1/likes", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, true, body["liked"])

	code, body = s.do(http.MethodGet, "/api/posts/1/likes", "", nil)
	require.Equal(t, http.StatusOK, code)
	_, hasLiked := body["liked"]
	assert.False(t, hasLiked, "guests only see the count")

	code, body = s.do(http.MethodGet, "/api/communities/1", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["is_member"])

	code, _ = s.do(http.MethodGet, "/api/communities/1/members/requests", other, nil)
	assert.Equal(t, http.StatusForbidden, code, "manage_members required")

	code, _ = s.do(http.MethodGet, "/api/communities/99", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPositionFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner@uni.edu")
	applicant := s.login("applicant@uni.edu")

	code, _ := s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "Eng Alumni"})
	require.Equal(t, http.StatusCreated, code)
	code, body := s.do(http.MethodPost, "/api/communities/1/roles", owner, map[string]any{"name": strings.Repeat("r", 81)})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"name"}, body["fields"])

	code, body = s.do(http.MethodPost, "/api/communities/1/roles", owner, map[string]any{"name": "Treasurer", "permissions": []string{"manage_events"}})
	require.Equal(t, http.StatusCreated, code, body)
	roleID := body["role"].(map[string]any)["id"]

	code, body = s.do(http.MethodPost, "/api/communities/1/positions", owner, map[string]any{"title": strings.Repeat("t", 141)})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"title"}, body["fields"])

	code, body = s.do(http.MethodPost, "/api/communities/1/positions", owner, map[string]any{
		"title": "Treasurer", "is_role_assignment": true, "role_to_assign_id": roleID,
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = s.do(http.MethodPost, "/api/communities/1/join", applicant, nil)
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodPost, "/api/positions/1/apply", applicant, map[string]string{"note": "pick me"})
	require.Equal(t, http.StatusCreated, code, body)
	code, _ = s.do(http.MethodPost, "/api/positions/1/apply", applicant, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/positions/1/applications/1/accept", applicant, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPost, "/api/positions/1/applications/1/accept", owner, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["role_granted"])

	code, _ = s.do(http.MethodPost, "/api/communities/1/roles/assignments", owner, map[string]any{"role_id": roleID, "user_id": 2})
	assert.Equal(t, http.StatusConflict, code, "already holds a role")

	code, _ = s.do(http.MethodDelete, "/api/communities/1/roles/assignments", owner, map[string]any{"user_id": 2})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/communities/1/roles/assignments", owner, map[string]any{"role_id": roleID, "user_id": 2})
	assert.Equal(t, http.StatusCreated, code)
}

func TestEventFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner@uni.edu")
	guest := s.login("guest@uni.edu")
	late := s.login("late@uni.edu")

	code, _ := s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "Chess Alumni"})
	require.Equal(t, http.StatusCreated, code)
	for _, tok := range []string{guest, late} {
		code, _ = s.do(http.MethodPost, "/api/communities/1/join", tok, nil)
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := s.do(http.MethodPost, "/api/communities/1/events", owner, map[string]any{"title": "Open night"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["fields"], "location")

	event := map[string]any{
		"title": "Open night", "description": "Blitz", "location": "Club room",
		"starts_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339), "max_attendees": 1,
	}
	code, _ = s.do(http.MethodPost, "/api/communities/1/events", guest, event)
	assert.Equal(t, http.StatusForbidden, code, "manage_events required")
	code, body = s.do(http.MethodPost, "/api/communities/1/events", owner, event)
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(http.MethodPost, "/api/events/1/register", guest, nil)
	require.Equal(t, http.StatusCreated, code, body)
	code, body = s.do(http.MethodPost, "/api/events/1/register", guest, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["already"])
	code, body = s.do(http.MethodPost, "/api/events/1/register", late, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "event is full", body["msg"])

	code, body = s.do(http.MethodGet, "/api/events/1", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["seats_taken"])
	assert.EqualValues(t, 0, body["seats_left"])

	code, _ = s.do(http.MethodPost, "/api/registrations/1/check-in", guest, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(http.MethodPost, "/api/registrations/1/check-in", owner, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "checked_in", body["registration"].(map[string]any)["status"])

	code, _ = s.do(http.MethodPost, "/api/events/1/cancel", owner, nil)
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodGet, "/api/communities/1/events", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["events"])
}

func TestConnectionAndMessageFlow(t *testing.T) {
	s := newTestServer(t)
	ada := s.login("ada@uni.edu")
	bob := s.login("bob@uni.edu")

	code, body := s.do(http.MethodPost, "/api/connections/requests", ada, map[string]any{"to_user_id": 1})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"to_user_id"}, body["fields"])

	code, _ = s.do(http.MethodPost, "/api/connections/requests", ada, map[string]any{"to_user_id": 2})
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(http.MethodPost, "/api/connections/requests/1/accept", ada, nil)
	assert.Equal(t, http.StatusForbidden, code, "only the recipient accepts")
	code, _ = s.do(http.MethodPost, "/api/connections/requests/1/accept", bob, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/connections/requests/1/accept", bob, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(http.MethodGet, "/api/connections/relation?user_id=2", ada, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["connected"])
	code, body = s.do(http.MethodGet, "/api/profiles/2", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["profile"].(map[string]any)["connections"])
	_, hasEmail := body["profile"].(map[string]any)["email"]
	assert.False(t, hasEmail)

	code, _ = s.do(http.MethodPost, "/api/messages/requests", bob, map[string]any{"to_user_id": 1})
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodPost, "/api/messages/requests/2/accept", ada, nil)
	require.Equal(t, http.StatusOK, code, body)
	tid := body["thread"].(map[string]any)["id"]
	assert.EqualValues(t, 1, tid)

	code, _ = s.do(http.MethodPost, "/api/messages/threads/1", bob, map[string]string{"body": "hello ada"})
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodGet, "/api/messages/threads/1", ada, nil)
	require.Equal(t, http.StatusOK, code)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello ada", msgs[0].(map[string]any)["body"])

	cara := s.login("cara@uni.edu")
	code, _ = s.do(http.MethodGet, "/api/messages/threads/1", cara, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSponsorAndModeration(t *testing.T) {
	s := newTestServer(t)
	owner := s.login("owner@uni.edu")
	admin := s.adminLogin()

	code, _ := s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "CS Alumni"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = s.do(http.MethodPost, "/api/communities/1/posts", owner, map[string]string{"body": "reunion"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodPost, "/api/communities/1/posts/1/sponsor", owner, map[string]string{"tier": "gold"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/api/communities/1/posts/1/sponsor", owner, map[string]string{"tier": "priority"})
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(http.MethodPost, "/api/sponsor/1/payment", owner, map[string]string{"card_number": "1234", "expiry": "13/30", "cvv": "12"})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{"card_number", "expiry", "cvv"}, body["fields"])
	code, _ = s.do(http.MethodPost, "/api/sponsor/1/payment", owner, map[string]string{"card_number": "4242 4242 4242 4242", "expiry": "12/30", "cvv": "123"})
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/admin/approvals/sponsorships", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sponsorships"], 1)
	code, _ = s.do(http.MethodPost, "/api/admin/approvals/sponsorships/1/approve", admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/feed", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sponsored"], 1)

	code, _ = s.do(http.MethodPost, "/api/communities/1/shared-jobs", owner, map[string]string{"company": "Acme", "title": "SRE"})
	require.Equal(t, http.StatusCreated, code)
	code, body = s.do(http.MethodGet, "/api/career", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["jobs"], "pending jobs stay hidden")
	code, _ = s.do(http.MethodPost, "/api/admin/approvals/jobs/1/approve", admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/career/1", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/admin/users/1/suspend", admin, map[string]int{"days": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/api/admin/users/1/ban", admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/communities", owner, map[string]string{"name": "Another"})
	assert.Equal(t, http.StatusUnauthorized, code, "ban ends the session")
	code, _ = s.do(http.MethodPost, "/api/user/login", "", map[string]string{"email": "owner@uni.edu", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

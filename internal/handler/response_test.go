package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alumni_network/internal/apperr"
	"alumni_network/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	pkg.UseJSONFieldNames()
}

func TestFail_StatusByKind(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperr.ErrUnauthorized, http.StatusUnauthorized},
		{apperr.ErrNotMember, http.StatusForbidden},
		{apperr.ErrDuplicateName, http.StatusConflict},
		{apperr.ErrCommunityNotFound, http.StatusNotFound},
		{apperr.Validation("bad", "name"), http.StatusBadRequest},
		{errors.New("db is gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		fail(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestFail_InternalErrorIsHidden(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fail(c, errors.New("dial tcp 10.0.0.1:3306: refused"))

	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	require.Len(t, c.Errors, 1, "internal errors are handed to the logger")
}

func TestBindJSON_ReportsJSONFieldNames(t *testing.T) {
	var got map[string]any
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			JoinMode string `json:"join_mode" binding:"required,oneof=open request"`
		}
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"join_mode":"closed"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []any{"name", "join_mode"}, got["fields"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParamID(t *testing.T) {
	r := gin.New()
	r.GET("/c/:id", func(c *gin.Context) {
		if _, ok := paramID(c, "id"); ok {
			c.Status(http.StatusNoContent)
		}
	})
	for path, code := range map[string]int{"/c/7": 204, "/c/0": 400, "/c/abc": 400, "/c/-1": 400} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

package handler

import (
	"net/http"
	"strconv"

	"alumni_network/internal/apperr"
	"alumni_network/internal/pkg"

	"github.com/gin-gonic/gin"
)

// fail 业务错误按类别返回；其余错误挂到 c.Errors 交给日志和 sentry，响应里不暴露细节
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
		return
	}
	body := gin.H{"msg": err.Error()}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(kind.HTTPStatus(), body)
}

// bindJSON 绑定失败时已经写好 400 响应
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fail(c, apperr.Validation("invalid params", pkg.ValidationFields(err)...))
		return false
	}
	return true
}

// paramID 路径参数必须是正整数
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperr.Validation("invalid "+name, name))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return n
}

// queryUint 游标之类的可选参数，非法时当作 0
func queryUint(c *gin.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.Query(name), 10, 64)
	return n
}

func replyOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/response"
)

// 上下文键，与 middleware.JWTAuth 写入的一致
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxRefID  = "ref_id"
)

// MustGetActor 从 Gin 上下文中提取当前操作者。
// 如果 JWT 中间件未正确注入身份，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := c.Get(ctxUserID)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	uid, ok := userID.(int64)
	role := c.GetString(ctxRole)
	if !ok || role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	actor := service.Actor{UserID: uid, Role: role}
	if v, exists := c.Get(ctxRefID); exists {
		if ref, ok := v.(*int64); ok && ref != nil {
			id := *ref
			actor.RefID = &id
		}
	}
	return actor, true
}

// MustGetStudentID 学生接口：要求当前账号绑定了学生
func MustGetStudentID(c *gin.Context) (int64, bool) {
	actor, ok := MustGetActor(c)
	if !ok {
		return 0, false
	}
	id, ok := actor.StudentID()
	if !ok {
		response.Forbidden(c, 10003, "仅学生账号可用")
		return 0, false
	}
	return id, true
}

// ParseIDParam 解析路径中的正整数 ID
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// optionalIntQuery 可选整数查询参数，缺省返回 nil
func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, 10001, name+" 必须为整数")
		return nil, false
	}
	return &v, true
}

package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求，学生用学号、教师用工号登录
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
}

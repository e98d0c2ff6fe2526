package dto

// ── 认证模块响应 ──

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"` // Access Token 有效期（秒）
	User        AccountResponse `json:"user"`
}

// AccountResponse 账号信息（脱敏）
type AccountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	RefID    *int64 `json:"ref_id,omitempty"`
}

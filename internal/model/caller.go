package model

// Role 调用者角色
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller 特权操作的调用者身份，由会话解析后显式传入
type Caller struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Anonymous 未登录调用者
var Anonymous = Caller{Role: RoleGuest}

// IsAdmin 是否为管理员
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

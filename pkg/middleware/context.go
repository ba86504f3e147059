package middleware

// 认证中间件写入 gin.Context 的键，审计日志与限流读取
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
	RoleKey     = "role"
)

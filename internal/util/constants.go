package util

// 分页相关常量
const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ContextUserKey is where the auth middleware stores *Claims.
const ContextUserKey = "user"

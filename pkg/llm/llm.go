package llm

import "context"

// Message 单条对话消息，Role 取 "system"、"user" 或 "assistant"
type Message struct {
	Role    string
	Content string
}

// Request 一次补全请求
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Client 文本生成服务
// 一次请求对应一次完整的 prompt/response，不保存会话历史
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// System 构造 system 消息
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User 构造 user 消息
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrEmptyResponse 服务返回了空的 choices
var ErrEmptyResponse = errors.New("llm returned no choices")

// OpenAIHandler 调用 OpenAI 兼容的 chat completion 接口（OpenAI、Groq、DashScope 等）
type OpenAIHandler struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewOpenAIHandler 创建客户端，baseURL 为空时使用 OpenAI 官方地址
func NewOpenAIHandler(apiKey, baseURL, model string, timeout time.Duration, logger *logrus.Logger) *OpenAIHandler {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OpenAIHandler{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Complete 发送一次补全请求
func (h *OpenAIHandler) Complete(ctx context.Context, req Request) (string, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       h.model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		h.logger.WithError(err).WithField("model", h.model).Warn("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	h.logger.WithFields(logrus.Fields{
		"model":      h.model,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"tokens":     resp.Usage.TotalTokens,
	}).Debug("chat completion done")
	return resp.Choices[0].Message.Content, nil
}

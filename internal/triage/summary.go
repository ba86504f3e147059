package triage

import (
	"context"

	"RuralCare/pkg/llm"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
)

// Summary 结案摘要，写入就诊记录
type Summary struct {
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	Notes     string `json:"notes"`
}

// Summarize 把症状、初始分析和医生结案意见整理成就诊记录。
// 服务不可用或输出无法解析时返回固定摘要
func (c *Classifier) Summarize(ctx context.Context, symptoms []string, analysis, doctorNotes string) Summary {
	static := Summary{Diagnosis: "Follow-up required", Treatment: "Emergency resolved", Notes: doctorNotes}
	if c == nil || c.client == nil {
		return static
	}
	text, err := c.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(summarySystemPrompt),
			llm.User(buildSummaryPrompt(symptoms, analysis, doctorNotes)),
		},
		Temperature: assessmentTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		logger.Warn("resolution summary call failed", zap.Error(err))
		return static
	}
	parsed, ok := decodeJSON[Summary](text)
	if !ok {
		return static
	}
	if parsed.Diagnosis == "" {
		parsed.Diagnosis = "Undiagnosed"
	}
	if parsed.Treatment == "" {
		parsed.Treatment = "Standard care provided"
	}
	if parsed.Notes == "" {
		parsed.Notes = doctorNotes
	}
	return parsed
}

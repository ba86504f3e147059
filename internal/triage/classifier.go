package triage

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"RuralCare/internal/models"
	"RuralCare/pkg/llm"
	"RuralCare/pkg/logger"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	assessmentTemperature = 0.3
	assessmentMaxTokens   = 1000
	summaryMaxTokens      = 500
	rawAnalysisLimit      = 500
)

// jsonObject 取最外层的 {...}，兼容 markdown 代码块包裹
var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// Classifier 风险评估器。client 为 nil 时直接走规则评估
type Classifier struct {
	client llm.Client
}

func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Classify 调用文本生成服务评估风险，调用失败时退回规则评估，因此总能返回结果
func (c *Classifier) Classify(ctx context.Context, in Input) Result {
	if c == nil || c.client == nil {
		return Fallback(in)
	}
	text, err := c.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(assessmentSystemPrompt),
			llm.User(buildAssessmentPrompt(in)),
		},
		Temperature: assessmentTemperature,
		MaxTokens:   assessmentMaxTokens,
	})
	if err != nil {
		logger.Warn("risk assessment call failed, using rule-based fallback", zap.Error(err))
		return Fallback(in)
	}
	return parseAssessment(text, in)
}

type rawAssessment struct {
	RiskLevel          string      `json:"riskLevel"`
	AIAnalysis         string      `json:"aiAnalysis"`
	PrimaryCareAdvice  string      `json:"primaryCareAdvice"`
	RequiresSpecialist interface{} `json:"requiresSpecialist"`
	SpecialistType     string      `json:"specialistType"`
	EstimatedSeverity  interface{} `json:"estimatedSeverity"`
}

// parseAssessment 解析模型输出。没有可解析的 JSON 或缺少等级时退回规则评估；
// 关键词提取的等级只能高于规则等级
func parseAssessment(text string, in Input) Result {
	raw, ok := decodeJSON[rawAssessment](text)
	if !ok || strings.TrimSpace(raw.RiskLevel) == "" {
		logger.Warn("risk assessment response has no risk level, using rule-based fallback",
			zap.Int("length", len(text)), zap.Bool("json", ok))
		return raiseTo(Fallback(in), ExtractRiskLevel(text))
	}

	level := models.RiskLevel(strings.ToUpper(strings.TrimSpace(raw.RiskLevel)))
	if !level.Valid() {
		level = maxLevel(ExtractRiskLevel(raw.RiskLevel), LevelForScore(Score(in)))
	}
	res := Result{
		RiskLevel:         level,
		AIAnalysis:        raw.AIAnalysis,
		PrimaryCareAdvice: raw.PrimaryCareAdvice,
		SpecialistType:    raw.SpecialistType,
		Source:            models.SourceLLM,
	}
	if raw.RequiresSpecialist != nil {
		res.RequiresSpecialist = cast.ToBool(raw.RequiresSpecialist)
	} else {
		res.RequiresSpecialist = level != models.RiskLow
	}
	if sev, err := cast.ToIntE(raw.EstimatedSeverity); err == nil && sev > 0 {
		res.EstimatedSeverity = clampSeverity(sev)
	} else if f, err := cast.ToFloat64E(raw.EstimatedSeverity); err == nil && f > 0 {
		res.EstimatedSeverity = clampSeverity(int(f + 0.5))
	} else {
		res.EstimatedSeverity = defaultSeverity(level)
	}
	if res.AIAnalysis == "" {
		res.AIAnalysis = truncate(text, rawAnalysisLimit)
	}
	if res.PrimaryCareAdvice == "" {
		res.PrimaryCareAdvice = adviceByLevel[level]
	}
	return res
}

func decodeJSON[T any](text string) (T, bool) {
	var out T
	match := jsonObject.FindString(text)
	if match == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return out, false
	}
	return out, true
}

// ExtractRiskLevel 按关键词从自由文本中判断等级
func ExtractRiskLevel(text string) models.RiskLevel {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "HIGH"), strings.Contains(upper, "CRITICAL"), strings.Contains(upper, "EMERGENCY"):
		return models.RiskHigh
	case strings.Contains(upper, "MEDIUM"), strings.Contains(upper, "MODERATE"), strings.Contains(upper, "URGENT"):
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

var levelRank = map[models.RiskLevel]int{models.RiskLow: 0, models.RiskMedium: 1, models.RiskHigh: 2}

func maxLevel(a, b models.RiskLevel) models.RiskLevel {
	if levelRank[a] > levelRank[b] {
		return a
	}
	return b
}

// raiseTo 把规则评估结果提升到 level，不会降级
func raiseTo(res Result, level models.RiskLevel) Result {
	if levelRank[level] <= levelRank[res.RiskLevel] {
		return res
	}
	res.RiskLevel = level
	res.PrimaryCareAdvice = adviceByLevel[level]
	res.RequiresSpecialist = true
	if sev := defaultSeverity(level); sev > res.EstimatedSeverity {
		res.EstimatedSeverity = sev
	}
	return res
}

func defaultSeverity(level models.RiskLevel) int {
	switch level {
	case models.RiskHigh:
		return 8
	case models.RiskMedium:
		return 5
	default:
		return 2
	}
}

// truncate 按字符截断，不切断多字节字符
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

package triage

import (
	"strings"

	"RuralCare/internal/models"
)

const (
	highThreshold   = 7
	mediumThreshold = 4
	maxSeverity     = 10
)

var criticalSymptoms = []string{"chest pain", "difficulty breathing", "unconscious", "severe bleeding", "stroke"}

var adviceByLevel = map[models.RiskLevel]string{
	models.RiskHigh:   "Keep patient stable, monitor vital signs, prepare for emergency transport.",
	models.RiskMedium: "Monitor patient closely, provide supportive care, arrange medical consultation.",
	models.RiskLow:    "Provide basic care, rest, and schedule routine doctor visit.",
}

const fallbackAnalysis = "Automated assessment based on vital signs and symptoms."

// Score 规则打分，只累加不扣分
func Score(in Input) int {
	score := 0
	v := in.Vitals
	if v.Temperature != nil && *v.Temperature > 103 {
		score += 3
	}
	if v.Pulse != nil && (*v.Pulse > 120 || *v.Pulse < 50) {
		score += 3
	}
	if v.OxygenSaturation != nil && *v.OxygenSaturation < 90 {
		score += 4
	}

	switch in.Severity {
	case models.SeveritySevere:
		score += 3
	case models.SeverityModerate:
		score += 2
	}

	if in.Patient.Age > 65 || in.Patient.Age < 5 {
		score += 1
	}

	if hasCriticalSymptom(in.Symptoms) {
		score += 5
	}
	return score
}

func hasCriticalSymptom(symptoms []string) bool {
	for _, s := range symptoms {
		lower := strings.ToLower(s)
		for _, c := range criticalSymptoms {
			if strings.Contains(lower, c) {
				return true
			}
		}
	}
	return false
}

// LevelForScore 分数到风险等级
func LevelForScore(score int) models.RiskLevel {
	switch {
	case score >= highThreshold:
		return models.RiskHigh
	case score >= mediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clampSeverity(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxSeverity {
		return maxSeverity
	}
	return n
}

// Fallback 规则评估，对任何输入都会给出结果
func Fallback(in Input) Result {
	score := Score(in)
	level := LevelForScore(score)
	return Result{
		RiskLevel:          level,
		AIAnalysis:         fallbackAnalysis,
		PrimaryCareAdvice:  adviceByLevel[level],
		RequiresSpecialist: level != models.RiskLow,
		EstimatedSeverity:  clampSeverity(score),
		Source:             models.SourceFallback,
	}
}

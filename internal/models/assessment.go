package models

import (
	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// 评估来源
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// RiskAssessment 每条警报至多一条风险评估
type RiskAssessment struct {
	Base
	AlertID            string             `json:"alertId" gorm:"uniqueIndex;size:64"`
	RiskLevel          RiskLevel          `json:"riskLevel" gorm:"size:8"`
	AIAnalysis         string             `json:"aiAnalysis"`
	PrimaryCareAdvice  string             `json:"primaryCareAdvice"`
	RequiresSpecialist bool               `json:"requiresSpecialist"`
	SpecialistType     string             `json:"specialistType"`
	EstimatedSeverity  int                `json:"estimatedSeverity"`
	Source             string             `json:"source" gorm:"size:16"`
	Alert              *MedicalAlert      `json:"alert,omitempty" gorm:"foreignKey:AlertID"`
	EmergencyResponse  *EmergencyResponse `json:"emergencyResponse,omitempty" gorm:"foreignKey:AssessmentID"`
}

// CreateAssessment 保存评估；同一警报重复保存时返回冲突
func CreateAssessment(db *gorm.DB, a *RiskAssessment) error {
	var count int64
	if err := db.Model(&RiskAssessment{}).Where("alert_id = ?", a.AlertID).Count(&count).Error; err != nil {
		return apperr.Internal(err, "save assessment")
	}
	if count > 0 {
		return apperr.Conflict("Alert already assessed")
	}
	if err := db.Create(a).Error; err != nil {
		return apperr.Internal(err, "save assessment")
	}
	return nil
}

func GetAssessmentByAlertID(db *gorm.DB, alertID string) (*RiskAssessment, error) {
	var a RiskAssessment
	if err := db.Where("alert_id = ?", alertID).First(&a).Error; err != nil {
		return nil, notFound(err, "Alert assessment not found")
	}
	return &a, nil
}

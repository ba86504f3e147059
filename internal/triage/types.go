package triage

import (
	"RuralCare/internal/models"
)

// HistoryEntry 既往就诊记录摘要
type HistoryEntry struct {
	Diagnosis string
	Treatment string
	Date      string
}

// PatientContext 评估时参考的患者信息
type PatientContext struct {
	Age             int
	Gender          string
	ChronicDiseases []string
	Allergies       []string
	History         []HistoryEntry
}

// Input 一次风险评估的输入
type Input struct {
	Symptoms    []string
	Severity    models.Severity
	Vitals      models.VitalSigns
	Description string
	Patient     PatientContext
}

// Result 风险评估结果
type Result struct {
	RiskLevel          models.RiskLevel `json:"riskLevel"`
	AIAnalysis         string           `json:"aiAnalysis"`
	PrimaryCareAdvice  string           `json:"primaryCareAdvice"`
	RequiresSpecialist bool             `json:"requiresSpecialist"`
	SpecialistType     string           `json:"specialistType,omitempty"`
	EstimatedSeverity  int              `json:"estimatedSeverity"`
	Source             string           `json:"source"`
}

// Assessment 转成待入库的评估记录
func (r Result) Assessment(alertID string) *models.RiskAssessment {
	return &models.RiskAssessment{
		AlertID:            alertID,
		RiskLevel:          r.RiskLevel,
		AIAnalysis:         r.AIAnalysis,
		PrimaryCareAdvice:  r.PrimaryCareAdvice,
		RequiresSpecialist: r.RequiresSpecialist,
		SpecialistType:     r.SpecialistType,
		EstimatedSeverity:  r.EstimatedSeverity,
		Source:             r.Source,
	}
}

// InputFromAlert 由警报和患者档案组装评估输入，history 取最近几条
func InputFromAlert(alert *models.MedicalAlert, patient *models.Patient, history []models.MedicalRecord) Input {
	in := Input{
		Symptoms:    alert.Symptoms,
		Severity:    alert.Severity,
		Vitals:      alert.VitalSigns.Data(),
		Description: alert.Description,
	}
	if patient != nil {
		in.Patient = PatientContext{
			Age:             patient.Age,
			Gender:          patient.Gender,
			ChronicDiseases: patient.ChronicDiseases,
			Allergies:       patient.Allergies,
		}
	}
	for _, r := range history {
		in.Patient.History = append(in.Patient.History, HistoryEntry{
			Diagnosis: r.Diagnosis,
			Treatment: r.Treatment,
			Date:      r.VisitDate.Format("2006-01-02"),
		})
	}
	return in
}

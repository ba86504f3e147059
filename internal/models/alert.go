package models

import (
	"strings"

	apperr "RuralCare/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Severity 工作者上报的严重程度
type Severity string

const (
	SeverityMild     Severity = "MILD"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// AlertStatus 警报状态，只能前进：PENDING < ASSESSED < ESCALATED < RESOLVED
type AlertStatus string

const (
	AlertPending   AlertStatus = "PENDING"
	AlertAssessed  AlertStatus = "ASSESSED"
	AlertEscalated AlertStatus = "ESCALATED"
	AlertResolved  AlertStatus = "RESOLVED"
)

var alertRank = map[AlertStatus]int{
	AlertPending:   0,
	AlertAssessed:  1,
	AlertEscalated: 2,
	AlertResolved:  3,
}

func (s AlertStatus) Valid() bool {
	_, ok := alertRank[s]
	return ok
}

// CanAdvance 是否允许从 s 迁移到 to。ESCALATED 到 ESCALATED 用于改派医生
func (s AlertStatus) CanAdvance(to AlertStatus) bool {
	from, ok1 := alertRank[s]
	next, ok2 := alertRank[to]
	if !ok1 || !ok2 {
		return false
	}
	return next > from || (s == AlertEscalated && to == AlertEscalated)
}

// alertSourcesFor 能迁移到 to 的全部状态，用于条件更新
func alertSourcesFor(to AlertStatus) []AlertStatus {
	var out []AlertStatus
	for s := range alertRank {
		if s.CanAdvance(to) {
			out = append(out, s)
		}
	}
	return out
}

// VitalSigns 生命体征，字段均可缺省
type VitalSigns struct {
	Temperature      *float64 `json:"temperature,omitempty"` // °F
	BloodPressure    string   `json:"bloodPressure,omitempty"`
	Pulse            *float64 `json:"pulse,omitempty"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"`
}

// MedicalAlert 医疗警报
type MedicalAlert struct {
	Base
	PatientID        string                         `json:"patientId" gorm:"index;size:64"`
	WorkerID         string                         `json:"workerId" gorm:"index;size:64"`
	DoctorID         *string                        `json:"doctorId" gorm:"index;size:64"`
	Symptoms         datatypes.JSONSlice[string]    `json:"symptoms"`
	Severity         Severity                       `json:"severity" gorm:"size:16"`
	VitalSigns       datatypes.JSONType[VitalSigns] `json:"vitalSigns"`
	Description      string                         `json:"description"`
	PrimaryTreatment string                         `json:"primaryTreatment"`
	Status           AlertStatus                    `json:"status" gorm:"size:16;index;default:PENDING"`
	Patient          *Patient                       `json:"patient,omitempty"`
	Worker           *Worker                        `json:"worker,omitempty"`
	Doctor           *Doctor                        `json:"doctor,omitempty"`
	RiskAssessment   *RiskAssessment                `json:"riskAssessment,omitempty" gorm:"foreignKey:AlertID"`
	CaseNotes        []CaseNote                     `json:"caseNotes,omitempty" gorm:"foreignKey:AlertID"`
}

// NormalizeAlert 去掉空白症状并校验症状与严重程度，不访问数据库
func NormalizeAlert(a *MedicalAlert) error {
	symptoms := make([]string, 0, len(a.Symptoms))
	for _, s := range a.Symptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}
	if len(symptoms) == 0 {
		return apperr.Validation("At least one symptom is required")
	}
	if !a.Severity.Valid() {
		return apperr.Validation("Invalid severity")
	}
	a.Symptoms = symptoms
	return nil
}

// CreateAlert 校验后以 PENDING 状态入库
func CreateAlert(db *gorm.DB, a *MedicalAlert) error {
	if err := NormalizeAlert(a); err != nil {
		return err
	}
	var count int64
	if err := db.Model(&Patient{}).Where("id = ?", a.PatientID).Count(&count).Error; err != nil {
		return apperr.Internal(err, "Failed to create alert")
	}
	if count == 0 {
		return apperr.NotFound("Patient not found")
	}
	a.Status = AlertPending
	a.DoctorID = nil
	if err := db.Create(a).Error; err != nil {
		return apperr.Internal(err, "Failed to create alert")
	}
	return nil
}

func GetAlertByID(db *gorm.DB, id string) (*MedicalAlert, error) {
	var a MedicalAlert
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, "Alert not found")
	}
	return &a, nil
}

// GetAlertDetail 警报详情：患者、工作者、医生、病例备注（时间升序）、评估与响应
func GetAlertDetail(db *gorm.DB, id string) (*MedicalAlert, error) {
	var a MedicalAlert
	err := db.
		Preload("Patient").
		Preload("Worker").
		Preload("Doctor").
		Preload("CaseNotes", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
		Preload("CaseNotes.Worker").
		Preload("CaseNotes.Doctor").
		Preload("RiskAssessment.EmergencyResponse.Doctor").
		Preload("RiskAssessment.EmergencyResponse.Ambulance").
		Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, notFound(err, "Alert not found")
	}
	return &a, nil
}

// AdvanceAlert 条件更新状态，当前状态不允许迁移到 to 时返回冲突。
// extra 为同时更新的其他列
func AdvanceAlert(db *gorm.DB, id string, to AlertStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.Model(&MedicalAlert{}).
		Where("id = ? AND status IN ?", id, alertSourcesFor(to)).
		Updates(updates)
	if res.Error != nil {
		return apperr.Internal(res.Error, "update alert")
	}
	if res.RowsAffected == 1 {
		return nil
	}
	current, err := GetAlertByID(db, id)
	if err != nil {
		return err
	}
	return apperr.WithCodef(apperr.CodeConflict, "Alert cannot move from %s to %s", current.Status, to)
}

// AssignDoctor 绑定医生并升级为 ESCALATED
func AssignDoctor(db *gorm.DB, alertID, doctorID string) error {
	return AdvanceAlert(db, alertID, AlertEscalated, map[string]interface{}{"doctor_id": doctorID})
}

// SubmitPrimaryTreatment 记录初步处理；PENDING 时推进到 ASSESSED，其余状态不变
func SubmitPrimaryTreatment(db *gorm.DB, alertID, treatment string) error {
	if strings.TrimSpace(treatment) == "" {
		return apperr.Validation("Treatment is required")
	}
	res := db.Model(&MedicalAlert{}).Where("id = ?", alertID).Update("primary_treatment", treatment)
	if res.Error != nil {
		return apperr.Internal(res.Error, "Failed to submit treatment")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Alert not found")
	}
	if err := db.Model(&MedicalAlert{}).
		Where("id = ? AND status = ?", alertID, AlertPending).
		Update("status", AlertAssessed).Error; err != nil {
		return apperr.Internal(err, "Failed to submit treatment")
	}
	return nil
}

// GetDoctorAlerts 医生名下 ESCALATED 警报，重症优先，同级按时间倒序
func GetDoctorAlerts(db *gorm.DB, doctorID string) ([]MedicalAlert, error) {
	var alerts []MedicalAlert
	err := db.
		Preload("Patient").
		Preload("Worker").
		Preload("RiskAssessment.EmergencyResponse.Ambulance").
		Where("doctor_id = ? AND status = ?", doctorID, AlertEscalated).
		Order("CASE severity WHEN 'SEVERE' THEN 0 WHEN 'MODERATE' THEN 1 ELSE 2 END").
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, apperr.Internal(err, "Error fetching doctor alerts")
	}
	return alerts, nil
}

package models

import (
	"fmt"
	"strings"
	"time"

	apperr "RuralCare/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Patient 患者档案，由社区工作者建档
type Patient struct {
	Base
	Location
	PatientCode     string                      `json:"patientCode" gorm:"uniqueIndex;size:16"`
	Name            string                      `json:"name" gorm:"index"`
	Age             int                         `json:"age"`
	Gender          string                      `json:"gender"`
	Phone           string                      `json:"phone"`
	Address         string                      `json:"address"`
	Village         string                      `json:"village"`
	BloodGroup      string                      `json:"bloodGroup"`
	Allergies       datatypes.JSONSlice[string] `json:"allergies"`
	ChronicDiseases datatypes.JSONSlice[string] `json:"chronicDiseases"`
	WorkerID        string                      `json:"workerId" gorm:"index;size:64"`
	Worker          *Worker                     `json:"worker,omitempty"`
	MedicalRecords  []MedicalRecord             `json:"medicalRecords,omitempty"`
	MedicalAlerts   []MedicalAlert              `json:"medicalAlerts,omitempty"`
}

// MedicalRecord 就诊记录，警报结案时自动生成，也可手动添加
type MedicalRecord struct {
	Base
	PatientID   string                      `json:"patientId" gorm:"index;size:64"`
	VisitDate   time.Time                   `json:"visitDate" gorm:"index"`
	Diagnosis   string                      `json:"diagnosis"`
	Symptoms    datatypes.JSONSlice[string] `json:"symptoms"`
	Treatment   string                      `json:"treatment"`
	Medications datatypes.JSONSlice[string] `json:"medications"`
	Notes       string                      `json:"notes"`
}

const patientCodeAttempts = 5

func formatPatientCode(n int64) string {
	return fmt.Sprintf("P-%04d", n)
}

// CreatePatient 建档，编号为 P-NNNN（总数 + 1），编号冲突时顺延
func CreatePatient(db *gorm.DB, p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("Patient name is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return apperr.Validation("Invalid age")
	}
	if p.WorkerID == "" {
		return apperr.Validation("Worker is required")
	}
	var count int64
	if err := db.Model(&Patient{}).Count(&count).Error; err != nil {
		return apperr.Internal(err, "Failed to create patient")
	}
	var lastErr error
	for i := int64(1); i <= patientCodeAttempts; i++ {
		p.PatientCode = formatPatientCode(count + i)
		p.ID = ""
		if lastErr = db.Create(p).Error; lastErr == nil {
			return nil
		}
		var exists int64
		db.Model(&Patient{}).Where("patient_code = ?", p.PatientCode).Count(&exists)
		if exists == 0 {
			break
		}
	}
	return apperr.Internal(lastErr, "Failed to create patient")
}

// GetPatientByID 患者详情：建档人、全部就诊记录（新到旧）、全部警报及评估/响应
func GetPatientByID(db *gorm.DB, id string) (*Patient, error) {
	var p Patient
	err := db.
		Preload("Worker").
		Preload("MedicalRecords", func(tx *gorm.DB) *gorm.DB { return tx.Order("visit_date desc") }).
		Preload("MedicalAlerts", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at desc") }).
		Preload("MedicalAlerts.RiskAssessment.EmergencyResponse.Doctor").
		Preload("MedicalAlerts.RiskAssessment.EmergencyResponse.Ambulance").
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, notFound(err, "Patient not found")
	}
	return &p, nil
}

// SearchPatients 在工作者名下按编号、姓名、电话模糊查找，最多 10 条
// 每位患者附带最近 3 条就诊记录和 1 条待处理警报
func SearchPatients(db *gorm.DB, workerID, query string) ([]Patient, error) {
	q := db.Where("worker_id = ?", workerID)
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(patient_code) LIKE ? OR LOWER(name) LIKE ? OR phone LIKE ?", like, like, "%"+query+"%")
	}
	var patients []Patient
	if err := q.Order("created_at desc").Limit(10).Find(&patients).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to search patients")
	}
	// Preload 的 Limit 作用于整体而非每位患者，这里逐个取
	for i := range patients {
		if err := db.Where("patient_id = ?", patients[i].ID).
			Order("visit_date desc").Limit(3).Find(&patients[i].MedicalRecords).Error; err != nil {
			return nil, apperr.Internal(err, "Failed to search patients")
		}
		if err := db.Where("patient_id = ? AND status = ?", patients[i].ID, AlertPending).
			Limit(1).Find(&patients[i].MedicalAlerts).Error; err != nil {
			return nil, apperr.Internal(err, "Failed to search patients")
		}
	}
	return patients, nil
}

// RecentRecords 最近 n 条就诊记录，用于风险评估上下文
func RecentRecords(db *gorm.DB, patientID string, n int) ([]MedicalRecord, error) {
	var records []MedicalRecord
	if err := db.Where("patient_id = ?", patientID).Order("visit_date desc").Limit(n).Find(&records).Error; err != nil {
		return nil, apperr.Internal(err, "load medical history")
	}
	return records, nil
}

// AddMedicalRecord 手动添加就诊记录
func AddMedicalRecord(db *gorm.DB, r *MedicalRecord) error {
	if strings.TrimSpace(r.Diagnosis) == "" {
		return apperr.Validation("Diagnosis is required")
	}
	var count int64
	if err := db.Model(&Patient{}).Where("id = ?", r.PatientID).Count(&count).Error; err != nil {
		return apperr.Internal(err, "Failed to add medical record")
	}
	if count == 0 {
		return apperr.NotFound("Patient not found")
	}
	if r.VisitDate.IsZero() {
		r.VisitDate = time.Now()
	}
	if err := db.Create(r).Error; err != nil {
		return apperr.Internal(err, "Failed to add medical record")
	}
	return nil
}

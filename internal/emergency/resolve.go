package emergency

import (
	"context"
	"strings"

	"RuralCare/internal/models"
	apperr "RuralCare/pkg/errors"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResolveAlert 医生结案：警报置为 RESOLVED，应急响应置为 COMPLETED 并释放车辆，
// 再生成摘要写入就诊记录。没有评估的警报只改状态
func (s *Service) ResolveAlert(ctx context.Context, alertID, doctorID, notes string) (*models.MedicalRecord, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, apperr.Validation("Resolution notes are required")
	}
	db := s.db.WithContext(ctx)
	alert, err := models.GetAlertDetail(db, alertID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var extra map[string]interface{}
		if alert.DoctorID == nil {
			extra = map[string]interface{}{"doctor_id": doctorID}
		}
		if err := models.AdvanceAlert(tx, alertID, models.AlertResolved, extra); err != nil {
			return err
		}
		if alert.RiskAssessment == nil {
			return nil
		}

		existing := alert.RiskAssessment.EmergencyResponse
		if _, err := models.UpsertResponse(tx, &models.EmergencyResponse{
			AssessmentID: alert.RiskAssessment.ID,
			ResponseType: models.ResponseDoctorConsult,
			Status:       models.TaskCompleted,
			Notes:        notes,
		}, "status", "notes"); err != nil {
			return err
		}
		if existing != nil && existing.AmbulanceID != nil && existing.Status != models.TaskCompleted {
			return models.ReleaseAmbulance(tx, *existing.AmbulanceID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("alert resolved", zap.String("alertId", alertID), zap.String("doctorId", doctorID))

	if alert.RiskAssessment == nil {
		return nil, nil
	}

	summary := s.classifier.Summarize(ctx, alert.Symptoms, alert.RiskAssessment.AIAnalysis, notes)
	record := &models.MedicalRecord{
		PatientID: alert.PatientID,
		Diagnosis: summary.Diagnosis,
		Treatment: summary.Treatment,
		Notes:     summary.Notes,
		Symptoms:  datatypes.JSONSlice[string](alert.Symptoms),
	}
	if err := models.AddMedicalRecord(db, record); err != nil {
		return nil, apperr.Wrap(err, "alert resolved but medical record was not saved")
	}
	return record, nil
}

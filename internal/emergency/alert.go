package emergency

import (
	"context"
	"time"

	"RuralCare/internal/models"
	"RuralCare/internal/triage"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const historyDepth = 3

// AlertInput 工作者上报的警报
type AlertInput struct {
	PatientID   string            `json:"patientId" binding:"required"`
	Symptoms    []string          `json:"symptoms"`
	Severity    models.Severity   `json:"severity" binding:"required"`
	VitalSigns  models.VitalSigns `json:"vitalSigns"`
	Description string            `json:"description"`
}

// AlertOutcome 创建警报后的完整结果
type AlertOutcome struct {
	Alert          *models.MedicalAlert   `json:"alert"`
	Assessment     *models.RiskAssessment `json:"assessment"`
	Response       *Outcome               `json:"response"`
	AssignedDoctor *models.Doctor         `json:"assignedDoctor,omitempty"`
}

// CreateAlert 创建警报 → 风险评估 → 响应编排 → 中重度自动分派医生。
// 评估在写库之前完成；警报、评估与响应在同一事务中写入，任一步失败都不留下部分记录。
// 自动分派在提交之后进行，失败只记日志
func (s *Service) CreateAlert(ctx context.Context, workerID string, in AlertInput) (*AlertOutcome, error) {
	db := s.db.WithContext(ctx)
	alert := &models.MedicalAlert{
		PatientID:   in.PatientID,
		WorkerID:    workerID,
		Symptoms:    datatypes.JSONSlice[string](in.Symptoms),
		Severity:    in.Severity,
		VitalSigns:  datatypes.NewJSONType(in.VitalSigns),
		Description: in.Description,
	}
	if err := models.NormalizeAlert(alert); err != nil {
		return nil, err
	}
	result, err := s.assess(ctx, alert)
	if err != nil {
		return nil, err
	}

	out := &AlertOutcome{}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := models.CreateAlert(tx, alert); err != nil {
			return err
		}
		out.Assessment = result.Assessment(alert.ID)
		if err := models.CreateAssessment(tx, out.Assessment); err != nil {
			return err
		}
		response, err := s.orchestrate(tx, out.Assessment.RiskLevel, out.Assessment.ID, out.Assessment.SpecialistType)
		out.Response = response
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAlert(string(alert.Severity))
	logger.Info("alert assessed",
		zap.String("alertId", alert.ID),
		zap.String("riskLevel", string(result.RiskLevel)),
		zap.String("source", result.Source),
		zap.Int("estimatedSeverity", result.EstimatedSeverity))
	s.recordOutcome(out.Assessment.RiskLevel, out.Assessment.ID, out.Response)

	if alert.Severity == models.SeveritySevere || alert.Severity == models.SeverityModerate {
		doctor, err := s.AutoAssign(ctx, alert.ID, workerID)
		if err != nil {
			logger.Warn("auto-assign doctor failed", zap.String("alertId", alert.ID), zap.Error(err))
		}
		out.AssignedDoctor = doctor
	}

	if out.Alert, err = models.GetAlertDetail(db, alert.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// assess 组装患者上下文后评估，不写库
func (s *Service) assess(ctx context.Context, alert *models.MedicalAlert) (triage.Result, error) {
	db := s.db.WithContext(ctx)
	patient, err := models.GetPatientByID(db, alert.PatientID)
	if err != nil {
		return triage.Result{}, err
	}
	history, err := models.RecentRecords(db, alert.PatientID, historyDepth)
	if err != nil {
		return triage.Result{}, err
	}

	start := time.Now()
	result := s.classifier.Classify(ctx, triage.InputFromAlert(alert, patient, history))
	s.metrics.RecordAssessment(string(result.RiskLevel), result.Source, time.Since(start))
	return result, nil
}

// AutoAssign 按工作者片区挑选经验最高的可用医生并升级警报。
// 没有可用医生时返回 nil, nil
func (s *Service) AutoAssign(ctx context.Context, alertID, workerID string) (*models.Doctor, error) {
	db := s.db.WithContext(ctx)
	worker, err := models.GetWorkerByID(db, workerID)
	if err != nil {
		return nil, err
	}
	doctor, err := models.FindBestAreaDoctor(db, worker.AssignedArea)
	if err != nil || doctor == nil {
		return nil, err
	}
	if err := models.AssignDoctor(db, alertID, doctor.ID); err != nil {
		return nil, err
	}
	logger.Info("doctor auto-assigned",
		zap.String("alertId", alertID),
		zap.String("doctorId", doctor.ID),
		zap.String("area", doctor.Area))
	return doctor, nil
}

// Escalate 工作者手动指定医生
func (s *Service) Escalate(ctx context.Context, alertID, doctorID string) (*models.MedicalAlert, error) {
	db := s.db.WithContext(ctx)
	if _, err := models.GetDoctorByID(db, doctorID); err != nil {
		return nil, err
	}
	if err := models.AssignDoctor(db, alertID, doctorID); err != nil {
		return nil, err
	}
	return models.GetAlertByID(db, alertID)
}

// RecommendDoctors 工作者片区的推荐医生
func (s *Service) RecommendDoctors(ctx context.Context, workerID string) (*models.RecommendedDoctors, error) {
	db := s.db.WithContext(ctx)
	worker, err := models.GetWorkerByID(db, workerID)
	if err != nil {
		return nil, err
	}
	return models.GetRecommendedDoctors(db, worker.AssignedArea)
}

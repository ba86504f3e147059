package emergency

import (
	"context"
	"fmt"

	"RuralCare/internal/models"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DoctorInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

type AmbulanceInfo struct {
	ID            string `json:"id"`
	VehicleNumber string `json:"vehicleNumber"`
	DriverName    string `json:"driverName"`
	DriverPhone   string `json:"driverPhone"`
}

// Outcome 编排结果
type Outcome struct {
	ResponseID          string              `json:"responseId"`
	ResponseType        models.ResponseType `json:"responseType"`
	DoctorAssigned      bool                `json:"doctorAssigned"`
	Doctor              *DoctorInfo         `json:"doctorInfo,omitempty"`
	AmbulanceDispatched bool                `json:"ambulanceDispatched"`
	Ambulance           *AmbulanceInfo      `json:"ambulanceInfo,omitempty"`
	Message             string              `json:"message"`
}

// Orchestrate 按风险等级决定响应类型并绑定医生/救护车，结果以评估为键写入应急响应。
// 找不到医生或车辆不算错误，只体现在 message 中
func (s *Service) Orchestrate(ctx context.Context, level models.RiskLevel, assessmentID, specialist string) (*Outcome, error) {
	var out *Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.orchestrate(tx, level, assessmentID, specialist)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordOutcome(level, assessmentID, out)
	return out, nil
}

// orchestrate 在调用方的事务内选医生、认领救护车并写入响应
func (s *Service) orchestrate(tx *gorm.DB, level models.RiskLevel, assessmentID, specialist string) (*Outcome, error) {
	out := &Outcome{}
	var doctor *models.Doctor
	var ambulance *models.Ambulance
	var err error

	switch level {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
		if doctor, err = models.FindAvailableDoctor(tx, specialist); err != nil {
			return nil, err
		}
	}
	if level == models.RiskHigh {
		candidates, err := models.ListAvailableAmbulances(tx)
		if err != nil {
			return nil, err
		}
		if ambulance, err = claimFirst(tx, candidates); err != nil {
			return nil, err
		}
	}

	out.ResponseType = responseTypeFor(level)
	if doctor != nil {
		out.DoctorAssigned = true
		out.Doctor = &DoctorInfo{ID: doctor.ID, Name: doctor.Name, Specialization: doctor.Specialization, Phone: doctor.Phone}
	}
	if ambulance != nil {
		out.AmbulanceDispatched = true
		out.Ambulance = &AmbulanceInfo{ID: ambulance.ID, VehicleNumber: ambulance.VehicleNumber,
			DriverName: ambulance.DriverName, DriverPhone: ambulance.DriverPhone}
	}
	out.Message = orchestrationMessage(level, out)

	r := &models.EmergencyResponse{
		AssessmentID:        assessmentID,
		ResponseType:        out.ResponseType,
		DoctorAssigned:      out.DoctorAssigned,
		AmbulanceDispatched: out.AmbulanceDispatched,
		Status:              models.TaskInitiated,
		Notes:               out.Message,
	}
	if doctor != nil {
		r.DoctorID = &doctor.ID
	}
	if ambulance != nil {
		r.AmbulanceID = &ambulance.ID
	}
	saved, err := models.UpsertResponse(tx, r,
		"response_type", "doctor_assigned", "doctor_id", "ambulance_dispatched", "ambulance_id", "status", "notes")
	if err != nil {
		return nil, err
	}
	out.ResponseID = saved.ID
	return out, nil
}

func (s *Service) recordOutcome(level models.RiskLevel, assessmentID string, out *Outcome) {
	s.metrics.RecordResponse(string(out.ResponseType), out.DoctorAssigned, out.AmbulanceDispatched)
	if level == models.RiskHigh {
		outcome := "claimed"
		if !out.AmbulanceDispatched {
			outcome = "exhausted"
		}
		s.metrics.RecordDispatch("auto", outcome)
	}
	logger.Info("emergency response orchestrated",
		zap.String("assessmentId", assessmentID),
		zap.String("riskLevel", string(level)),
		zap.String("responseType", string(out.ResponseType)),
		zap.Bool("doctorAssigned", out.DoctorAssigned),
		zap.Bool("ambulanceDispatched", out.AmbulanceDispatched))
}

func responseTypeFor(level models.RiskLevel) models.ResponseType {
	switch level {
	case models.RiskLow:
		return models.ResponseDoctorConsult
	case models.RiskMedium:
		return models.ResponseEmergencyDoctor
	case models.RiskHigh:
		return models.ResponseAmbulanceDispatch
	default:
		return models.ResponseAdviceOnly
	}
}

func orchestrationMessage(level models.RiskLevel, out *Outcome) string {
	switch level {
	case models.RiskLow:
		if out.Doctor != nil {
			return fmt.Sprintf("Low risk case. Doctor %s has been assigned for consultation. Patient should schedule an appointment.", out.Doctor.Name)
		}
		return "Low risk case. Please arrange doctor consultation at earliest convenience."
	case models.RiskMedium:
		if out.Doctor != nil {
			return fmt.Sprintf("URGENT: Medium risk case. Dr. %s has been notified for emergency consultation. Contact immediately at %s.", out.Doctor.Name, out.Doctor.Phone)
		}
		return "URGENT: Medium risk case. Attempting to contact available medical personnel."
	case models.RiskHigh:
		amb := "Ambulance dispatch in progress."
		if out.Ambulance != nil {
			amb = fmt.Sprintf("Ambulance %s dispatched. Driver: %s (%s).", out.Ambulance.VehicleNumber, out.Ambulance.DriverName, out.Ambulance.DriverPhone)
		}
		doc := "Medical team being contacted."
		if out.Doctor != nil {
			doc = fmt.Sprintf("Dr. %s alerted.", out.Doctor.Name)
		}
		return fmt.Sprintf("🚨 CRITICAL: High risk emergency! %s %s Keep patient stable and monitor vital signs.", amb, doc)
	default:
		return "Assessment complete. Follow primary care advice provided."
	}
}

// claimFirst 依次尝试占用候选车辆，返回第一辆占用成功的；全部被抢占时返回 nil
func claimFirst(db *gorm.DB, candidates []models.Ambulance) (*models.Ambulance, error) {
	for i := range candidates {
		ok, err := models.ClaimAmbulance(db, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates[i].Available = false
			return &candidates[i], nil
		}
	}
	return nil, nil
}

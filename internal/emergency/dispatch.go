package emergency

import (
	"context"
	"fmt"
	"math"
	"sort"

	"RuralCare/internal/models"
	apperr "RuralCare/pkg/errors"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DispatchResult 返回给医生的车辆信息
type DispatchResult struct {
	ResponseID string `json:"responseId"`
	Name       string `json:"name"`
	Vehicle    string `json:"vehicle"`
	Phone      string `json:"phone"`
}

// DispatchNearest 医生为警报调度离患者最近的可用救护车。
// 候选按距离依次尝试占用，被其他请求抢先的车辆跳过
func (s *Service) DispatchNearest(ctx context.Context, alertID, doctorID string) (*DispatchResult, error) {
	db := s.db.WithContext(ctx)
	alert, err := models.GetAlertDetail(db, alertID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.NotFound("Alert assessment not found")
		}
		return nil, err
	}
	if alert.RiskAssessment == nil {
		return nil, apperr.NotFound("Alert assessment not found")
	}
	if alert.Status == models.AlertResolved {
		return nil, apperr.Conflict("Alert already resolved")
	}

	var result *DispatchResult
	err = db.Transaction(func(tx *gorm.DB) error {
		available, err := models.ListAvailableAmbulances(tx)
		if err != nil {
			return err
		}
		var origin models.Location
		if alert.Patient != nil {
			origin = alert.Patient.Location
		}
		ambulance, err := claimFirst(tx, rankByDistance(available, origin))
		if err != nil {
			return err
		}
		if ambulance == nil {
			return apperr.Exhausted("No ambulances available currently")
		}

		existing, err := models.FindResponseByAssessmentID(tx, alert.RiskAssessment.ID)
		if err != nil {
			return err
		}
		r := &models.EmergencyResponse{
			AssessmentID:        alert.RiskAssessment.ID,
			ResponseType:        models.ResponseAmbulanceDispatch,
			AmbulanceDispatched: true,
			AmbulanceID:         &ambulance.ID,
			Status:              models.TaskInitiated,
			Notes:               fmt.Sprintf("Ambulance %s dispatched by doctor.", ambulance.VehicleNumber),
		}
		columns := []string{"response_type", "ambulance_dispatched", "ambulance_id", "status", "notes"}
		if existing == nil || existing.DoctorID == nil {
			r.DoctorID = &doctorID
			r.DoctorAssigned = true
			columns = append(columns, "doctor_id", "doctor_assigned")
		}
		saved, err := models.UpsertResponse(tx, r, columns...)
		if err != nil {
			return err
		}

		// 改派时释放原先占用、尚未完成任务的车辆
		if existing != nil && existing.AmbulanceID != nil && *existing.AmbulanceID != ambulance.ID &&
			existing.Status != models.TaskCompleted {
			if err := models.ReleaseAmbulance(tx, *existing.AmbulanceID); err != nil {
				return err
			}
		}

		result = &DispatchResult{
			ResponseID: saved.ID,
			Name:       ambulance.DriverName,
			Vehicle:    ambulance.VehicleNumber,
			Phone:      ambulance.DriverPhone,
		}
		return nil
	})
	if err != nil {
		outcome := "error"
		if apperr.HasCode(err, apperr.CodeExhausted) {
			outcome = "exhausted"
		}
		s.metrics.RecordDispatch("nearest", outcome)
		return nil, err
	}

	s.metrics.RecordDispatch("nearest", "claimed")
	logger.Info("ambulance dispatched",
		zap.String("alertId", alertID),
		zap.String("doctorId", doctorID),
		zap.String("vehicle", result.Vehicle))
	return result, nil
}

// distance 平面欧氏距离
func distance(a, b models.Location) float64 {
	dLat := *a.Lat - *b.Lat
	dLng := *a.Lng - *b.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// rankByDistance 按到 origin 的距离稳定排序，没有坐标的车辆排在最后。
// origin 没有坐标时保持原顺序
func rankByDistance(ambulances []models.Ambulance, origin models.Location) []models.Ambulance {
	if !origin.Valid() {
		return ambulances
	}
	key := func(a models.Ambulance) float64 {
		if !a.Location.Valid() {
			return math.Inf(1)
		}
		return distance(a.Location, origin)
	}
	sort.SliceStable(ambulances, func(i, j int) bool {
		return key(ambulances[i]) < key(ambulances[j])
	})
	return ambulances
}

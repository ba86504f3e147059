package models

import (
	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// AvailabilityDrift 救护车可用标记与未完成任务不一致的记录
type AvailabilityDrift struct {
	AmbulanceID   string `json:"ambulanceId"`
	VehicleNumber string `json:"vehicleNumber"`
	Available     bool   `json:"available"`
	ActiveTasks   int64  `json:"activeTasks"`
}

// ReconcileAmbulances 以未完成任务为准检查可用标记：available 应当等价于没有未完成任务。
// fix 为 true 时直接修正
func ReconcileAmbulances(db *gorm.DB, fix bool) ([]AvailabilityDrift, error) {
	var ambulances []Ambulance
	if err := db.Order("created_at asc").Find(&ambulances).Error; err != nil {
		return nil, apperr.Internal(err, "list ambulances")
	}
	type row struct {
		AmbulanceID string
		N           int64
	}
	var rows []row
	err := db.Model(&EmergencyResponse{}).
		Select("ambulance_id, COUNT(*) AS n").
		Where("ambulance_id IS NOT NULL AND status IN ?", ActiveTaskStatuses).
		Group("ambulance_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "count active tasks")
	}
	active := make(map[string]int64, len(rows))
	for _, r := range rows {
		active[r.AmbulanceID] = r.N
	}

	drifts := []AvailabilityDrift{}
	for _, a := range ambulances {
		n := active[a.ID]
		if a.Available == (n == 0) {
			continue
		}
		drifts = append(drifts, AvailabilityDrift{
			AmbulanceID:   a.ID,
			VehicleNumber: a.VehicleNumber,
			Available:     a.Available,
			ActiveTasks:   n,
		})
		if fix {
			if _, err := repairAvailability(db, a.ID, n == 0); err != nil {
				return nil, err
			}
		}
	}
	return drifts, nil
}

// repairAvailability 把可用标记改为 available，条件在同一条 UPDATE 里按当前任务重新判断，
// 扫描之后发生的认领或释放不会被覆盖。返回是否修改
func repairAvailability(db *gorm.DB, id string, available bool) (bool, error) {
	activeTask := db.Session(&gorm.Session{NewDB: true}).
		Model(&EmergencyResponse{}).
		Select("1").
		Where("emergency_responses.ambulance_id = ambulances.id AND emergency_responses.status IN ?", ActiveTaskStatuses)

	q := db.Model(&Ambulance{}).Where("id = ? AND available = ?", id, !available)
	if available {
		q = q.Where("NOT EXISTS (?)", activeTask)
	} else {
		q = q.Where("EXISTS (?)", activeTask)
	}
	res := q.Update("available", available)
	if res.Error != nil {
		return false, apperr.Internal(res.Error, "fix ambulance availability")
	}
	return res.RowsAffected == 1, nil
}

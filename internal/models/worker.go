package models

import (
	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// Worker 社区卫生工作者
type Worker struct {
	Base
	Location
	Email         string         `json:"email" gorm:"uniqueIndex;size:128"`
	Password      string         `json:"-"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	Village       string         `json:"village"`
	AssignedArea  string         `json:"assignedArea" gorm:"index"`
	Patients      []Patient      `json:"patients,omitempty"`
	MedicalAlerts []MedicalAlert `json:"medicalAlerts,omitempty"`
}

// CreateWorker 注册工作者。邮箱在工作者、医生、救护车账号中都不能重复
func CreateWorker(db *gorm.DB, w *Worker) error {
	for _, model := range []interface{}{&Worker{}, &Doctor{}, &Ambulance{}} {
		var count int64
		if err := db.Model(model).Where("email = ?", w.Email).Count(&count).Error; err != nil {
			return apperr.Internal(err, "Failed to register worker")
		}
		if count > 0 {
			return apperr.Conflict("Email already registered")
		}
	}
	if err := db.Create(w).Error; err != nil {
		return apperr.Internal(err, "Failed to register worker")
	}
	return nil
}

func GetWorkerByID(db *gorm.DB, id string) (*Worker, error) {
	var w Worker
	if err := db.Where("id = ?", id).First(&w).Error; err != nil {
		return nil, notFound(err, "Worker not found")
	}
	return &w, nil
}

func GetWorkerByEmail(db *gorm.DB, email string) (*Worker, error) {
	var w Worker
	if err := db.Where("email = ?", email).First(&w).Error; err != nil {
		return nil, notFound(err, "Worker not found")
	}
	return &w, nil
}

// GetWorkerData 工作者资料，附带其患者与警报
func GetWorkerData(db *gorm.DB, id string) (*Worker, error) {
	var w Worker
	err := db.Preload("Patients").
		Preload("MedicalAlerts", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at desc") }).
		Where("id = ?", id).First(&w).Error
	if err != nil {
		return nil, notFound(err, "Worker not found")
	}
	return &w, nil
}

func UpdateWorkerLocation(db *gorm.DB, id string, lat, lng float64) error {
	return updateLocation(db, &Worker{}, id, lat, lng, "Worker not found")
}

// updateLocation 三类角色共用的坐标更新
func updateLocation(db *gorm.DB, model interface{}, id string, lat, lng float64, missing string) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.Validation("Invalid coordinates")
	}
	res := db.Model(model).Where("id = ?", id).Updates(map[string]interface{}{"lat": lat, "lng": lng})
	if res.Error != nil {
		return apperr.Internal(res.Error, "Database update failed")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(missing)
	}
	return nil
}

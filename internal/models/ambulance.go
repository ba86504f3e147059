package models

import (
	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// Ambulance 救护车（司机即登录账号）
type Ambulance struct {
	Base
	Location
	Email         string `json:"email" gorm:"uniqueIndex;size:128"`
	Password      string `json:"-"`
	VehicleNumber string `json:"vehicleNumber" gorm:"size:32"`
	DriverName    string `json:"driverName"`
	DriverPhone   string `json:"driverPhone"`
	Station       string `json:"station"`
	Available     bool   `json:"available" gorm:"index"`
}

func GetAmbulanceByID(db *gorm.DB, id string) (*Ambulance, error) {
	var a Ambulance
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, "Ambulance not found")
	}
	return &a, nil
}

func GetAmbulanceByEmail(db *gorm.DB, email string) (*Ambulance, error) {
	var a Ambulance
	if err := db.Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err, "Ambulance not found")
	}
	return &a, nil
}

// ListAvailableAmbulances 可用车辆，按创建时间升序
func ListAvailableAmbulances(db *gorm.DB) ([]Ambulance, error) {
	var list []Ambulance
	if err := db.Where("available = ?", true).Order("created_at asc").Find(&list).Error; err != nil {
		return nil, apperr.Internal(err, "list ambulances")
	}
	return list, nil
}

// ClaimAmbulance 条件更新占用车辆，只有当前仍可用时才会成功。
// 返回 false 表示已被其他请求抢先占用。
func ClaimAmbulance(db *gorm.DB, id string) (bool, error) {
	res := db.Model(&Ambulance{}).
		Where("id = ? AND available = ?", id, true).
		Update("available", false)
	if res.Error != nil {
		return false, apperr.Internal(res.Error, "claim ambulance")
	}
	return res.RowsAffected == 1, nil
}

// ReleaseAmbulance 释放车辆
func ReleaseAmbulance(db *gorm.DB, id string) error {
	if err := db.Model(&Ambulance{}).Where("id = ?", id).Update("available", true).Error; err != nil {
		return apperr.Internal(err, "release ambulance")
	}
	return nil
}

func UpdateAmbulanceLocation(db *gorm.DB, id string, lat, lng float64) error {
	return updateLocation(db, &Ambulance{}, id, lat, lng, "Ambulance not found")
}

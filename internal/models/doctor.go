package models

import (
	"errors"

	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// DoctorStatus 医生在岗状态
type DoctorStatus string

const (
	DoctorActive   DoctorStatus = "ACTIVE"
	DoctorBusy     DoctorStatus = "BUSY"
	DoctorInactive DoctorStatus = "INACTIVE"
)

// Doctor 医生
type Doctor struct {
	Base
	Location
	Email           string       `json:"email" gorm:"uniqueIndex;size:128"`
	Password        string       `json:"-"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Specialization  string       `json:"specialization" gorm:"index"`
	Hospital        string       `json:"hospital"`
	Area            string       `json:"area" gorm:"index"`
	ExperienceYears int          `json:"experienceYears"`
	Status          DoctorStatus `json:"status" gorm:"size:16;default:ACTIVE"`
	Available       bool         `json:"available" gorm:"index"`
}

func GetDoctorByID(db *gorm.DB, id string) (*Doctor, error) {
	var d Doctor
	if err := db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, "Doctor not found")
	}
	return &d, nil
}

func GetDoctorByEmail(db *gorm.DB, email string) (*Doctor, error) {
	var d Doctor
	if err := db.Where("email = ?", email).First(&d).Error; err != nil {
		return nil, notFound(err, "Doctor not found")
	}
	return &d, nil
}

// FindAvailableDoctor 响应编排用：优先匹配专科，按创建时间取最早的一位；
// 没有匹配的专科医生时退回任意可用医生。没有医生时返回 nil, nil。
func FindAvailableDoctor(db *gorm.DB, specialization string) (*Doctor, error) {
	if specialization != "" {
		var d Doctor
		err := db.Where("available = ? AND specialization = ?", true, specialization).
			Order("created_at asc").First(&d).Error
		if err == nil {
			return &d, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Internal(err, "find doctor")
		}
	}
	var d Doctor
	err := db.Where("available = ?", true).Order("created_at asc").First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "find doctor")
	}
	return &d, nil
}

// FindBestAreaDoctor 自动分派用：同片区、可用、ACTIVE，经验最高者优先；
// 同片区没有时退回全部可用 ACTIVE 医生。没有医生时返回 nil, nil。
func FindBestAreaDoctor(db *gorm.DB, area string) (*Doctor, error) {
	base := func() *gorm.DB {
		return db.Where("available = ? AND status = ?", true, DoctorActive).
			Order("experience_years desc").Order("created_at asc")
	}
	var d Doctor
	if area != "" {
		err := base().Where("area = ?", area).First(&d).Error
		if err == nil {
			return &d, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Internal(err, "find doctor")
		}
	}
	err := base().First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "find doctor")
	}
	return &d, nil
}

// RecommendedDoctors 推荐列表：本片区可用医生在前，其余片区最多补 5 位
type RecommendedDoctors struct {
	Doctors          []Doctor `json:"doctors"`
	RecommendedCount int      `json:"recommendedCount"`
}

func GetRecommendedDoctors(db *gorm.DB, area string) (*RecommendedDoctors, error) {
	var areaDoctors, others []Doctor
	if err := db.Where("available = ? AND area = ?", true, area).
		Order("experience_years desc").Find(&areaDoctors).Error; err != nil {
		return nil, apperr.Internal(err, "Error fetching doctors")
	}
	if err := db.Where("available = ? AND area <> ?", true, area).
		Order("experience_years desc").Limit(5).Find(&others).Error; err != nil {
		return nil, apperr.Internal(err, "Error fetching doctors")
	}
	return &RecommendedDoctors{
		Doctors:          append(areaDoctors, others...),
		RecommendedCount: len(areaDoctors),
	}, nil
}

func UpdateDoctorLocation(db *gorm.DB, id string, lat, lng float64) error {
	return updateLocation(db, &Doctor{}, id, lat, lng, "Doctor not found")
}

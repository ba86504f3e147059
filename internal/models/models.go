package models

import (
	"errors"
	"time"

	apperr "RuralCare/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base 所有实体共用的主键与时间戳，主键为字符串 UUID（种子数据可指定可读 ID）
type Base struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Location 可选的平面坐标
type Location struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (l Location) Valid() bool {
	return l.Lat != nil && l.Lng != nil
}

// Role 登录身份
type Role string

const (
	RoleWorker    Role = "WORKER"
	RoleDoctor    Role = "DOCTOR"
	RoleAmbulance Role = "AMBULANCE"
)

// Migrate 自动迁移全部表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Worker{},
		&Doctor{},
		&Ambulance{},
		&Patient{},
		&MedicalRecord{},
		&MedicalAlert{},
		&RiskAssessment{},
		&EmergencyResponse{},
		&CaseNote{},
	)
}

// notFound 把 gorm 的 ErrRecordNotFound 转成业务错误
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err, msg)
}

package models

import (
	"strings"

	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
)

// NoteType 病例备注类型
type NoteType string

const (
	NoteInstruction NoteType = "INSTRUCTION" // 医生指示
	NoteUpdate      NoteType = "UPDATE"      // 工作者进展
)

// CaseNote 警报下的协作备注，只追加不修改
type CaseNote struct {
	Base
	AlertID  string   `json:"alertId" gorm:"index;size:64"`
	Type     NoteType `json:"type" gorm:"size:16"`
	Content  string   `json:"content"`
	WorkerID *string  `json:"workerId" gorm:"size:64"`
	DoctorID *string  `json:"doctorId" gorm:"size:64"`
	Worker   *Worker  `json:"worker,omitempty"`
	Doctor   *Doctor  `json:"doctor,omitempty"`
}

// AddCaseNote 追加备注。INSTRUCTION 的作者记为医生，UPDATE 记为工作者
func AddCaseNote(db *gorm.DB, alertID string, noteType NoteType, content, authorID string) (*CaseNote, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("Note content is required")
	}
	note := &CaseNote{AlertID: alertID, Type: noteType, Content: content}
	switch noteType {
	case NoteInstruction:
		note.DoctorID = &authorID
	case NoteUpdate:
		note.WorkerID = &authorID
	default:
		return nil, apperr.Validation("Invalid note type")
	}
	if _, err := GetAlertByID(db, alertID); err != nil {
		return nil, err
	}
	if err := db.Create(note).Error; err != nil {
		return nil, apperr.Internal(err, "Failed to add note")
	}
	return note, nil
}

// GetCaseNotes 按创建时间升序，带作者
func GetCaseNotes(db *gorm.DB, alertID string) ([]CaseNote, error) {
	var notes []CaseNote
	err := db.Preload("Worker").Preload("Doctor").
		Where("alert_id = ?", alertID).
		Order("created_at asc").
		Find(&notes).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch notes")
	}
	return notes, nil
}

package models

import (
	apperr "RuralCare/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResponseType 应急响应类型
type ResponseType string

const (
	ResponseAdviceOnly        ResponseType = "ADVICE_ONLY"
	ResponseDoctorConsult     ResponseType = "DOCTOR_CONSULT"
	ResponseEmergencyDoctor   ResponseType = "EMERGENCY_DOCTOR"
	ResponseAmbulanceDispatch ResponseType = "AMBULANCE_DISPATCH"
)

// TaskStatus 出车任务状态，严格前进：INITIATED < IN_PROGRESS < PICKED_UP < COMPLETED
type TaskStatus string

const (
	TaskInitiated  TaskStatus = "INITIATED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskPickedUp   TaskStatus = "PICKED_UP"
	TaskCompleted  TaskStatus = "COMPLETED"
)

var taskRank = map[TaskStatus]int{
	TaskInitiated:  0,
	TaskInProgress: 1,
	TaskPickedUp:   2,
	TaskCompleted:  3,
}

func (s TaskStatus) Valid() bool {
	_, ok := taskRank[s]
	return ok
}

// CanAdvance 只允许向后迁移，可跳步
func (s TaskStatus) CanAdvance(to TaskStatus) bool {
	from, ok1 := taskRank[s]
	next, ok2 := taskRank[to]
	return ok1 && ok2 && next > from
}

// ActiveTaskStatuses 未完成的任务状态
var ActiveTaskStatuses = []TaskStatus{TaskInitiated, TaskInProgress, TaskPickedUp}

// EmergencyResponse 每条评估至多一条应急响应，也是救护车的出车任务
type EmergencyResponse struct {
	Base
	AssessmentID        string          `json:"assessmentId" gorm:"uniqueIndex;size:64"`
	ResponseType        ResponseType    `json:"responseType" gorm:"size:24"`
	DoctorAssigned      bool            `json:"doctorAssigned"`
	DoctorID            *string         `json:"doctorId" gorm:"index;size:64"`
	AmbulanceDispatched bool            `json:"ambulanceDispatched"`
	AmbulanceID         *string         `json:"ambulanceId" gorm:"index;size:64"`
	Status              TaskStatus      `json:"status" gorm:"size:16;index;default:INITIATED"`
	Notes               string          `json:"notes"`
	Doctor              *Doctor         `json:"doctor,omitempty"`
	Ambulance           *Ambulance      `json:"ambulance,omitempty"`
	Assessment          *RiskAssessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

// UpsertResponse 以 assessment_id 为键写入响应：不存在时整行插入，已存在时只更新 columns。
// 返回写入后的记录
func UpsertResponse(db *gorm.DB, r *EmergencyResponse, columns ...string) (*EmergencyResponse, error) {
	if r.Status == "" {
		r.Status = TaskInitiated
	}
	cols := append([]string{"updated_at"}, columns...)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assessment_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(r).Error
	if err != nil {
		return nil, apperr.Internal(err, "save emergency response")
	}
	return GetResponseByAssessmentID(db, r.AssessmentID)
}

func GetResponseByID(db *gorm.DB, id string) (*EmergencyResponse, error) {
	var r EmergencyResponse
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err, "Task not found")
	}
	return &r, nil
}

func GetResponseByAssessmentID(db *gorm.DB, assessmentID string) (*EmergencyResponse, error) {
	var r EmergencyResponse
	if err := db.Where("assessment_id = ?", assessmentID).First(&r).Error; err != nil {
		return nil, notFound(err, "Emergency response not found")
	}
	return &r, nil
}

// BoundAmbulanceID 警报响应当前绑定的救护车，没有时返回空串
func BoundAmbulanceID(db *gorm.DB, alertID string) (string, error) {
	var ids []*string
	err := db.Model(&EmergencyResponse{}).
		Joins("JOIN risk_assessments ON risk_assessments.id = emergency_responses.assessment_id").
		Where("risk_assessments.alert_id = ?", alertID).
		Limit(1).
		Pluck("emergency_responses.ambulance_id", &ids).Error
	if err != nil {
		return "", apperr.Internal(err, "load bound ambulance")
	}
	if len(ids) == 0 || ids[0] == nil {
		return "", nil
	}
	return *ids[0], nil
}

// FindResponseByAssessmentID 不存在时返回 nil, nil
func FindResponseByAssessmentID(db *gorm.DB, assessmentID string) (*EmergencyResponse, error) {
	var list []EmergencyResponse
	if err := db.Where("assessment_id = ?", assessmentID).Limit(1).Find(&list).Error; err != nil {
		return nil, apperr.Internal(err, "load emergency response")
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// AdvanceTask 推进出车任务状态。状态比较并更新（CAS），并发的重复推进只有一个成功。
// 进入 COMPLETED 时释放绑定的救护车
func AdvanceTask(db *gorm.DB, id string, to TaskStatus, notes string) (*EmergencyResponse, error) {
	if !to.Valid() {
		return nil, apperr.Validation("Invalid task status")
	}
	var out *EmergencyResponse
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := GetResponseByID(tx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanAdvance(to) {
			return apperr.WithCodef(apperr.CodeConflict, "Task cannot move from %s to %s", current.Status, to)
		}
		updates := map[string]interface{}{"status": to}
		if notes != "" {
			updates["notes"] = notes
		}
		res := tx.Model(&EmergencyResponse{}).
			Where("id = ? AND status = ?", id, current.Status).
			Updates(updates)
		if res.Error != nil {
			return apperr.Internal(res.Error, "Failed to update status")
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Task was updated concurrently")
		}
		if to == TaskCompleted && current.AmbulanceID != nil {
			if err := ReleaseAmbulance(tx, *current.AmbulanceID); err != nil {
				return err
			}
		}
		out, err = GetResponseByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func taskPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assessment.Alert.Patient").
		Preload("Assessment.Alert.Worker").
		Preload("Doctor")
}

// GetAmbulanceTasks 未完成任务，最新在前
func GetAmbulanceTasks(db *gorm.DB, ambulanceID string) ([]EmergencyResponse, error) {
	var list []EmergencyResponse
	err := taskPreloads(db).
		Where("ambulance_id = ? AND status IN ?", ambulanceID, ActiveTaskStatuses).
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch tasks")
	}
	return list, nil
}

// GetAmbulanceHistory 最近 10 条已完成任务
func GetAmbulanceHistory(db *gorm.DB, ambulanceID string) ([]EmergencyResponse, error) {
	var list []EmergencyResponse
	err := taskPreloads(db).
		Where("ambulance_id = ? AND status = ?", ambulanceID, TaskCompleted).
		Order("updated_at desc").
		Limit(10).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch history")
	}
	return list, nil
}

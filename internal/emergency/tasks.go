package emergency

import (
	"context"

	"RuralCare/internal/models"
	apperr "RuralCare/pkg/errors"
	"RuralCare/pkg/logger"

	"go.uber.org/zap"
)

// AdvanceTask 司机推进自己的出车任务
func (s *Service) AdvanceTask(ctx context.Context, ambulanceID, taskID string, to models.TaskStatus, notes string) (*models.EmergencyResponse, error) {
	db := s.db.WithContext(ctx)
	task, err := models.GetResponseByID(db, taskID)
	if err != nil {
		return nil, err
	}
	if task.AmbulanceID == nil || *task.AmbulanceID != ambulanceID {
		return nil, apperr.Forbidden("Task is not assigned to this ambulance")
	}
	updated, err := models.AdvanceTask(db, taskID, to, notes)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTaskTransition(string(to))
	logger.Info("task status updated",
		zap.String("taskId", taskID),
		zap.String("from", string(task.Status)),
		zap.String("to", string(to)))
	return updated, nil
}

// Reconcile 核对救护车可用标记，fix 为 true 时修正
func (s *Service) Reconcile(ctx context.Context, fix bool) ([]models.AvailabilityDrift, error) {
	db := s.db.WithContext(ctx)
	drifts, err := models.ReconcileAmbulances(db, fix)
	if err != nil {
		return nil, err
	}
	available, err := models.ListAvailableAmbulances(db)
	if err != nil {
		return nil, err
	}
	s.metrics.SetAmbulancesAvailable(len(available))
	for _, d := range drifts {
		logger.Warn("ambulance availability drift",
			zap.String("ambulanceId", d.AmbulanceID),
			zap.Bool("available", d.Available),
			zap.Int64("activeTasks", d.ActiveTasks),
			zap.Bool("fixed", fix))
	}
	return drifts, nil
}

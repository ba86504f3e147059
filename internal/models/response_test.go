package models

import (
	"sync"
	"testing"

	apperr "RuralCare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusCanAdvance(t *testing.T) {
	assert.True(t, TaskInitiated.CanAdvance(TaskInProgress))
	assert.True(t, TaskInitiated.CanAdvance(TaskCompleted))
	assert.True(t, TaskPickedUp.CanAdvance(TaskCompleted))
	assert.False(t, TaskInProgress.CanAdvance(TaskInitiated))
	assert.False(t, TaskCompleted.CanAdvance(TaskCompleted))
	assert.False(t, TaskPickedUp.CanAdvance(TaskStatus("CANCELLED")))
}

func TestUpsertResponseKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeverityMild)
	ra := mustAssessment(t, db, a.ID, RiskLow)

	first, err := UpsertResponse(db, &EmergencyResponse{
		AssessmentID: ra.ID, ResponseType: ResponseDoctorConsult, Notes: "consult",
	}, "response_type", "notes")
	require.NoError(t, err)

	second, err := UpsertResponse(db, &EmergencyResponse{
		AssessmentID: ra.ID, ResponseType: ResponseDoctorConsult, Status: TaskCompleted, Notes: "resolved",
	}, "status", "notes")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, TaskCompleted, second.Status)
	assert.Equal(t, "resolved", second.Notes)

	var count int64
	require.NoError(t, db.Model(&EmergencyResponse{}).Where("assessment_id = ?", ra.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestClaimAmbulanceOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	amb := mustAmbulance(t, db, "amb-1", Location{})

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := ClaimAmbulance(db, amb.ID)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	got, err := GetAmbulanceByID(db, amb.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestAdvanceTaskCompletesAndReleases(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeveritySevere)
	ra := mustAssessment(t, db, a.ID, RiskHigh)
	amb := mustAmbulance(t, db, "amb-1", Location{})

	ok, err := ClaimAmbulance(db, amb.ID)
	require.NoError(t, err)
	require.True(t, ok)
	resp, err := UpsertResponse(db, &EmergencyResponse{
		AssessmentID: ra.ID, ResponseType: ResponseAmbulanceDispatch,
		AmbulanceDispatched: true, AmbulanceID: &amb.ID,
	}, "ambulance_id", "ambulance_dispatched")
	require.NoError(t, err)

	tasks, err := GetAmbulanceTasks(db, amb.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].Assessment)
	require.NotNil(t, tasks[0].Assessment.Alert)
	assert.Equal(t, p.ID, tasks[0].Assessment.Alert.Patient.ID)

	_, err = AdvanceTask(db, resp.ID, TaskInProgress, "")
	require.NoError(t, err)
	_, err = AdvanceTask(db, resp.ID, TaskInitiated, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	done, err := AdvanceTask(db, resp.ID, TaskCompleted, "Patient delivered to hospital")
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)
	assert.Equal(t, "Patient delivered to hospital", done.Notes)

	got, err := GetAmbulanceByID(db, amb.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)

	tasks, err = GetAmbulanceTasks(db, amb.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	history, err := GetAmbulanceHistory(db, amb.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = AdvanceTask(db, resp.ID, TaskCompleted, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	_, err = AdvanceTask(db, "missing", TaskCompleted, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestReconcileAmbulances(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeveritySevere)
	ra := mustAssessment(t, db, a.ID, RiskHigh)
	busy := mustAmbulance(t, db, "busy", Location{})
	stuck := mustAmbulance(t, db, "stuck", Location{})

	// busy 有未完成任务但标记为可用；stuck 没有任务却被标记为占用
	_, err := UpsertResponse(db, &EmergencyResponse{
		AssessmentID: ra.ID, ResponseType: ResponseAmbulanceDispatch,
		AmbulanceDispatched: true, AmbulanceID: &busy.ID,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(stuck).Update("available", false).Error)

	drifts, err := ReconcileAmbulances(db, false)
	require.NoError(t, err)
	assert.Len(t, drifts, 2)

	_, err = ReconcileAmbulances(db, true)
	require.NoError(t, err)
	drifts, err = ReconcileAmbulances(db, false)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	got, err := GetAmbulanceByID(db, busy.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestRepairAvailabilityRechecksActiveTasks(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)
	ra := mustAssessment(t, db, mustAlert(t, db, p.ID, w.ID, SeveritySevere).ID, RiskHigh)
	amb := mustAmbulance(t, db, "amb", Location{})

	// 扫描时没有任务，修复前已被重新认领
	claimed, err := ClaimAmbulance(db, amb.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	resp, err := UpsertResponse(db, &EmergencyResponse{
		AssessmentID: ra.ID, ResponseType: ResponseAmbulanceDispatch,
		AmbulanceDispatched: true, AmbulanceID: &amb.ID,
	})
	require.NoError(t, err)

	changed, err := repairAvailability(db, amb.ID, true)
	require.NoError(t, err)
	assert.False(t, changed)
	got, err := GetAmbulanceByID(db, amb.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	// 任务完成释放后，过期的"占用"修复也不生效
	_, err = AdvanceTask(db, resp.ID, TaskCompleted, "")
	require.NoError(t, err)
	changed, err = repairAvailability(db, amb.ID, false)
	require.NoError(t, err)
	assert.False(t, changed)
	got, err = GetAmbulanceByID(db, amb.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}


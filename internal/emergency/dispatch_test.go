package emergency

import (
	"context"
	"sync"
	"testing"

	"RuralCare/internal/models"
	apperr "RuralCare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankByDistance(t *testing.T) {
	list := []models.Ambulance{
		{Base: models.Base{ID: "none"}},
		{Base: models.Base{ID: "far"}, Location: at(23.90, 90.50)},
		{Base: models.Base{ID: "a"}, Location: at(23.81, 90.41)},
		{Base: models.Base{ID: "b"}, Location: at(23.83, 90.43)},
		{Base: models.Base{ID: "a-twin"}, Location: at(23.81, 90.41)},
	}
	ranked := rankByDistance(list, at(23.8103, 90.4125))

	ids := make([]string, len(ranked))
	for i, a := range ranked {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a", "a-twin", "b", "far", "none"}, ids)

	// 患者没有坐标时保持原顺序
	plain := []models.Ambulance{{Base: models.Base{ID: "x"}, Location: at(50, 50)}, {Base: models.Base{ID: "y"}, Location: at(0, 0)}}
	ranked = rankByDistance(plain, models.Location{})
	assert.Equal(t, "x", ranked[0].ID)
}

func TestDispatchNearestPicksClosest(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	doc := mustDoctor(t, db, "doc1", "North District", "Cardiologist", 10)
	p := mustPatient(t, db, w.ID, at(23.8103, 90.4125))
	near := mustAmbulance(t, db, "amb-1", at(23.81, 90.41))
	mustAmbulance(t, db, "amb-2", at(23.83, 90.43))
	alert, ra := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)

	res, err := svc.DispatchNearest(ctx, alert.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, near.VehicleNumber, res.Vehicle)
	assert.Equal(t, near.DriverName, res.Name)
	assert.Equal(t, near.DriverPhone, res.Phone)

	got, err := models.GetAmbulanceByID(db, near.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	resp, err := models.GetResponseByAssessmentID(db, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ResponseID, resp.ID)
	assert.Equal(t, models.ResponseAmbulanceDispatch, resp.ResponseType)
	assert.Equal(t, models.TaskInitiated, resp.Status)
	assert.True(t, resp.AmbulanceDispatched)
	assert.Equal(t, "Ambulance AMB-amb-1 dispatched by doctor.", resp.Notes)
	require.NotNil(t, resp.DoctorID)
	assert.Equal(t, doc.ID, *resp.DoctorID)
}

func TestDispatchErrors(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID, models.Location{})

	_, err := svc.DispatchNearest(ctx, "missing", "doc")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	bare := &models.MedicalAlert{PatientID: p.ID, WorkerID: w.ID, Severity: models.SeverityMild, Symptoms: []string{"cough"}}
	require.NoError(t, models.CreateAlert(db, bare))
	_, err = svc.DispatchNearest(ctx, bare.ID, "doc")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Equal(t, "Alert assessment not found", apperr.GetMessage(err))

	alert, _ := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)
	_, err = svc.DispatchNearest(ctx, alert.ID, "doc")
	assert.True(t, apperr.HasCode(err, apperr.CodeExhausted))
	assert.Equal(t, "No ambulances available currently", apperr.GetMessage(err))
}

func TestConcurrentDispatchOneAmbulance(t *testing.T) {
	svc, db := newTestService(t, nil)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID, at(23.8103, 90.4125))
	doc := mustDoctor(t, db, "doc1", "North District", "", 5)
	mustAmbulance(t, db, "only", at(23.81, 90.41))
	first, _ := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)
	second, _ := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.DispatchNearest(context.Background(), id, doc.ID)
		}(i, id)
	}
	wg.Wait()

	succeeded, exhausted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.HasCode(err, apperr.CodeExhausted):
			exhausted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, exhausted)

	var dispatched int64
	require.NoError(t, db.Model(&models.EmergencyResponse{}).Where("ambulance_dispatched = ?", true).Count(&dispatched).Error)
	assert.EqualValues(t, 1, dispatched)
}

func TestRedispatchReleasesPreviousAmbulance(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	doc := mustDoctor(t, db, "doc1", "North District", "", 5)
	other := mustDoctor(t, db, "doc2", "South District", "", 5)
	p := mustPatient(t, db, w.ID, at(23.8103, 90.4125))
	first := mustAmbulance(t, db, "amb-1", at(23.81, 90.41))
	second := mustAmbulance(t, db, "amb-2", at(23.83, 90.43))
	alert, ra := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)

	res, err := svc.DispatchNearest(ctx, alert.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.VehicleNumber, res.Vehicle)

	res, err = svc.DispatchNearest(ctx, alert.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, second.VehicleNumber, res.Vehicle)

	a1, err := models.GetAmbulanceByID(db, first.ID)
	require.NoError(t, err)
	assert.True(t, a1.Available)
	a2, err := models.GetAmbulanceByID(db, second.ID)
	require.NoError(t, err)
	assert.False(t, a2.Available)

	resp, err := models.GetResponseByAssessmentID(db, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *resp.AmbulanceID)
	// 已记录的医生不被覆盖
	assert.Equal(t, doc.ID, *resp.DoctorID)
}

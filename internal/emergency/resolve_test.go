package emergency

import (
	"context"
	"testing"

	"RuralCare/internal/models"
	apperr "RuralCare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAlertCompletesResponseAndWritesRecord(t *testing.T) {
	stub := &stubLLM{replies: []string{`{"diagnosis":"Acute coronary syndrome","treatment":"Transferred to district hospital"}`}}
	svc, db := newTestService(t, stub)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	doc := mustDoctor(t, db, "doc1", "North District", "Cardiologist", 10)
	p := mustPatient(t, db, w.ID, at(23.8103, 90.4125))
	amb := mustAmbulance(t, db, "amb-1", at(23.81, 90.41))
	alert, ra := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskHigh)

	_, err := svc.DispatchNearest(ctx, alert.ID, doc.ID)
	require.NoError(t, err)

	record, err := svc.ResolveAlert(ctx, alert.ID, doc.ID, "Stabilized and handed over")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Acute coronary syndrome", record.Diagnosis)
	assert.Equal(t, "Transferred to district hospital", record.Treatment)
	assert.Equal(t, "Stabilized and handed over", record.Notes)
	assert.Equal(t, []string{"chest pain", "sweating"}, []string(record.Symptoms))

	got, err := models.GetAlertByID(db, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, got.Status)
	assert.Equal(t, doc.ID, *got.DoctorID)

	resp, err := models.GetResponseByAssessmentID(db, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, resp.Status)
	assert.Equal(t, models.ResponseAmbulanceDispatch, resp.ResponseType)

	a, err := models.GetAmbulanceByID(db, amb.ID)
	require.NoError(t, err)
	assert.True(t, a.Available)

	_, err = svc.ResolveAlert(ctx, alert.ID, doc.ID, "again")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	_, err = svc.DispatchNearest(ctx, alert.ID, doc.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

func TestResolveCreatesConsultResponseWhenAbsent(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	doc := mustDoctor(t, db, "doc1", "North District", "", 10)
	p := mustPatient(t, db, w.ID, models.Location{})
	alert, ra := mustAssessedAlert(t, db, p.ID, w.ID, models.RiskLow)

	record, err := svc.ResolveAlert(ctx, alert.ID, doc.ID, "Rest and fluids")
	require.NoError(t, err)
	assert.Equal(t, "Follow-up required", record.Diagnosis)
	assert.Equal(t, "Emergency resolved", record.Treatment)

	resp, err := models.GetResponseByAssessmentID(db, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseDoctorConsult, resp.ResponseType)
	assert.Equal(t, models.TaskCompleted, resp.Status)
	assert.Equal(t, "Rest and fluids", resp.Notes)
}

func TestResolveWithoutAssessment(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	w := mustWorker(t, db, "w1", "North District")
	doc := mustDoctor(t, db, "doc1", "North District", "", 10)
	p := mustPatient(t, db, w.ID, models.Location{})
	alert := &models.MedicalAlert{PatientID: p.ID, WorkerID: w.ID, Severity: models.SeverityMild, Symptoms: []string{"cough"}}
	require.NoError(t, models.CreateAlert(db, alert))

	_, err := svc.ResolveAlert(ctx, alert.ID, doc.ID, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	record, err := svc.ResolveAlert(ctx, alert.ID, doc.ID, "Seen in clinic")
	require.NoError(t, err)
	assert.Nil(t, record)

	var count int64
	require.NoError(t, db.Model(&models.MedicalRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

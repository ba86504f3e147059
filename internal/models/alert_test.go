package models

import (
	"testing"

	apperr "RuralCare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAlertStatusCanAdvance(t *testing.T) {
	cases := []struct {
		from, to AlertStatus
		ok       bool
	}{
		{AlertPending, AlertAssessed, true},
		{AlertPending, AlertEscalated, true},
		{AlertAssessed, AlertEscalated, true},
		{AlertEscalated, AlertEscalated, true},
		{AlertEscalated, AlertResolved, true},
		{AlertAssessed, AlertPending, false},
		{AlertEscalated, AlertAssessed, false},
		{AlertResolved, AlertEscalated, false},
		{AlertResolved, AlertResolved, false},
		{AlertPending, AlertStatus("CLOSED"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanAdvance(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCreateAlertValidation(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)

	err := CreateAlert(db, &MedicalAlert{PatientID: p.ID, WorkerID: w.ID, Severity: SeverityMild, Symptoms: datatypes.JSONSlice[string]{" "}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	err = CreateAlert(db, &MedicalAlert{PatientID: p.ID, WorkerID: w.ID, Severity: "EXTREME", Symptoms: datatypes.JSONSlice[string]{"fever"}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	err = CreateAlert(db, &MedicalAlert{PatientID: "missing", WorkerID: w.ID, Severity: SeverityMild, Symptoms: datatypes.JSONSlice[string]{"fever"}})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	a := mustAlert(t, db, p.ID, w.ID, SeverityMild)
	assert.Equal(t, AlertPending, a.Status)
}

func TestAlertStatusNeverRegresses(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	d := mustDoctor(t, db, "d1", "North District", 10, true)
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeverityModerate)

	require.NoError(t, AssignDoctor(db, a.ID, d.ID))

	// 已升级的警报提交初步处理不会回退到 ASSESSED
	require.NoError(t, SubmitPrimaryTreatment(db, a.ID, "oral rehydration"))
	got, err := GetAlertByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AlertEscalated, got.Status)
	assert.Equal(t, "oral rehydration", got.PrimaryTreatment)

	err = AdvanceAlert(db, a.ID, AlertAssessed, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	require.NoError(t, AdvanceAlert(db, a.ID, AlertResolved, nil))
	err = AssignDoctor(db, a.ID, d.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	got, err = GetAlertByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AlertResolved, got.Status)
}

func TestSubmitPrimaryTreatmentFromPending(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeverityMild)

	require.NoError(t, SubmitPrimaryTreatment(db, a.ID, "paracetamol"))
	got, err := GetAlertByID(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AlertAssessed, got.Status)

	err = SubmitPrimaryTreatment(db, "missing", "x")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestGetDoctorAlertsSevereFirst(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	d := mustDoctor(t, db, "d1", "North District", 10, true)
	p := mustPatient(t, db, w.ID)

	mild := mustAlert(t, db, p.ID, w.ID, SeverityMild)
	severe := mustAlert(t, db, p.ID, w.ID, SeveritySevere)
	moderate := mustAlert(t, db, p.ID, w.ID, SeverityModerate)
	for _, a := range []*MedicalAlert{mild, severe, moderate} {
		require.NoError(t, AssignDoctor(db, a.ID, d.ID))
	}
	resolved := mustAlert(t, db, p.ID, w.ID, SeveritySevere)
	require.NoError(t, AssignDoctor(db, resolved.ID, d.ID))
	require.NoError(t, AdvanceAlert(db, resolved.ID, AlertResolved, nil))

	alerts, err := GetDoctorAlerts(db, d.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, severe.ID, alerts[0].ID)
	assert.Equal(t, moderate.ID, alerts[1].ID)
	assert.Equal(t, mild.ID, alerts[2].ID)
	assert.NotNil(t, alerts[0].Patient)
}

func TestCaseNotes(t *testing.T) {
	db := newTestDB(t)
	w := mustWorker(t, db, "w1", "North District")
	d := mustDoctor(t, db, "d1", "North District", 10, true)
	p := mustPatient(t, db, w.ID)
	a := mustAlert(t, db, p.ID, w.ID, SeverityModerate)

	_, err := AddCaseNote(db, a.ID, NoteInstruction, "Give ORS every hour", d.ID)
	require.NoError(t, err)
	_, err = AddCaseNote(db, a.ID, NoteUpdate, "Patient drinking fluids", w.ID)
	require.NoError(t, err)

	_, err = AddCaseNote(db, a.ID, NoteType("COMMENT"), "x", w.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	_, err = AddCaseNote(db, "missing", NoteUpdate, "x", w.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	notes, err := GetCaseNotes(db, a.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, NoteInstruction, notes[0].Type)
	require.NotNil(t, notes[0].Doctor)
	assert.Equal(t, d.ID, notes[0].Doctor.ID)
	require.NotNil(t, notes[1].Worker)
	assert.Equal(t, w.ID, notes[1].Worker.ID)
}

package models

import (
	"io"
	"testing"
	"time"

	"RuralCare/pkg/util"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.InitDatabase(io.Discard, "", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var clock = time.Now().Add(-time.Hour)

// nextBase 递增的创建时间，保证排序断言稳定
func nextBase(id string) Base {
	clock = clock.Add(time.Second)
	return Base{ID: id, CreatedAt: clock}
}

func mustWorker(t *testing.T, db *gorm.DB, id, area string) *Worker {
	t.Helper()
	w := &Worker{Base: nextBase(id), Email: id + "@test.local", Name: id, AssignedArea: area}
	require.NoError(t, db.Create(w).Error)
	return w
}

func mustDoctor(t *testing.T, db *gorm.DB, id, area string, exp int, available bool) *Doctor {
	t.Helper()
	d := &Doctor{Base: nextBase(id), Email: id + "@test.local", Name: id, Area: area,
		ExperienceYears: exp, Status: DoctorActive, Available: available}
	require.NoError(t, db.Create(d).Error)
	return d
}

func mustAmbulance(t *testing.T, db *gorm.DB, id string, loc Location) *Ambulance {
	t.Helper()
	a := &Ambulance{Base: nextBase(id), Location: loc, Email: id + "@test.local",
		VehicleNumber: "V-" + id, DriverName: "driver " + id, Available: true}
	require.NoError(t, db.Create(a).Error)
	return a
}

func mustPatient(t *testing.T, db *gorm.DB, workerID string) *Patient {
	t.Helper()
	p := &Patient{Name: "Robert Williams", Age: 45, Gender: "Male", Phone: "+1234567896", WorkerID: workerID}
	require.NoError(t, CreatePatient(db, p))
	return p
}

func mustAlert(t *testing.T, db *gorm.DB, patientID, workerID string, sev Severity) *MedicalAlert {
	t.Helper()
	a := &MedicalAlert{PatientID: patientID, WorkerID: workerID, Severity: sev,
		Symptoms: datatypes.JSONSlice[string]{"fever"}}
	require.NoError(t, CreateAlert(db, a))
	return a
}

func mustAssessment(t *testing.T, db *gorm.DB, alertID string, level RiskLevel) *RiskAssessment {
	t.Helper()
	ra := &RiskAssessment{AlertID: alertID, RiskLevel: level, Source: SourceFallback}
	require.NoError(t, CreateAssessment(db, ra))
	return ra
}

package emergency

import (
	"context"
	"io"
	"testing"
	"time"

	"RuralCare/internal/models"
	"RuralCare/internal/triage"
	"RuralCare/pkg/llm"
	"RuralCare/pkg/metrics"
	"RuralCare/pkg/util"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// stubLLM 按调用顺序返回预设回复
type stubLLM struct {
	replies []string
	err     error
	calls   int
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return r, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.InitDatabase(io.Discard, "", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, client llm.Client) (*Service, *gorm.DB) {
	db := newTestDB(t)
	return NewService(db, triage.NewClassifier(client), metrics.NewMetrics()), db
}

var clock = time.Now().Add(-time.Hour)

func nextBase(id string) models.Base {
	clock = clock.Add(time.Second)
	return models.Base{ID: id, CreatedAt: clock}
}

func at(lat, lng float64) models.Location {
	return models.Location{Lat: &lat, Lng: &lng}
}

func mustWorker(t *testing.T, db *gorm.DB, id, area string) *models.Worker {
	t.Helper()
	w := &models.Worker{Base: nextBase(id), Email: id + "@test.local", Name: id, AssignedArea: area}
	require.NoError(t, db.Create(w).Error)
	return w
}

func mustDoctor(t *testing.T, db *gorm.DB, id, area, specialization string, exp int) *models.Doctor {
	t.Helper()
	d := &models.Doctor{Base: nextBase(id), Email: id + "@test.local", Name: id, Phone: "+1-" + id,
		Area: area, Specialization: specialization, ExperienceYears: exp, Status: models.DoctorActive, Available: true}
	require.NoError(t, db.Create(d).Error)
	return d
}

func mustAmbulance(t *testing.T, db *gorm.DB, id string, loc models.Location) *models.Ambulance {
	t.Helper()
	a := &models.Ambulance{Base: nextBase(id), Location: loc, Email: id + "@test.local",
		VehicleNumber: "AMB-" + id, DriverName: "driver " + id, DriverPhone: "+1-" + id, Available: true}
	require.NoError(t, db.Create(a).Error)
	return a
}

func mustPatient(t *testing.T, db *gorm.DB, workerID string, loc models.Location) *models.Patient {
	t.Helper()
	p := &models.Patient{Location: loc, Name: "Robert Williams", Age: 45, Gender: "Male", WorkerID: workerID}
	require.NoError(t, models.CreatePatient(db, p))
	return p
}

// mustAssessedAlert 直接写入警报和评估，不经过评估流程
func mustAssessedAlert(t *testing.T, db *gorm.DB, patientID, workerID string, level models.RiskLevel) (*models.MedicalAlert, *models.RiskAssessment) {
	t.Helper()
	a := &models.MedicalAlert{PatientID: patientID, WorkerID: workerID, Severity: models.SeveritySevere,
		Symptoms: datatypes.JSONSlice[string]{"chest pain", "sweating"}}
	require.NoError(t, models.CreateAlert(db, a))
	ra := &models.RiskAssessment{AlertID: a.ID, RiskLevel: level, AIAnalysis: "Possible MI", Source: models.SourceFallback}
	require.NoError(t, models.CreateAssessment(db, ra))
	return a, ra
}

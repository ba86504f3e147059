package models

import (
	"testing"

	apperr "RuralCare/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	seeded, err := SeedDemo(db)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = SeedDemo(db)
	require.NoError(t, err)
	assert.False(t, seeded)

	p, err := Authenticate(db, "worker@healthcare.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, p.Role)
	assert.Equal(t, "North District", p.Area)

	p, err = Authenticate(db, "Sarah.Johnson@hospital.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, p.Role)
	assert.Equal(t, "dr-sarah", p.ID)

	p, err = Authenticate(db, "driver2@ambulance.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, RoleAmbulance, p.Role)
	assert.Equal(t, "AMB-002", p.VehicleNumber)

	_, err = Authenticate(db, "worker@healthcare.com", "wrong")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	_, err = Authenticate(db, "nobody@nowhere.com", DemoPassword)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	priya, err := GetDoctorByID(db, "dr-priya")
	require.NoError(t, err)
	assert.False(t, priya.Available)
	assert.Equal(t, DoctorBusy, priya.Status)
}

func TestRegisterWorkerDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	w := &Worker{Email: "New@Village.org", Name: "Asha", Village: "Greenfield", AssignedArea: "North District"}
	require.NoError(t, RegisterWorker(db, w, "secret1"))
	assert.Equal(t, "new@village.org", w.Email)
	assert.NotEqual(t, "secret1", w.Password)

	err := RegisterWorker(db, &Worker{Email: "new@village.org", Name: "Other"}, "secret2")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	assert.Equal(t, "Email already registered", err.Error())

	err = RegisterWorker(db, &Worker{Email: "short@village.org", Name: "Short"}, "123")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestRegisterWorkerRejectsStaffEmail(t *testing.T) {
	db := newTestDB(t)
	_, err := SeedDemo(db)
	require.NoError(t, err)

	for _, email := range []string{"Sarah.Johnson@hospital.com", "driver1@ambulance.com"} {
		err := RegisterWorker(db, &Worker{Email: email, Name: "Impostor"}, "secret1")
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict), email)
	}

	p, err := Authenticate(db, "sarah.johnson@hospital.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, p.Role)
}

func TestAuthenticateContinuesPastPasswordMismatch(t *testing.T) {
	db := newTestDB(t)
	_, err := SeedDemo(db)
	require.NoError(t, err)

	// 绕过注册校验，模拟旧数据里与医生同邮箱的工作者账号
	hash, err := HashPassword("worker-secret")
	require.NoError(t, err)
	require.NoError(t, db.Create(&Worker{Email: "sarah.johnson@hospital.com", Name: "Shadow", Password: hash}).Error)

	p, err := Authenticate(db, "sarah.johnson@hospital.com", DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, p.Role)
	assert.Equal(t, "dr-sarah", p.ID)

	p, err = Authenticate(db, "sarah.johnson@hospital.com", "worker-secret")
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, p.Role)

	_, err = Authenticate(db, "sarah.johnson@hospital.com", "neither")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

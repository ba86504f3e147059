package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBestAreaDoctorPrefersArea(t *testing.T) {
	db := newTestDB(t)
	north := mustDoctor(t, db, "north", "North District", 5, true)
	mustDoctor(t, db, "south", "South District", 15, true)

	d, err := FindBestAreaDoctor(db, "North District")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, north.ID, d.ID)
}

func TestFindBestAreaDoctorFallsBackByExperience(t *testing.T) {
	db := newTestDB(t)
	mustDoctor(t, db, "junior", "South District", 3, true)
	senior := mustDoctor(t, db, "senior", "East District", 20, true)
	mustDoctor(t, db, "off", "West District", 30, false)

	d, err := FindBestAreaDoctor(db, "North District")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, senior.ID, d.ID)
}

func TestFindBestAreaDoctorSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	busy := mustDoctor(t, db, "busy", "North District", 10, true)
	require.NoError(t, db.Model(busy).Update("status", DoctorBusy).Error)

	d, err := FindBestAreaDoctor(db, "North District")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestFindAvailableDoctor(t *testing.T) {
	db := newTestDB(t)
	first := mustDoctor(t, db, "gp", "North District", 10, true)
	cardio := mustDoctor(t, db, "cardio", "South District", 15, true)
	require.NoError(t, db.Model(cardio).Update("specialization", "Cardiologist").Error)

	d, err := FindAvailableDoctor(db, "Cardiologist")
	require.NoError(t, err)
	assert.Equal(t, cardio.ID, d.ID)

	d, err = FindAvailableDoctor(db, "Neurologist")
	require.NoError(t, err)
	assert.Equal(t, first.ID, d.ID)

	require.NoError(t, db.Model(&Doctor{}).Where("1 = 1").Update("available", false).Error)
	d, err = FindAvailableDoctor(db, "")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestGetRecommendedDoctors(t *testing.T) {
	db := newTestDB(t)
	mustDoctor(t, db, "n1", "North District", 4, true)
	mustDoctor(t, db, "n2", "North District", 12, true)
	mustDoctor(t, db, "n3", "North District", 20, false)
	for i, id := range []string{"o1", "o2", "o3", "o4", "o5", "o6"} {
		mustDoctor(t, db, id, "South District", i, true)
	}

	rec, err := GetRecommendedDoctors(db, "North District")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.RecommendedCount)
	require.Len(t, rec.Doctors, 7)
	assert.Equal(t, "n2", rec.Doctors[0].ID)
	assert.Equal(t, "n1", rec.Doctors[1].ID)
	assert.Equal(t, "o6", rec.Doctors[2].ID)
}

package handlers

import (
	"time"

	"RuralCare/internal/models"
	"RuralCare/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type patientRequest struct {
	Name            string   `json:"name" binding:"required"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	Phone           string   `json:"phone"`
	Address         string   `json:"address"`
	Village         string   `json:"village"`
	BloodGroup      string   `json:"bloodGroup"`
	Allergies       []string `json:"allergies"`
	ChronicDiseases []string `json:"chronicDiseases"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
}

func (h *Handlers) handleCreatePatient(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Patient name is required", nil)
		return
	}
	p := &models.Patient{
		Location:        models.Location{Lat: req.Lat, Lng: req.Lng},
		Name:            req.Name,
		Age:             req.Age,
		Gender:          req.Gender,
		Phone:           req.Phone,
		Address:         req.Address,
		Village:         req.Village,
		BloodGroup:      req.BloodGroup,
		Allergies:       datatypes.JSONSlice[string](req.Allergies),
		ChronicDiseases: datatypes.JSONSlice[string](req.ChronicDiseases),
		WorkerID:        CurrentPrincipal(c).ID,
	}
	if err := models.CreatePatient(h.db.WithContext(c.Request.Context()), p); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Created(c, "Patient created", p)
}

// handleSearchPatients ?q= 按编号、姓名或电话
func (h *Handlers) handleSearchPatients(c *gin.Context) {
	patients, err := models.SearchPatients(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID, c.Query("q"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", patients)
}

func (h *Handlers) handleGetPatient(c *gin.Context) {
	p, err := models.GetPatientByID(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", p)
}

type recordRequest struct {
	Diagnosis   string     `json:"diagnosis" binding:"required"`
	Symptoms    []string   `json:"symptoms"`
	Treatment   string     `json:"treatment"`
	Medications []string   `json:"medications"`
	Notes       string     `json:"notes"`
	VisitDate   *time.Time `json:"visitDate"`
}

func (h *Handlers) handleAddRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Diagnosis is required", nil)
		return
	}
	r := &models.MedicalRecord{
		PatientID:   c.Param("id"),
		Diagnosis:   req.Diagnosis,
		Symptoms:    datatypes.JSONSlice[string](req.Symptoms),
		Treatment:   req.Treatment,
		Medications: datatypes.JSONSlice[string](req.Medications),
		Notes:       req.Notes,
	}
	if req.VisitDate != nil {
		r.VisitDate = *req.VisitDate
	}
	if err := models.AddMedicalRecord(h.db.WithContext(c.Request.Context()), r); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Created(c, "Medical record added", r)
}

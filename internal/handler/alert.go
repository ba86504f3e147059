package handlers

import (
	"RuralCare/internal/emergency"
	"RuralCare/internal/models"
	"RuralCare/pkg/response"

	"github.com/gin-gonic/gin"
)

// handleCreateAlert 上报警报并同步完成评估与响应编排
func (h *Handlers) handleCreateAlert(c *gin.Context) {
	var in emergency.AlertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Fail(c, "Patient and severity are required", nil)
		return
	}
	out, err := h.svc.CreateAlert(c.Request.Context(), CurrentPrincipal(c).ID, in)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Created(c, "Alert created", out)
}

func (h *Handlers) handleGetAlert(c *gin.Context) {
	alert, err := models.GetAlertDetail(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", alert)
}

type treatmentRequest struct {
	Treatment string `json:"treatment" binding:"required"`
}

func (h *Handlers) handleSubmitTreatment(c *gin.Context) {
	var req treatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Treatment is required", nil)
		return
	}
	db := h.db.WithContext(c.Request.Context())
	if err := models.SubmitPrimaryTreatment(db, c.Param("id"), req.Treatment); err != nil {
		response.AbortWithError(c, err)
		return
	}
	alert, err := models.GetAlertByID(db, c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Treatment submitted", alert)
}

type escalateRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

func (h *Handlers) handleEscalate(c *gin.Context) {
	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Doctor is required", nil)
		return
	}
	alert, err := h.svc.Escalate(c.Request.Context(), c.Param("id"), req.DoctorID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Alert escalated", alert)
}

// handleDispatch 医生按距离派最近的可用救护车
func (h *Handlers) handleDispatch(c *gin.Context) {
	res, err := h.svc.DispatchNearest(c.Request.Context(), c.Param("id"), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Ambulance dispatched", res)
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (h *Handlers) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Invalid request", nil)
		return
	}
	record, err := h.svc.ResolveAlert(c.Request.Context(), c.Param("id"), CurrentPrincipal(c).ID, req.Notes)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Alert resolved", gin.H{"medicalRecord": record})
}

func (h *Handlers) handleGetNotes(c *gin.Context) {
	notes, err := models.GetCaseNotes(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", notes)
}

type noteRequest struct {
	Content string `json:"content" binding:"required"`
}

// handleAddNote 医生写指示，工作者写进展
func (h *Handlers) handleAddNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Note content is required", nil)
		return
	}
	p := CurrentPrincipal(c)
	noteType := models.NoteUpdate
	if p.Role == models.RoleDoctor {
		noteType = models.NoteInstruction
	}
	note, err := models.AddCaseNote(h.db.WithContext(c.Request.Context()), c.Param("id"), noteType, req.Content, p.ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Created(c, "Note added", note)
}

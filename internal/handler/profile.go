package handlers

import (
	"RuralCare/internal/models"
	"RuralCare/pkg/errors"
	"RuralCare/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type locationRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func bindLocation(c *gin.Context) (float64, float64, bool) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Latitude and longitude are required", nil)
		return 0, 0, false
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		response.Fail(c, "Invalid coordinates", nil)
		return 0, 0, false
	}
	return *req.Lat, *req.Lng, true
}

// updateLocation 三种角色共用
func (h *Handlers) updateLocation(c *gin.Context, update func(db *gorm.DB, id string, lat, lng float64) error) {
	lat, lng, ok := bindLocation(c)
	if !ok {
		return
	}
	if err := update(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID, lat, lng); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Location updated", gin.H{"lat": lat, "lng": lng})
}

func (h *Handlers) handleWorkerProfile(c *gin.Context) {
	w, err := models.GetWorkerData(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", w)
}

func (h *Handlers) handleWorkerLocation(c *gin.Context) {
	h.updateLocation(c, models.UpdateWorkerLocation)
}

func (h *Handlers) handleRecommendedDoctors(c *gin.Context) {
	rec, err := h.svc.RecommendDoctors(c.Request.Context(), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", rec)
}

func (h *Handlers) handleDoctorProfile(c *gin.Context) {
	d, err := models.GetDoctorByID(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", d)
}

func (h *Handlers) handleDoctorLocation(c *gin.Context) {
	h.updateLocation(c, models.UpdateDoctorLocation)
}

// handleDoctorAlerts 医生的待处理（ESCALATED）警报
func (h *Handlers) handleDoctorAlerts(c *gin.Context) {
	alerts, err := models.GetDoctorAlerts(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", alerts)
}

func (h *Handlers) handleAmbulanceLocation(c *gin.Context) {
	h.updateLocation(c, models.UpdateAmbulanceLocation)
}

func (h *Handlers) handleAmbulanceTasks(c *gin.Context) {
	tasks, err := models.GetAmbulanceTasks(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", tasks)
}

func (h *Handlers) handleAmbulanceHistory(c *gin.Context) {
	tasks, err := models.GetAmbulanceHistory(h.db.WithContext(c.Request.Context()), CurrentPrincipal(c).ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "", tasks)
}

type taskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
	Notes  string            `json:"notes"`
}

func (h *Handlers) handleTaskStatus(c *gin.Context) {
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Status is required", nil)
		return
	}
	if !req.Status.Valid() {
		response.AbortWithError(c, errors.Validation("Invalid status"))
		return
	}
	task, err := h.svc.AdvanceTask(c.Request.Context(), CurrentPrincipal(c).ID, c.Param("id"), req.Status, req.Notes)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, "Task status updated", task)
}

package handlers

import (
	"net/http"

	"RuralCare/internal/models"
	"RuralCare/pkg/errors"
	"RuralCare/pkg/middleware"
	"RuralCare/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const defaultOperationLimit = 50

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleAvailability 只读的救护车可用标记核对
func (h *Handlers) handleAvailability(c *gin.Context) {
	drifts, err := h.svc.Reconcile(c.Request.Context(), false)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	if drifts == nil {
		drifts = []models.AvailabilityDrift{}
	}
	response.Success(c, "", gin.H{"drifts": drifts, "consistent": len(drifts) == 0})
}

// handleOperationLogs ?user=&limit=
func (h *Handlers) handleOperationLogs(c *gin.Context) {
	limit := cast.ToInt(c.Query("limit"))
	if limit <= 0 {
		limit = defaultOperationLimit
	}
	logs, err := middleware.ListOperationLogs(h.db.WithContext(c.Request.Context()), c.Query("user"), limit)
	if err != nil {
		response.AbortWithError(c, errors.Internal(err, "Failed to load operation logs"))
		return
	}
	response.Success(c, "", logs)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// MaintenanceHandler 设备维护
type MaintenanceHandler struct {
	maintenanceSvc service.MaintenanceService
}

// NewMaintenanceHandler 创建 MaintenanceHandler
func NewMaintenanceHandler(maintenanceSvc service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceSvc: maintenanceSvc}
}

// Schedule 安排维护
// POST /api/v1/maintenances
func (h *MaintenanceHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}

	views, err := h.maintenanceSvc.Schedule(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, gin.H{"list": views})
}

// Cancel 取消维护
// DELETE /api/v1/maintenances/:shift_id
func (h *MaintenanceHandler) Cancel(c *gin.Context) {
	var path dto.MaintenancePath
	if err := c.ShouldBindUri(&path); err != nil {
		bindFailed(c, "班次 ID 无效", err)
		return
	}

	res, err := h.maintenanceSvc.Cancel(c.Request.Context(), path.ShiftID)
	if err != nil {
		handleError(c, err)
		return
	}
	writeLedger(c, res)
}

// List 某年的维护记录
// GET /api/v1/maintenances?year=2026
func (h *MaintenanceHandler) List(c *gin.Context) {
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "year 参数无效")
		return
	}

	views, err := h.maintenanceSvc.List(c.Request.Context(), q.Year)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": views})
}

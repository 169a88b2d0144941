package handler

import (
	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// StatsHandler 统计
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// Closures 晚班关机统计（仅已验证周）
// GET /api/v1/stats/closures?year=2026
func (h *StatsHandler) Closures(c *gin.Context) {
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "year 参数无效")
		return
	}

	resp, err := h.statsSvc.Closures(c.Request.Context(), q.Year)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, resp)
}

// Hours 医生工时统计（仅已验证周）
// GET /api/v1/stats/hours?year=2026
func (h *StatsHandler) Hours(c *gin.Context) {
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "year 参数无效")
		return
	}

	resp, err := h.statsSvc.Hours(c.Request.Context(), q.Year)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, resp)
}

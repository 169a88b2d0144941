package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// WeekHandler 周视图与周验证
type WeekHandler struct {
	weekSvc   service.WeekService
	rosterSvc service.RosterService
}

// NewWeekHandler 创建 WeekHandler
func NewWeekHandler(weekSvc service.WeekService, rosterSvc service.RosterService) *WeekHandler {
	return &WeekHandler{weekSvc: weekSvc, rosterSvc: rosterSvc}
}

// GetWeek 整周排班视图（缺失的班次会被创建）
// GET /api/v1/weeks/:year/:week?machine_id=...&machine_id=...
func (h *WeekHandler) GetWeek(c *gin.Context) {
	var path dto.WeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "周次参数无效")
		return
	}

	var q dto.WeekQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "machine_id 参数无效")
		return
	}

	view, err := h.rosterSvc.Week(c.Request.Context(), path.Year, path.Week, q.MachineIDs)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, view)
}

// GetValidation 查询周验证状态
// GET /api/v1/weeks/:year/:week/validation
func (h *WeekHandler) GetValidation(c *gin.Context) {
	var path dto.WeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "周次参数无效")
		return
	}

	validated, err := h.weekSvc.GetValidation(c.Request.Context(), path.Year, path.Week)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dto.ValidationResponse{Year: path.Year, Week: path.Week, IsValidated: validated})
}

// SetValidation 设置周验证状态
// PUT /api/v1/weeks/:year/:week/validation
func (h *WeekHandler) SetValidation(c *gin.Context) {
	var path dto.WeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "周次参数无效")
		return
	}

	var req dto.SetValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}

	w, err := h.weekSvc.SetValidation(c.Request.Context(), path.Year, path.Week, *req.Validated)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dto.ValidationResponse{Year: w.Year, Week: w.WeekNumber, IsValidated: w.IsValidated})
}

// ListValidated 某年已验证的周
// GET /api/v1/validated-weeks/:year
func (h *WeekHandler) ListValidated(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "年份无效")
		return
	}

	weeks, err := h.weekSvc.ListValidated(c.Request.Context(), year)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dto.ValidatedWeeksResponse{Year: year, Weeks: weeks})
}

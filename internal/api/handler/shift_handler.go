package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/model"
	"planning-imset/internal/service"
	"planning-imset/pkg/isoweek"
	"planning-imset/pkg/response"
)

// ShiftHandler 班次解析与分配账本
type ShiftHandler struct {
	rosterSvc service.RosterService
	ledgerSvc service.LedgerService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(rosterSvc service.RosterService, ledgerSvc service.LedgerService) *ShiftHandler {
	return &ShiftHandler{rosterSvc: rosterSvc, ledgerSvc: ledgerSvc}
}

// Resolve 获取或创建班次
// POST /api/v1/shifts
func (h *ShiftHandler) Resolve(c *gin.Context) {
	var req dto.ResolveShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "参数校验失败", err)
		return
	}

	date, err := isoweek.ParseDate(req.Date, time.UTC)
	if err != nil {
		response.BadRequest(c, response.CodeBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	shift, err := h.rosterSvc.ResolveShift(c.Request.Context(), date, req.Slot, req.MachineID, req.WeekID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dto.ShiftResponse{
		ShiftID:   shift.ShiftID,
		Date:      shift.Date.Format(isoweek.DateLayout),
		Slot:      shift.ShiftType,
		MachineID: shift.MachineID,
		WeekID:    shift.WeekID,
	})
}

// Lines 班次当前分配行
// GET /api/v1/shifts/:id
func (h *ShiftHandler) Lines(c *gin.Context) {
	shiftID, ok := bindShiftID(c)
	if !ok {
		return
	}

	res, err := h.ledgerSvc.Lines(c.Request.Context(), shiftID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, res.Response())
}

// Allocate 新增占用者或为其加一份
// POST /api/v1/shifts/:id/allocate
func (h *ShiftHandler) Allocate(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Allocate)
}

// Increase 已在班次上的占用者加一份
// POST /api/v1/shifts/:id/increase
func (h *ShiftHandler) Increase(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Increase)
}

// Decrease 减一份，减到 0 时删除
// POST /api/v1/shifts/:id/decrease
func (h *ShiftHandler) Decrease(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Decrease)
}

// Remove 删除占用者（忽略份额）
// POST /api/v1/shifts/:id/remove
func (h *ShiftHandler) Remove(c *gin.Context) {
	h.mutate(c, h.ledgerSvc.Remove)
}

// ToggleModifier 切换修饰符
// POST /api/v1/shifts/:id/modifiers
func (h *ShiftHandler) ToggleModifier(c *gin.Context) {
	shiftID, ok := bindShiftID(c)
	if !ok {
		return
	}

	var req dto.ToggleModifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "参数校验失败", err)
		return
	}

	m, ok := model.ParseModifier(req.Modifier)
	if !ok {
		response.BadRequest(c, response.CodeBadRequest, "无效的修饰符")
		return
	}

	res, err := h.ledgerSvc.ToggleModifier(c.Request.Context(), shiftID, req.Occupant(), m)
	if err != nil {
		handleError(c, err)
		return
	}
	writeLedger(c, res)
}

// SetExceptionHoraire 登记或清除医生在班次上的工时
// PUT /api/v1/shifts/:id/exception-horaire
func (h *ShiftHandler) SetExceptionHoraire(c *gin.Context) {
	shiftID, ok := bindShiftID(c)
	if !ok {
		return
	}

	var req dto.ExceptionHoraireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "参数校验失败", err)
		return
	}

	res, err := h.ledgerSvc.SetExceptionHoraire(c.Request.Context(), shiftID, req.Occupant(), req.Hours)
	if err != nil {
		handleError(c, err)
		return
	}
	writeLedger(c, res)
}

type ledgerOp func(ctx context.Context, shiftID string, o model.Occupant) (*service.LedgerResult, error)

func (h *ShiftHandler) mutate(c *gin.Context, op ledgerOp) {
	shiftID, ok := bindShiftID(c)
	if !ok {
		return
	}

	var req dto.OccupantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "参数校验失败", err)
		return
	}

	res, err := op(c.Request.Context(), shiftID, req.Occupant())
	if err != nil {
		handleError(c, err)
		return
	}
	writeLedger(c, res)
}

// bindShiftID 非 UUID 的班次 ID 直接返回 400，不进入存储层
func bindShiftID(c *gin.Context) (string, bool) {
	var path dto.ShiftPath
	if err := c.ShouldBindUri(&path); err != nil {
		bindFailed(c, "班次 ID 无效", err)
		return "", false
	}
	return path.ID, true
}

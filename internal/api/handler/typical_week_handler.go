package handler

import (
	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// TypicalWeekHandler 典型周模板
type TypicalWeekHandler struct {
	typicalWeekSvc service.TypicalWeekService
}

// NewTypicalWeekHandler 创建 TypicalWeekHandler
func NewTypicalWeekHandler(typicalWeekSvc service.TypicalWeekService) *TypicalWeekHandler {
	return &TypicalWeekHandler{typicalWeekSvc: typicalWeekSvc}
}

func bindTypicalWeekPath(c *gin.Context) (*dto.TypicalWeekPath, bool) {
	var path dto.TypicalWeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "年份或周类型无效")
		return nil, false
	}
	return &path, true
}

// List 查看模板
// GET /api/v1/typical-weeks/:year/:parity
func (h *TypicalWeekHandler) List(c *gin.Context) {
	path, ok := bindTypicalWeekPath(c)
	if !ok {
		return
	}

	items, err := h.typicalWeekSvc.List(c.Request.Context(), path.Year, path.Parity)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// Toggle 切换模板项
// POST /api/v1/typical-weeks/:year/:parity/toggle
func (h *TypicalWeekHandler) Toggle(c *gin.Context) {
	path, ok := bindTypicalWeekPath(c)
	if !ok {
		return
	}

	var req dto.ToggleTypicalWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "参数校验失败")
		return
	}

	present, err := h.typicalWeekSvc.Toggle(c.Request.Context(), path.Year, path.Parity, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, dto.ToggleTypicalWeekResponse{Present: present})
}

// Apply 将模板套用到全年对应奇偶周
// POST /api/v1/typical-weeks/:year/:parity/apply
func (h *TypicalWeekHandler) Apply(c *gin.Context) {
	path, ok := bindTypicalWeekPath(c)
	if !ok {
		return
	}

	report, err := h.typicalWeekSvc.ApplyToYear(c.Request.Context(), path.Year, path.Parity)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, report)
}

// Reset 清空模板及全年对应周的 no-doctor 行
// DELETE /api/v1/typical-weeks/:year/:parity
func (h *TypicalWeekHandler) Reset(c *gin.Context) {
	path, ok := bindTypicalWeekPath(c)
	if !ok {
		return
	}

	report, err := h.typicalWeekSvc.ResetYear(c.Request.Context(), path.Year, path.Parity)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, report)
}

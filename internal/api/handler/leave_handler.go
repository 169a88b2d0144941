package handler

import (
	"github.com/gin-gonic/gin"

	"planning-imset/internal/dto"
	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// LeaveHandler congés（只读）与缓存失效
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// WeekLeaves 某周每天休假的医生缩写
// GET /api/v1/leaves/:year/:week
func (h *LeaveHandler) WeekLeaves(c *gin.Context) {
	var path dto.WeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "周次参数无效")
		return
	}

	set, err := h.leaveSvc.LeaveSet(c.Request.Context(), path.Year, path.Week)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"year": path.Year, "week": path.Week, "leaves": set})
}

// Invalidate 外部修改 congés 后使该周缓存立即失效
// DELETE /api/v1/leaves/:year/:week/cache
func (h *LeaveHandler) Invalidate(c *gin.Context) {
	var path dto.WeekPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "周次参数无效")
		return
	}

	if err := h.leaveSvc.Invalidate(c.Request.Context(), path.Year, path.Week); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

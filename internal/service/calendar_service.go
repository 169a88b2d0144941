package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"planning-imset/config"
	"planning-imset/internal/model"
	"planning-imset/internal/repository"
	"planning-imset/pkg/isoweek"
)

// calendarProductID iCalendar PRODID
const calendarProductID = "-//planning-imset//roster//FR"

// ── 医生日历订阅 ──────────────────────────────────────────────
//
// 每条医生分配行对应一个 VEVENT：
//   - DTSTART/DTEND 由 roster.slots 的本地时段换算为 UTC
//   - UID 使用 assignment_id，订阅端据此更新而不是重复
//   - 已验证周标记 CONFIRMED，其余为 TENTATIVE
// ─────────────────────────────────────────────────────────────

// CalendarService 医生排班 iCalendar 导出
type CalendarService interface {
	DoctorCalendar(ctx context.Context, doctorID string, year int) ([]byte, error)
}

type calendarService struct {
	repo   *repository.Repository
	slots  config.SlotsConfig
	loc    *time.Location
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, slots config.SlotsConfig, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{repo: repo, slots: slots, loc: loc, logger: logger}
}

func (s *calendarService) DoctorCalendar(ctx context.Context, doctorID string, year int) ([]byte, error) {
	doctor, err := s.repo.Doctor.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		s.logger.Error("查询医生失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, persist("doctor.get", err)
	}

	from, to, err := isoYearRange(year)
	if err != nil {
		return nil, err
	}

	validated, err := s.repo.Week.ListValidated(ctx, year)
	if err != nil {
		s.logger.Error("查询已验证周失败", zap.Int("year", year), zap.Error(err))
		return nil, persist("week.list_validated", err)
	}
	validatedSet := make(map[int]bool, len(validated))
	for _, w := range validated {
		validatedSet[w] = true
	}

	lines, err := s.repo.Allocation.ListDoctorLinesInRange(ctx, from, to, doctorID)
	if err != nil {
		s.logger.Error("查询医生分配行失败", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, persist("allocation.list_doctor", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("Planning %s %d", doctor.Initials, year))
	cal.SetXWRTimezone(s.loc.String())

	for i := range lines {
		l := &lines[i]
		if l.Shift == nil {
			continue
		}
		start, end, ok := s.slotBounds(l.Shift)
		if !ok {
			continue
		}

		event := cal.AddEvent(l.AssignmentID + "@planning-imset")
		event.SetDtStampTime(l.UpdatedAt)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(eventSummary(l))
		if l.Shift.Machine != nil && l.Shift.Machine.Site != "" {
			event.SetLocation(l.Shift.Machine.Site)
		}
		if mods := modifierLabels(l); mods != "" {
			event.SetDescription(mods)
		}
		_, w := isoweek.Of(l.Shift.Date)
		if validatedSet[w] {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	s.logger.Debug("已生成医生日历",
		zap.String("doctor_id", doctorID),
		zap.Int("year", year),
		zap.Int("events", len(lines)),
	)
	return []byte(cal.Serialize()), nil
}

// slotBounds 班次日期 + 时段本地时间 → 绝对时间
func (s *calendarService) slotBounds(sh *model.Shift) (time.Time, time.Time, bool) {
	w, ok := s.slots.Window(string(sh.ShiftType))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	startOff, endOff, err := w.Bounds()
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	day := time.Date(sh.Date.Year(), sh.Date.Month(), sh.Date.Day(), 0, 0, 0, 0, s.loc)
	return day.Add(startOff), day.Add(endOff), true
}

func eventSummary(l *model.AllocationLine) string {
	machine := "?"
	if l.Shift.Machine != nil {
		machine = l.Shift.Machine.Name
	}
	summary := fmt.Sprintf("%s %s", machine, l.Shift.ShiftType.Label())
	if l.Mutualise {
		summary += fmt.Sprintf(" (%.0f%%)", l.PctMutualisation)
	}
	return summary
}

func modifierLabels(l *model.AllocationLine) string {
	var parts []string
	if l.Teleradiologie {
		parts = append(parts, "Téléradiologie")
	}
	if l.EnDiffere {
		parts = append(parts, "En différé")
	}
	if l.LectureDifferee {
		parts = append(parts, "Lecture différée")
	}
	if l.ExceptionHoraire != nil {
		parts = append(parts, fmt.Sprintf("Exception horaire : %gh", *l.ExceptionHoraire))
	}
	return strings.Join(parts, ", ")
}

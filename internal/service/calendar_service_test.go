package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"planning-imset/internal/model"
)

func TestCalendar_DoctorEvents(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.st.addMachine("m1", "IRM 1", "Site A")
	env.st.addDoctor("d1", "AAA")
	env.st.addDoctor("d2", "BBB")

	matin := env.newShift(t)
	_, _ = env.svc.Ledger.Allocate(ctx, matin.ShiftID, model.DoctorOccupant("d1"))
	_, _ = env.svc.Ledger.Allocate(ctx, matin.ShiftID, model.DoctorOccupant("d2"))
	_, _ = env.svc.Ledger.ToggleModifier(ctx, matin.ShiftID, model.DoctorOccupant("d1"), model.ModifierTeleradiologie)

	// 第 3 周未验证
	soir, err := env.svc.Roster.ResolveShift(ctx, day(12), "Soir", "m1", "")
	if err != nil {
		t.Fatalf("ResolveShift 失败: %v", err)
	}
	_, _ = env.svc.Ledger.Allocate(ctx, soir.ShiftID, model.DoctorOccupant("d1"))
	if _, err := env.svc.Week.SetValidation(ctx, 2026, 2, true); err != nil {
		t.Fatalf("SetValidation 失败: %v", err)
	}

	data, err := env.svc.Calendar.DoctorCalendar(ctx, "d1", 2026)
	if err != nil {
		t.Fatalf("DoctorCalendar 失败: %v", err)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("生成的日历无法解析: %v", err)
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("期望 2 个事件（BBB 的行不应出现），实际 %d", len(events))
	}

	first := events[0]
	if got := first.GetProperty(ics.ComponentPropertyStatus).Value; got != string(ics.ObjectStatusConfirmed) {
		t.Errorf("已验证周期望 CONFIRMED，实际 %s", got)
	}
	summary := first.GetProperty(ics.ComponentPropertySummary).Value
	if !strings.Contains(summary, "IRM 1") || !strings.Contains(summary, "Matin") || !strings.Contains(summary, "50%") {
		t.Errorf("摘要应包含设备、时段与占比，实际 %q", summary)
	}
	if desc := first.GetProperty(ics.ComponentPropertyDescription); desc == nil || !strings.Contains(desc.Value, "Téléradiologie") {
		t.Errorf("描述应包含修饰符，实际 %+v", desc)
	}
	start, err := first.GetStartAt()
	if err != nil || !start.Equal(time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("期望开始于 2026-01-05 08:00，实际 %v (%v)", start, err)
	}

	if got := events[1].GetProperty(ics.ComponentPropertyStatus).Value; got != string(ics.ObjectStatusTentative) {
		t.Errorf("未验证周期望 TENTATIVE，实际 %s", got)
	}
	end, err := events[1].GetEndAt()
	if err != nil || !end.Equal(time.Date(2026, time.January, 12, 22, 0, 0, 0, time.UTC)) {
		t.Errorf("期望 soir 结束于 22:00，实际 %v (%v)", end, err)
	}
}

func TestCalendar_UnknownDoctor(t *testing.T) {
	env := newTestEnv(nil)
	if _, err := env.svc.Calendar.DoctorCalendar(context.Background(), "ghost", 2026); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("期望 ErrDoctorNotFound，实际 %v", err)
	}
}

func TestCalendar_ListErrorPropagates(t *testing.T) {
	env := newTestEnv(nil)
	env.st.addDoctor("d1", "AAA")
	env.st.fail["allocation.list_doctor"] = errors.New("timeout")

	if _, err := env.svc.Calendar.DoctorCalendar(context.Background(), "d1", 2026); err == nil {
		t.Error("存储失败应返回错误")
	}
}

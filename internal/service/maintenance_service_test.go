package service

import (
	"context"
	"errors"
	"testing"

	"planning-imset/internal/dto"
	"planning-imset/internal/model"
	apperrors "planning-imset/pkg/errors"
)

func TestMaintenance_ScheduleClearsShift(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("d1", "AAA")
	env.st.addDoctor("d2", "BBB")
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("d1"))
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("d2"))

	views, err := env.svc.Maintenance.Schedule(ctx, &dto.ScheduleMaintenanceRequest{
		Date:      "2026-01-05",
		MachineID: "m1",
		Slots:     []string{"Matin", "Après-midi"},
	})
	if err != nil {
		t.Fatalf("Schedule 失败: %v", err)
	}
	if len(views) != 2 || views[0].ShiftID != sh.ShiftID || views[0].MachineName != "IRM 1" {
		t.Fatalf("返回视图错误: %+v", views)
	}

	for _, v := range views {
		lines := env.st.linesOf(v.ShiftID)
		if len(lines) != 1 || !lines[0].Maintenance || lines[0].Parts != 1 || lines[0].PctMutualisation != 100 {
			t.Errorf("班次 %s 应只剩一条维护行: %+v", v.ShiftID, lines)
		}
	}

	list, err := env.svc.Maintenance.List(ctx, 2026)
	if err != nil || len(list) != 2 {
		t.Fatalf("期望 2 条维护记录，实际 %d (%v)", len(list), err)
	}

	res, err := env.svc.Maintenance.Cancel(ctx, sh.ShiftID)
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("Cancel 失败: %v %+v", err, res)
	}
	if n := len(env.st.linesOf(sh.ShiftID)); n != 0 {
		t.Errorf("取消后班次应为空，实际 %d 行", n)
	}
	if list, _ := env.svc.Maintenance.List(ctx, 2026); len(list) != 1 {
		t.Errorf("取消后应剩 1 条维护记录，实际 %d", len(list))
	}
}

func TestMaintenance_ScheduleValidation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.st.addMachine("m1", "IRM 1", "")

	cases := []struct {
		name string
		req  dto.ScheduleMaintenanceRequest
		want error
	}{
		{"日期格式错误", dto.ScheduleMaintenanceRequest{Date: "05/01/2026", MachineID: "m1", Slots: []string{"matin"}}, ErrInvalidDate},
		{"设备不存在", dto.ScheduleMaintenanceRequest{Date: "2026-01-05", MachineID: "m9", Slots: []string{"matin"}}, ErrMachineNotFound},
		{"未知时段", dto.ScheduleMaintenanceRequest{Date: "2026-01-05", MachineID: "m1", Slots: []string{"matin", "nuit"}}, ErrInvalidSlot},
		{"周六晚上", dto.ScheduleMaintenanceRequest{Date: "2026-01-10", MachineID: "m1", Slots: []string{"soir"}}, ErrSlotNotScheduled},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := c.req
			if _, err := env.svc.Maintenance.Schedule(ctx, &req); !errors.Is(err, c.want) {
				t.Errorf("期望 %v，实际 %v", c.want, err)
			}
		})
	}
	if env.st.shiftCreates != 0 {
		t.Errorf("校验失败时不应创建班次，实际创建 %d 个", env.st.shiftCreates)
	}
}

func TestMaintenance_ScheduleFailureKeepsLines(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("d1", "AAA")
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("d1"))
	env.st.fail["allocation.replace"] = errors.New("deadlock")

	_, err := env.svc.Maintenance.Schedule(ctx, &dto.ScheduleMaintenanceRequest{
		Date:      "2026-01-05",
		MachineID: "m1",
		Slots:     []string{"Matin"},
	})
	if !apperrors.IsPersistence(err) {
		t.Fatalf("期望 PersistenceError，实际 %v", err)
	}
	lines := env.st.linesOf(sh.ShiftID)
	if len(lines) != 1 || lines[0].Maintenance {
		t.Errorf("替换失败时原分配应保持不变: %+v", lines)
	}
}

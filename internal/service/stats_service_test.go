package service

import (
	"context"
	"errors"
	"testing"

	"planning-imset/internal/model"
	apperrors "planning-imset/pkg/errors"
)

func TestClosures_OnlyValidatedWeeks(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.st.addMachine("m1", "IRM 1", "A")
	env.st.addMachine("m2", "Scanner", "A")
	env.st.addDoctor("d1", "AAA")
	env.st.addDoctor("d2", "BBB")

	soir := func(d int, machine string) string {
		sh, err := env.svc.Roster.ResolveShift(ctx, day(d), "Soir", machine, "")
		if err != nil {
			t.Fatalf("ResolveShift 失败: %v", err)
		}
		return sh.ShiftID
	}

	// 第 2 周：周一两台设备各一次（同日只计一次），周二 différé
	_, _ = env.svc.Ledger.Allocate(ctx, soir(5, "m1"), model.DoctorOccupant("d1"))
	_, _ = env.svc.Ledger.Allocate(ctx, soir(5, "m2"), model.DoctorOccupant("d1"))
	tue := soir(6, "m1")
	_, _ = env.svc.Ledger.Allocate(ctx, tue, model.DoctorOccupant("d1"))
	_, _ = env.svc.Ledger.ToggleModifier(ctx, tue, model.DoctorOccupant("d1"), model.ModifierEnDiffere)
	// matin 不计入
	sh := env.newShift(t)
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("d2"))
	// 第 3 周未验证
	_, _ = env.svc.Ledger.Allocate(ctx, soir(12, "m1"), model.DoctorOccupant("d2"))

	if _, err := env.svc.Week.SetValidation(ctx, 2026, 2, true); err != nil {
		t.Fatalf("SetValidation 失败: %v", err)
	}

	resp, err := env.svc.Stats.Closures(ctx, 2026)
	if err != nil {
		t.Fatalf("Closures 失败: %v", err)
	}
	if len(resp.ValidatedWeeks) != 1 || resp.ValidatedWeeks[0] != 2 {
		t.Errorf("已验证周错误: %v", resp.ValidatedWeeks)
	}
	if len(resp.Doctors) != 2 || resp.Doctors[0].Initials != "AAA" {
		t.Fatalf("医生列表错误: %+v", resp.Doctors)
	}

	a := resp.Doctors[0]
	if a.Total != 2 || a.TotalNormal != 1 || a.TotalDiffere != 1 {
		t.Errorf("AAA 统计错误: %+v", a)
	}
	if a.Days[0].Day != "Lundi" || a.Days[0].Normal != 1 || a.Days[1].Differe != 1 {
		t.Errorf("AAA 按日统计错误: %+v", a.Days)
	}
	if b := resp.Doctors[1]; b.Total != 0 {
		t.Errorf("BBB 不应有统计（matin 与未验证周不计），实际 %+v", b)
	}
}

func TestClosures_NoValidatedWeeks(t *testing.T) {
	env := newTestEnv(nil)
	env.st.addDoctor("d1", "AAA")

	resp, err := env.svc.Stats.Closures(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Closures 失败: %v", err)
	}
	if len(resp.ValidatedWeeks) != 0 || len(resp.Doctors) != 1 || resp.Doctors[0].Total != 0 {
		t.Errorf("期望全零统计，实际 %+v", resp)
	}
	if len(resp.Doctors[0].Days) != 5 {
		t.Errorf("应覆盖周一至周五，实际 %d 天", len(resp.Doctors[0].Days))
	}
}

func TestHours_WeightedByPctAndException(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.st.addMachine("m1", "IRM 1", "A")
	env.st.addDoctor("d1", "AAA")
	env.st.addDoctor("d2", "BBB")
	env.st.addDoctor("d3", "CCC")

	resolve := func(d int, slot string) string {
		sh, err := env.svc.Roster.ResolveShift(ctx, day(d), slot, "m1", "")
		if err != nil {
			t.Fatalf("ResolveShift 失败: %v", err)
		}
		return sh.ShiftID
	}

	// 第 2 周：周一 matin AAA/BBB 各 50%（5h → 2.5h），周二 soir AAA 独占（4h）
	matin := resolve(5, "Matin")
	_, _ = env.svc.Ledger.Allocate(ctx, matin, model.DoctorOccupant("d1"))
	_, _ = env.svc.Ledger.Allocate(ctx, matin, model.DoctorOccupant("d2"))
	_, _ = env.svc.Ledger.Allocate(ctx, resolve(6, "Soir"), model.DoctorOccupant("d1"))
	// 周三 après-midi BBB 登记了 3h 例外工时
	apm := resolve(7, "Apres-midi")
	_, _ = env.svc.Ledger.Allocate(ctx, apm, model.DoctorOccupant("d2"))
	exception := 3.0
	if _, err := env.svc.Ledger.SetExceptionHoraire(ctx, apm, model.DoctorOccupant("d2"), &exception); err != nil {
		t.Fatalf("SetExceptionHoraire 失败: %v", err)
	}
	// 第 4 周已验证但无排班；第 3 周未验证
	_, _ = env.svc.Ledger.Allocate(ctx, resolve(12, "Matin"), model.DoctorOccupant("d1"))

	for _, w := range []int{2, 4} {
		if _, err := env.svc.Week.SetValidation(ctx, 2026, w, true); err != nil {
			t.Fatalf("SetValidation 失败: %v", err)
		}
	}

	resp, err := env.svc.Stats.Hours(ctx, 2026)
	if err != nil {
		t.Fatalf("Hours 失败: %v", err)
	}
	if len(resp.ValidatedWeeks) != 2 || resp.ValidatedWeeks[0] != 2 || resp.ValidatedWeeks[1] != 4 {
		t.Fatalf("已验证周错误: %v", resp.ValidatedWeeks)
	}
	if len(resp.Doctors) != 3 || resp.Doctors[0].Initials != "AAA" || resp.Doctors[2].Initials != "CCC" {
		t.Fatalf("医生列表错误: %+v", resp.Doctors)
	}

	a := resp.Doctors[0]
	if a.Total != 6.5 || len(a.Weeks) != 2 || a.Weeks[0].Hours != 6.5 || a.Weeks[1].Hours != 0 {
		t.Errorf("期望 AAA 第 2 周 6.5h、第 4 周 0h，实际 %+v", a)
	}
	if b := resp.Doctors[1]; b.Total != 5.5 {
		t.Errorf("期望 BBB 2.5h + 例外 3h = 5.5h，实际 %+v", b)
	}
	if c := resp.Doctors[2]; c.Total != 0 || len(c.Weeks) != 2 {
		t.Errorf("期望 CCC 全零且覆盖所有已验证周，实际 %+v", c)
	}
}

func TestHours_PropagatesRepositoryError(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	env.st.addDoctor("d1", "AAA")
	if _, err := env.svc.Week.SetValidation(ctx, 2026, 2, true); err != nil {
		t.Fatalf("SetValidation 失败: %v", err)
	}
	env.st.fail["allocation.list_doctor"] = errors.New("db down")

	if _, err := env.svc.Stats.Hours(ctx, 2026); !apperrors.IsPersistence(err) {
		t.Errorf("存储失败应返回 PersistenceError，实际 %v", err)
	}
}

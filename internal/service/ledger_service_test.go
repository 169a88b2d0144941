package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"planning-imset/internal/model"
	apperrors "planning-imset/pkg/errors"
)

func TestLedger_AllocateScenario(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")
	env.st.addDoctor("docB", "BBB")

	res, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("第一次 allocate 应成功: %v / %+v", err, res)
	}
	if len(res.Lines) != 1 || res.Lines[0].Parts != 1 || res.Lines[0].PctMutualisation != 100 {
		t.Fatalf("期望 {docA, parts=1, pct=100}，实际 %+v", res.Lines)
	}

	res, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if len(res.Lines) != 1 || res.Lines[0].Parts != 2 || res.Lines[0].PctMutualisation != 100 {
		t.Fatalf("期望 {docA, parts=2, pct=100}，实际 %+v", res.Lines)
	}
	if res.Lines[0].Mutualise {
		t.Error("单行不应 mutualise")
	}

	res, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docB"))
	if len(res.Lines) != 2 {
		t.Fatalf("期望 2 行，实际 %d", len(res.Lines))
	}
	a := res.Lines[model.FindLine(res.Lines, model.DoctorOccupant("docA"))]
	b := res.Lines[model.FindLine(res.Lines, model.DoctorOccupant("docB"))]
	if math.Abs(a.PctMutualisation-66.67) > 0.01 || math.Abs(b.PctMutualisation-33.33) > 0.01 {
		t.Errorf("期望 66.67 / 33.33，实际 %v / %v", a.PctMutualisation, b.PctMutualisation)
	}
	if !a.Mutualise || !b.Mutualise {
		t.Error("两行时 mutualise 应为 true")
	}

	// 存储中的派生字段与返回一致
	stored := env.st.linesOf(sh.ShiftID)
	if math.Abs(totalPct(stored)-100) > 1e-9 {
		t.Errorf("存储的百分比合计应为 100，实际 %v", totalPct(stored))
	}
}

func TestLedger_CapacityFifthOccupantRejected(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	for _, id := range []string{"d1", "d2", "d3"} {
		env.st.addDoctor(id, id)
		if res, _ := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant(id)); res.Outcome != model.OutcomeApplied {
			t.Fatalf("allocate %s 应成功", id)
		}
	}
	if res, _ := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.MaintenanceOccupant()); res.Outcome != model.OutcomeApplied {
		t.Fatal("第 4 个占用者应成功")
	}

	env.st.addDoctor("d5", "d5")
	res, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("d5"))
	if err != nil {
		t.Fatalf("容量拒绝不应返回 error: %v", err)
	}
	if res.Outcome != model.OutcomeCapacityExceeded {
		t.Errorf("期望 capacity_exceeded，实际 %s", res.Outcome)
	}

	lines := env.st.linesOf(sh.ShiftID)
	if len(lines) != 4 || model.TotalParts(lines) != 4 {
		t.Errorf("账本应保持 4 行 / 4 份，实际 %d 行 / %d 份", len(lines), model.TotalParts(lines))
	}
}

func TestLedger_CapacityInvariantUnderRepeatedAllocate(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("d1", "D1")
	env.st.addDoctor("d2", "D2")

	occupants := []model.Occupant{
		model.DoctorOccupant("d1"), model.DoctorOccupant("d2"), model.NoDoctorOccupant(),
		model.DoctorOccupant("d1"), model.MaintenanceOccupant(), model.DoctorOccupant("d2"),
		model.DoctorOccupant("d1"), model.DoctorOccupant("d1"),
	}
	for _, o := range occupants {
		if _, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, o); err != nil {
			t.Fatalf("allocate 失败: %v", err)
		}
		lines := env.st.linesOf(sh.ShiftID)
		if model.TotalParts(lines) > model.MaxParts {
			t.Fatalf("份额合计超过上限: %d", model.TotalParts(lines))
		}
		if len(lines) > model.MaxParts {
			t.Fatalf("占用者数量超过上限: %d", len(lines))
		}
		if math.Abs(totalPct(lines)-100) > 1e-9 {
			t.Fatalf("百分比合计应为 100，实际 %v", totalPct(lines))
		}
	}
}

func TestLedger_DecreaseToZeroDeletes(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")

	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	res, err := env.svc.Ledger.Decrease(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("decrease 应成功: %v / %+v", err, res)
	}
	if n := len(env.st.linesOf(sh.ShiftID)); n != 0 {
		t.Errorf("期望 0 行，实际 %d", n)
	}
	if len(res.Lines) != 0 {
		t.Errorf("返回的行应为空，实际 %+v", res.Lines)
	}
}

func TestLedger_DecreaseDecrementsAndRecomputes(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")

	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())

	res, _ := env.svc.Ledger.Decrease(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	a := res.Lines[model.FindLine(res.Lines, model.DoctorOccupant("docA"))]
	if a.Parts != 1 || a.PctMutualisation != 50 {
		t.Errorf("期望 docA parts=1 pct=50，实际 %+v", a)
	}
}

func TestLedger_DecreaseAbsentIsNoop(t *testing.T) {
	env := newTestEnv(nil)
	sh := env.newShift(t)

	res, err := env.svc.Ledger.Decrease(context.Background(), sh.ShiftID, model.MaintenanceOccupant())
	if err != nil {
		t.Fatalf("不存在的行不应报错: %v", err)
	}
	if res.Outcome != model.OutcomeNotFound {
		t.Errorf("期望 not_found，实际 %s", res.Outcome)
	}
}

func TestLedger_RemoveIgnoresParts(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")

	for i := 0; i < 3; i++ {
		_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	}
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.MaintenanceOccupant())

	res, err := env.svc.Ledger.Remove(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("remove 应成功: %v", err)
	}
	if len(res.Lines) != 1 || !res.Lines[0].Maintenance || res.Lines[0].PctMutualisation != 100 {
		t.Errorf("期望只剩维护行且 pct=100，实际 %+v", res.Lines)
	}
	if res.Lines[0].Mutualise {
		t.Error("只剩一行时 mutualise 应为 false")
	}
}

func TestLedger_IncreaseRequiresExistingLine(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")

	res, _ := env.svc.Ledger.Increase(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if res.Outcome != model.OutcomeNotFound {
		t.Errorf("期望 not_found，实际 %s", res.Outcome)
	}

	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	res, _ = env.svc.Ledger.Increase(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if res.Outcome != model.OutcomeApplied || res.Lines[0].Parts != 2 {
		t.Errorf("期望 parts=2，实际 %+v", res)
	}
}

func TestLedger_ToggleModifierMutualExclusion(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")
	doc := model.DoctorOccupant("docA")
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, doc)

	_, _ = env.svc.Ledger.ToggleModifier(ctx, sh.ShiftID, doc, model.ModifierEnDiffere)
	res, err := env.svc.Ledger.ToggleModifier(ctx, sh.ShiftID, doc, model.ModifierTeleradiologie)
	if err != nil {
		t.Fatalf("toggle 失败: %v", err)
	}
	if !res.Lines[0].Teleradiologie || res.Lines[0].EnDiffere {
		t.Errorf("开启 teleradiologie 后 en_differe 应为 false: %+v", res.Lines[0])
	}

	res, _ = env.svc.Ledger.ToggleModifier(ctx, sh.ShiftID, doc, model.ModifierEnDiffere)
	if res.Lines[0].Teleradiologie || !res.Lines[0].EnDiffere {
		t.Errorf("开启 en_differe 后 teleradiologie 应为 false: %+v", res.Lines[0])
	}

	stored := env.st.linesOf(sh.ShiftID)[0]
	if stored.Teleradiologie || !stored.EnDiffere {
		t.Errorf("存储状态不一致: %+v", stored)
	}
}

func TestLedger_ToggleModifierOnPlaceholderIsNoop(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())

	res, err := env.svc.Ledger.ToggleModifier(ctx, sh.ShiftID, model.NoDoctorOccupant(), model.ModifierTeleradiologie)
	if err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if res.Outcome != model.OutcomeNotFound {
		t.Errorf("期望 not_found，实际 %s", res.Outcome)
	}
	if env.st.linesOf(sh.ShiftID)[0].Teleradiologie {
		t.Error("占位行不应被设置修饰符")
	}

	if _, err := env.svc.Ledger.ToggleModifier(ctx, sh.ShiftID, model.NoDoctorOccupant(), "night"); !errors.Is(err, ErrInvalidModifier) {
		t.Errorf("期望 ErrInvalidModifier，实际 %v", err)
	}
}

func TestLedger_LeaveRejection(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")
	env.st.addConge("docA", day(5))

	res, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.DoctorOccupant("docA"))
	if err != nil {
		t.Fatalf("休假拒绝不应返回 error: %v", err)
	}
	if res.Outcome != model.OutcomeOccupantOnLeave {
		t.Errorf("期望 occupant_on_leave，实际 %s", res.Outcome)
	}
	if n := len(env.st.linesOf(sh.ShiftID)); n != 0 {
		t.Errorf("休假医生不应产生分配行，实际 %d 行", n)
	}

	// 其它日期不受影响
	env.st.addMachine("m2", "Scanner", "Site B")
	other, _ := env.svc.Roster.ResolveShift(ctx, day(6), "matin", "m2", "")
	if res, _ := env.svc.Ledger.Allocate(ctx, other.ShiftID, model.DoctorOccupant("docA")); res.Outcome != model.OutcomeApplied {
		t.Errorf("非休假日期应成功，实际 %s", res.Outcome)
	}
}

func TestLedger_UnknownDoctor(t *testing.T) {
	env := newTestEnv(nil)
	sh := env.newShift(t)

	_, err := env.svc.Ledger.Allocate(context.Background(), sh.ShiftID, model.DoctorOccupant("ghost"))
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("期望 ErrDoctorNotFound，实际 %v", err)
	}
}

func TestLedger_DuplicatesHealedOnNextMutation(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")

	// 模拟并发写入产生的重复行
	docA := "docA"
	env.st.lines = append(env.st.lines,
		model.AllocationLine{AssignmentID: "dup-1", ShiftID: sh.ShiftID, DoctorID: &docA, Parts: 1},
		model.AllocationLine{AssignmentID: "dup-2", ShiftID: sh.ShiftID, DoctorID: &docA, Parts: 2},
	)

	res, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("allocate 应成功: %v", err)
	}

	stored := env.st.linesOf(sh.ShiftID)
	if len(stored) != 2 {
		t.Fatalf("期望去重后 2 行，实际 %d", len(stored))
	}
	a := stored[model.FindLine(stored, model.DoctorOccupant("docA"))]
	if a.AssignmentID != "dup-2" || a.Parts != 2 {
		t.Errorf("应保留 parts 最大的 dup-2，实际 %+v", a)
	}
	if math.Abs(a.PctMutualisation-66.6667) > 0.01 {
		t.Errorf("期望 66.67，实际 %v", a.PctMutualisation)
	}
}

func TestLedger_ErrorsPropagate(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)

	if _, err := env.svc.Ledger.Allocate(ctx, "missing", model.NoDoctorOccupant()); !errors.Is(err, ErrShiftNotFound) {
		t.Errorf("期望 ErrShiftNotFound，实际 %v", err)
	}
	if _, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.Occupant{Kind: "robot"}); !errors.Is(err, ErrInvalidOccupant) {
		t.Errorf("期望 ErrInvalidOccupant，实际 %v", err)
	}

	env.st.fail["allocation.create"] = errors.New("connection reset")
	_, err := env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())
	if !apperrors.IsPersistence(err) {
		t.Errorf("存储失败应返回 PersistenceError，实际 %v", err)
	}
}

func TestLedger_CustomMaxParts(t *testing.T) {
	repo, st := newMockRepository()
	leave := NewLeaveService(repo, nil, 0, nopLogger())
	ledger := NewLedgerService(repo, leave, 2, nil, nopLogger())
	st.addMachine("m1", "IRM", "")
	week, _ := repo.Week.GetOrCreate(context.Background(), 2026, 2)
	sh, _ := repo.Shift.GetOrCreate(context.Background(), &model.Shift{Date: day(5), ShiftType: model.SlotMatin, MachineID: "m1", WeekID: week.WeekID})

	ctx := context.Background()
	_, _ = ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())
	_, _ = ledger.Allocate(ctx, sh.ShiftID, model.NoDoctorOccupant())
	res, _ := ledger.Allocate(ctx, sh.ShiftID, model.MaintenanceOccupant())
	if res.Outcome != model.OutcomeCapacityExceeded {
		t.Errorf("上限为 2 时第 3 份应被拒绝，实际 %s", res.Outcome)
	}
}

func TestLedger_SetExceptionHoraire(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")
	doc := model.DoctorOccupant("docA")
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, doc)

	hours := 6.5
	res, err := env.svc.Ledger.SetExceptionHoraire(ctx, sh.ShiftID, doc, &hours)
	if err != nil || res.Outcome != model.OutcomeApplied {
		t.Fatalf("设置工时应成功: %v / %+v", err, res)
	}
	stored := env.st.linesOf(sh.ShiftID)[0]
	if stored.ExceptionHoraire == nil || *stored.ExceptionHoraire != 6.5 {
		t.Fatalf("期望存储 6.5，实际 %v", stored.ExceptionHoraire)
	}

	// 调用方后续修改不影响已存储的值
	hours = 1
	if *env.st.linesOf(sh.ShiftID)[0].ExceptionHoraire != 6.5 {
		t.Error("存储值不应随入参变化")
	}

	if _, err := env.svc.Ledger.SetExceptionHoraire(ctx, sh.ShiftID, doc, nil); err != nil {
		t.Fatalf("清除工时失败: %v", err)
	}
	if env.st.linesOf(sh.ShiftID)[0].ExceptionHoraire != nil {
		t.Error("nil 应清除 exception_horaire")
	}

	tooMany := 25.0
	if _, err := env.svc.Ledger.SetExceptionHoraire(ctx, sh.ShiftID, doc, &tooMany); !errors.Is(err, ErrInvalidHours) {
		t.Errorf("期望 ErrInvalidHours，实际 %v", err)
	}
}

func TestLedger_SetExceptionHoraireRequiresDoctorLine(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	sh := env.newShift(t)
	env.st.addDoctor("docA", "AAA")
	_, _ = env.svc.Ledger.Allocate(ctx, sh.ShiftID, model.MaintenanceOccupant())
	hours := 3.0

	res, err := env.svc.Ledger.SetExceptionHoraire(ctx, sh.ShiftID, model.MaintenanceOccupant(), &hours)
	if err != nil || res.Outcome != model.OutcomeNotFound {
		t.Errorf("maintenance 行期望 not_found，实际 %v / %+v", err, res)
	}

	res, err = env.svc.Ledger.SetExceptionHoraire(ctx, sh.ShiftID, model.DoctorOccupant("docA"), &hours)
	if err != nil || res.Outcome != model.OutcomeNotFound {
		t.Errorf("未分配的医生期望 not_found，实际 %v / %+v", err, res)
	}
	if env.st.linesOf(sh.ShiftID)[0].ExceptionHoraire != nil {
		t.Error("拒绝时不应写入")
	}
}

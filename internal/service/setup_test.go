package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"planning-imset/config"
	"planning-imset/internal/model"
)

// ── 测试辅助 ──

type testEnv struct {
	st  *memStore
	svc *Service
}

func newTestEnv(cache Cache) *testEnv {
	repo, st := newMockRepository()
	cfg := &config.Config{
		Roster: config.RosterConfig{
			MaxParts: model.MaxParts,
			Timezone: "UTC",
			Slots: config.SlotsConfig{
				Matin:     config.SlotWindow{Start: "08:00", End: "13:00"},
				ApresMidi: config.SlotWindow{Start: "13:00", End: "18:00"},
				Soir:      config.SlotWindow{Start: "18:00", End: "22:00"},
			},
		},
		Redis:  config.RedisConfig{LeaveCacheTTL: time.Minute},
	}
	return &testEnv{st: st, svc: NewService(cfg, repo, cache, nil, zap.NewNop())}
}

// 2026-01-05 为周一（2026-W02）
func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

// newShift 在 M1 上解析 2026-01-05 的 matin 班次
func (e *testEnv) newShift(t *testing.T) *model.Shift {
	t.Helper()
	if _, ok := e.st.machines["m1"]; !ok {
		e.st.addMachine("m1", "IRM 1", "Site A")
	}
	sh, err := e.svc.Roster.ResolveShift(context.Background(), day(5), "Matin", "m1", "")
	if err != nil {
		t.Fatalf("ResolveShift 失败: %v", err)
	}
	return sh
}

func totalPct(lines []model.AllocationLine) float64 {
	sum := 0.0
	for _, l := range lines {
		sum += l.PctMutualisation
	}
	return sum
}

func nopLogger() *zap.Logger { return zap.NewNop() }

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"planning-imset/internal/model"
	"planning-imset/internal/repository"
	"planning-imset/pkg/isoweek"
)

// ── 内存存储（所有 mock repo 共享，便于模拟 join）──

type memStore struct {
	seq       int
	weeks     map[string]*model.Week
	shifts    map[string]*model.Shift
	lines     []model.AllocationLine
	doctors   map[string]*model.Doctor
	machines  map[string]*model.Machine
	conges    []model.Conge
	templates map[string]*model.TypicalWeekAssignment

	shiftCreates int
	fail         map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		weeks:     make(map[string]*model.Week),
		shifts:    make(map[string]*model.Shift),
		doctors:   make(map[string]*model.Doctor),
		machines:  make(map[string]*model.Machine),
		templates: make(map[string]*model.TypicalWeekAssignment),
		fail:      make(map[string]error),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) err(op string) error {
	return m.fail[op]
}

func newMockRepository() (*repository.Repository, *memStore) {
	st := newMemStore()
	return &repository.Repository{
		Week:        &mockWeekRepo{st},
		Shift:       &mockShiftRepo{st},
		Allocation:  &mockAllocationRepo{st},
		Doctor:      &mockDoctorRepo{st},
		Machine:     &mockMachineRepo{st},
		Leave:       &mockLeaveRepo{st},
		TypicalWeek: &mockTypicalWeekRepo{st},
	}, st
}

// ── 测试数据辅助 ──

func (m *memStore) addMachine(id, name, site string) *model.Machine {
	mc := &model.Machine{MachineID: id, Name: name, Site: site, IsActive: true}
	m.machines[id] = mc
	return mc
}

func (m *memStore) addDoctor(id, initials string) *model.Doctor {
	d := &model.Doctor{DoctorID: id, FirstName: "Dr", LastName: initials, Initials: initials, Type: "associé", IsActive: true}
	m.doctors[id] = d
	return d
}

func (m *memStore) addConge(doctorID string, date time.Time) {
	m.conges = append(m.conges, model.Conge{CongeID: m.nextID("conge"), DoctorID: doctorID, Date: dateOnly(date), IsConge: true})
}

func (m *memStore) linesOf(shiftID string) []model.AllocationLine {
	var out []model.AllocationLine
	for _, l := range m.lines {
		if l.ShiftID == shiftID {
			out = append(out, l)
		}
	}
	return out
}

// ── Mock WeekRepository ──

type mockWeekRepo struct{ st *memStore }

func (r *mockWeekRepo) find(year, week int) *model.Week {
	for _, w := range r.st.weeks {
		if w.Year == year && w.WeekNumber == week {
			return w
		}
	}
	return nil
}

func (r *mockWeekRepo) GetOrCreate(_ context.Context, year, week int) (*model.Week, error) {
	if err := r.st.err("week.get_or_create"); err != nil {
		return nil, err
	}
	if w := r.find(year, week); w != nil {
		return w, nil
	}
	w := &model.Week{WeekID: r.st.nextID("week"), Year: year, WeekNumber: week}
	r.st.weeks[w.WeekID] = w
	return w, nil
}

func (r *mockWeekRepo) GetByYearWeek(_ context.Context, year, week int) (*model.Week, error) {
	if w := r.find(year, week); w != nil {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockWeekRepo) GetByID(_ context.Context, id string) (*model.Week, error) {
	if w, ok := r.st.weeks[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockWeekRepo) UpsertValidation(ctx context.Context, year, week int, validated bool) (*model.Week, error) {
	w, _ := r.GetOrCreate(ctx, year, week)
	w.IsValidated = validated
	w.Version++
	return w, nil
}

func (r *mockWeekRepo) ListValidated(_ context.Context, year int) ([]int, error) {
	var out []int
	for _, w := range r.st.weeks {
		if w.Year == year && w.IsValidated {
			out = append(out, w.WeekNumber)
		}
	}
	sort.Ints(out)
	return out, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ st *memStore }

func (r *mockShiftRepo) GetOrCreate(_ context.Context, shift *model.Shift) (*model.Shift, error) {
	if err := r.st.err("shift.get_or_create"); err != nil {
		return nil, err
	}
	key := shift.Date.Format(isoweek.DateLayout)
	for _, s := range r.st.shifts {
		if s.Date.Format(isoweek.DateLayout) == key && s.ShiftType == shift.ShiftType && s.MachineID == shift.MachineID {
			return s, nil
		}
	}
	created := &model.Shift{
		ShiftID:   r.st.nextID("shift"),
		Date:      shift.Date,
		ShiftType: shift.ShiftType,
		MachineID: shift.MachineID,
		WeekID:    shift.WeekID,
	}
	r.st.shifts[created.ShiftID] = created
	r.st.shiftCreates++
	return created, nil
}

func (r *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := r.st.shifts[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockShiftRepo) ListByWeek(_ context.Context, weekID string) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range r.st.shifts {
		if s.WeekID == weekID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ── Mock AllocationRepository ──

type mockAllocationRepo struct{ st *memStore }

func (r *mockAllocationRepo) ListByShift(_ context.Context, shiftID string) ([]model.AllocationLine, error) {
	if err := r.st.err("allocation.list"); err != nil {
		return nil, err
	}
	return r.st.linesOf(shiftID), nil
}

func (r *mockAllocationRepo) ListByShifts(_ context.Context, shiftIDs []string) ([]model.AllocationLine, error) {
	want := make(map[string]bool, len(shiftIDs))
	for _, id := range shiftIDs {
		want[id] = true
	}
	var out []model.AllocationLine
	for _, l := range r.st.lines {
		if want[l.ShiftID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *mockAllocationRepo) Create(_ context.Context, line *model.AllocationLine) error {
	if err := r.st.err("allocation.create"); err != nil {
		return err
	}
	if line.AssignmentID == "" {
		line.AssignmentID = r.st.nextID("line")
	}
	r.st.lines = append(r.st.lines, *line)
	return nil
}

func (r *mockAllocationRepo) Update(_ context.Context, line *model.AllocationLine) error {
	if err := r.st.err("allocation.update"); err != nil {
		return err
	}
	for i := range r.st.lines {
		if r.st.lines[i].AssignmentID == line.AssignmentID {
			r.st.lines[i].Parts = line.Parts
			r.st.lines[i].Teleradiologie = line.Teleradiologie
			r.st.lines[i].EnDiffere = line.EnDiffere
			r.st.lines[i].LectureDifferee = line.LectureDifferee
			r.st.lines[i].ExceptionHoraire = line.ExceptionHoraire
			return nil
		}
	}
	return nil
}

func (r *mockAllocationRepo) DeleteByOccupant(_ context.Context, shiftID string, o model.Occupant) (int64, error) {
	var n int64
	kept := r.st.lines[:0]
	for _, l := range r.st.lines {
		if l.ShiftID == shiftID && l.Matches(o) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.st.lines = kept
	return n, nil
}

func (r *mockAllocationRepo) ReplaceShift(_ context.Context, shiftID string, line *model.AllocationLine) error {
	if err := r.st.err("allocation.replace"); err != nil {
		return err
	}
	kept := r.st.lines[:0]
	for _, l := range r.st.lines {
		if l.ShiftID != shiftID {
			kept = append(kept, l)
		}
	}
	line.AssignmentID = r.st.nextID("line")
	line.ShiftID = shiftID
	line.PctMutualisation = 100
	line.Mutualise = false
	r.st.lines = append(kept, *line)
	return nil
}

func (r *mockAllocationRepo) Normalize(_ context.Context, shiftID string) ([]model.AllocationLine, []string, error) {
	if err := r.st.err("allocation.normalize"); err != nil {
		return nil, nil, err
	}
	kept, dups := model.NormalizeAllocations(r.st.linesOf(shiftID))

	drop := make(map[string]bool, len(dups))
	for _, id := range dups {
		drop[id] = true
	}
	byID := make(map[string]model.AllocationLine, len(kept))
	for _, l := range kept {
		byID[l.AssignmentID] = l
	}

	out := r.st.lines[:0]
	for _, l := range r.st.lines {
		if drop[l.AssignmentID] {
			continue
		}
		if k, ok := byID[l.AssignmentID]; ok {
			l = k
		}
		out = append(out, l)
	}
	r.st.lines = out
	return kept, dups, nil
}

func inRange(d, from, to time.Time) bool {
	k := d.Format(isoweek.DateLayout)
	return k >= from.Format(isoweek.DateLayout) && k <= to.Format(isoweek.DateLayout)
}

func (r *mockAllocationRepo) withShift(l model.AllocationLine) model.AllocationLine {
	if s, ok := r.st.shifts[l.ShiftID]; ok {
		sh := *s
		if mc, ok := r.st.machines[sh.MachineID]; ok {
			sh.Machine = mc
		}
		l.Shift = &sh
	}
	return l
}

func (r *mockAllocationRepo) ListBySlotInRange(_ context.Context, slot model.SlotType, from, to time.Time) ([]model.AllocationLine, error) {
	var out []model.AllocationLine
	for _, l := range r.st.lines {
		s, ok := r.st.shifts[l.ShiftID]
		if ok && s.ShiftType == slot && inRange(s.Date, from, to) {
			out = append(out, r.withShift(l))
		}
	}
	return out, nil
}

func (r *mockAllocationRepo) ListMaintenancesInRange(_ context.Context, from, to time.Time) ([]model.AllocationLine, error) {
	var out []model.AllocationLine
	for _, l := range r.st.lines {
		s, ok := r.st.shifts[l.ShiftID]
		if ok && l.Maintenance && inRange(s.Date, from, to) {
			out = append(out, r.withShift(l))
		}
	}
	return out, nil
}

func (r *mockAllocationRepo) ListDoctorLinesInRange(_ context.Context, from, to time.Time, doctorID string) ([]model.AllocationLine, error) {
	if err := r.st.err("allocation.list_doctor"); err != nil {
		return nil, err
	}
	var out []model.AllocationLine
	for _, l := range r.st.lines {
		s, ok := r.st.shifts[l.ShiftID]
		if !ok || l.DoctorID == nil || !inRange(s.Date, from, to) {
			continue
		}
		if doctorID != "" && *l.DoctorID != doctorID {
			continue
		}
		out = append(out, r.withShift(l))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Shift.Date.Before(out[j].Shift.Date) })
	return out, nil
}

func (r *mockAllocationRepo) DeleteNoDoctorInRange(_ context.Context, from, to time.Time, _ int) ([]string, error) {
	var shiftIDs []string
	seen := make(map[string]bool)
	kept := r.st.lines[:0]
	for _, l := range r.st.lines {
		s, ok := r.st.shifts[l.ShiftID]
		if ok && l.NoDoctor && inRange(s.Date, from, to) {
			if !seen[l.ShiftID] {
				seen[l.ShiftID] = true
				shiftIDs = append(shiftIDs, l.ShiftID)
			}
			continue
		}
		kept = append(kept, l)
	}
	r.st.lines = kept
	return shiftIDs, nil
}

// ── Mock DoctorRepository / MachineRepository / LeaveRepository ──

type mockDoctorRepo struct{ st *memStore }

func (r *mockDoctorRepo) GetByID(_ context.Context, id string) (*model.Doctor, error) {
	if d, ok := r.st.doctors[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockDoctorRepo) ListActive(_ context.Context) ([]model.Doctor, error) {
	var out []model.Doctor
	for _, d := range r.st.doctors {
		if d.IsActive {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

type mockMachineRepo struct{ st *memStore }

func (r *mockMachineRepo) GetByID(_ context.Context, id string) (*model.Machine, error) {
	if m, ok := r.st.machines[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockMachineRepo) ListActive(_ context.Context) ([]model.Machine, error) {
	var out []model.Machine
	for _, m := range r.st.machines {
		if m.IsActive {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Site != out[j].Site {
			return out[i].Site < out[j].Site
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *mockMachineRepo) ListByIDs(_ context.Context, ids []string) ([]model.Machine, error) {
	var out []model.Machine
	seen := make(map[string]bool)
	for _, id := range ids {
		if m, ok := r.st.machines[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *m)
		}
	}
	return out, nil
}

type mockLeaveRepo struct{ st *memStore }

func (r *mockLeaveRepo) ListInRange(_ context.Context, from, to time.Time) ([]model.Conge, error) {
	if err := r.st.err("leave.list"); err != nil {
		return nil, err
	}
	var out []model.Conge
	for _, c := range r.st.conges {
		if c.IsConge && inRange(c.Date, from, to) {
			c.Doctor = r.st.doctors[c.DoctorID]
			out = append(out, c)
		}
	}
	return out, nil
}

// ── Mock TypicalWeekRepository ──

type mockTypicalWeekRepo struct{ st *memStore }

func templateKey(a *model.TypicalWeekAssignment) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", a.Year, a.WeekType, a.Day, a.Slot, a.MachineID)
}

func (r *mockTypicalWeekRepo) List(_ context.Context, year int, weekType string) ([]model.TypicalWeekAssignment, error) {
	var out []model.TypicalWeekAssignment
	for _, a := range r.st.templates {
		if a.Year == year && a.WeekType == weekType {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return templateKey(&out[i]) < templateKey(&out[j]) })
	return out, nil
}

func (r *mockTypicalWeekRepo) Find(_ context.Context, key *model.TypicalWeekAssignment) (*model.TypicalWeekAssignment, error) {
	if a, ok := r.st.templates[templateKey(key)]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockTypicalWeekRepo) Create(_ context.Context, a *model.TypicalWeekAssignment) error {
	a.TypicalWeekAssignmentID = r.st.nextID("tw")
	a.NoDoctor = true
	cp := *a
	r.st.templates[templateKey(a)] = &cp
	return nil
}

func (r *mockTypicalWeekRepo) Delete(_ context.Context, id string) error {
	for k, a := range r.st.templates {
		if a.TypicalWeekAssignmentID == id {
			delete(r.st.templates, k)
		}
	}
	return nil
}

func (r *mockTypicalWeekRepo) DeleteAll(_ context.Context, year int, weekType string) (int64, error) {
	var n int64
	for k, a := range r.st.templates {
		if a.Year == year && a.WeekType == weekType {
			delete(r.st.templates, k)
			n++
		}
	}
	return n, nil
}

// ── Mock Cache ──

type mockCache struct {
	data map[string]interface{}
	gets int
	hits int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]interface{})}
}

func (c *mockCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	if p, ok := dst.(*map[string][]string); ok {
		*p = v.(map[string][]string)
	}
	return true, nil
}

func (c *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	c.data[key] = v
	return nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

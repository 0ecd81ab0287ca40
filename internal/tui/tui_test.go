package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/store"
	"github.com/sadopc/stampclock/internal/tracking"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(t *testing.T) (*tracking.Service, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return tracking.NewService(s), s
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// ============================================================
// Timer model
// ============================================================

func TestTimerCheckInOut(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc, 7)
	now := monday
	tm.now = func() time.Time { return now }

	if tm.running() {
		t.Fatal("timer should start checked out")
	}

	r, err := tm.checkInNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !tm.running() {
		t.Fatal("timer should be running after check in")
	}
	if tm.recordID != r.ID || r.ID == 0 {
		t.Fatalf("record id = %d, timer has %d", r.ID, tm.recordID)
	}
	if *r.CheckInMillis != monday.UnixMilli() {
		t.Fatalf("check in = %d, want %d", *r.CheckInMillis, monday.UnixMilli())
	}

	now = monday.Add(90 * time.Minute)
	if got := tm.currentElapsed(); got != 90*time.Minute {
		t.Fatalf("elapsed = %v, want 1h30m", got)
	}

	out, err := tm.checkOutNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Open() {
		t.Fatal("record should be closed")
	}
	if tm.running() {
		t.Fatal("timer should be stopped after check out")
	}
	if tm.currentElapsed() != 0 {
		t.Fatal("elapsed should be 0 when checked out")
	}
}

func TestTimerCheckInTwice(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc, 7)
	tm.now = func() time.Time { return monday }

	if _, err := tm.checkInNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	other := newTimerModel(svc, 7)
	other.now = func() time.Time { return monday.Add(time.Hour) }
	if _, err := other.checkInNow(context.Background()); !errors.Is(err, stamp.ErrAlreadyCheckedIn) {
		t.Fatalf("second check in: %v, want ErrAlreadyCheckedIn", err)
	}
	if other.running() {
		t.Fatal("failed check in should leave the timer stopped")
	}
}

func TestTimerCheckOutWhenCheckedOut(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc, 7)

	if _, err := tm.checkOutNow(context.Background()); !errors.Is(err, stamp.ErrNotCheckedIn) {
		t.Fatalf("check out: %v, want ErrNotCheckedIn", err)
	}
}

func TestTimerSync(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc, 7)
	tm.now = func() time.Time { return monday.Add(time.Hour) }

	open := stamp.New(7, monday.UnixMilli(), 0)
	open.ID = 42
	tm.sync(&open)
	if !tm.running() || tm.recordID != 42 {
		t.Fatal("open record should check the timer in")
	}
	if tm.elapsed != time.Hour {
		t.Fatalf("elapsed = %v, want 1h", tm.elapsed)
	}

	closed := stamp.New(7, monday.UnixMilli(), monday.Add(time.Hour).UnixMilli())
	tm.sync(&closed)
	if tm.running() {
		t.Fatal("closed record should check the timer out")
	}

	tm.sync(&open)
	tm.sync(nil)
	if tm.running() {
		t.Fatal("nil record should check the timer out")
	}
}

func TestTimerTick(t *testing.T) {
	svc, _ := newTestService(t)
	tm := newTimerModel(svc, 7)
	now := monday
	tm.now = func() time.Time { return now }

	tm.tick()
	if tm.elapsed != 0 {
		t.Fatal("tick when checked out should not change elapsed")
	}

	open := stamp.New(7, monday.UnixMilli(), 0)
	tm.sync(&open)
	now = monday.Add(5 * time.Second)
	tm.tick()
	if tm.elapsed != 5*time.Second {
		t.Fatalf("elapsed = %v, want 5s", tm.elapsed)
	}
}

func TestTimerBreaks(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		elapsed  time.Duration
		breakDue time.Duration
		next     time.Duration
		hasNext  bool
	}{
		{2 * time.Hour, 0, 4 * time.Hour, true},
		{6 * time.Hour, 30 * time.Minute, 3 * time.Hour, true},
		{7 * time.Hour, 30 * time.Minute, 2 * time.Hour, true},
		{9 * time.Hour, 45 * time.Minute, 0, false},
		{12 * time.Hour, 45 * time.Minute, 0, false},
	}
	for _, tt := range tests {
		tm := newTimerModel(svc, 7)
		tm.now = func() time.Time { return monday.Add(tt.elapsed) }
		open := stamp.New(7, monday.UnixMilli(), 0)
		tm.sync(&open)

		if got := tm.breakDue(); got != tt.breakDue {
			t.Errorf("breakDue after %v = %v, want %v", tt.elapsed, got, tt.breakDue)
		}
		next, ok := tm.nextBreakIn()
		if ok != tt.hasNext || next != tt.next {
			t.Errorf("nextBreakIn after %v = %v, %v; want %v, %v", tt.elapsed, next, ok, tt.next, tt.hasNext)
		}
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{11*time.Hour + 15*time.Minute, "11:15:00"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.0h"},
		{time.Hour, "1.0h"},
		{90 * time.Minute, "1.5h"},
		{11*time.Hour + 30*time.Minute, "11.5h"},
	}
	for _, tt := range tests {
		got := formatHours(tt.d)
		if got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseFormatMillis(t *testing.T) {
	ms, err := parseMillis("2026-03-02 08:00")
	if err != nil {
		t.Fatal(err)
	}
	if ms != monday.UnixMilli() {
		t.Fatalf("parseMillis = %d, want %d", ms, monday.UnixMilli())
	}
	if got := formatMillis(ms); got != "2026-03-02 08:00" {
		t.Fatalf("formatMillis = %q", got)
	}

	for _, bad := range []string{"", "2026-03-02", "08:00", "yesterday"} {
		if _, err := parseMillis(bad); err == nil {
			t.Errorf("parseMillis(%q) should fail", bad)
		}
	}
}

func TestDayStart(t *testing.T) {
	got := dayStart(monday.Add(15 * time.Hour))
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("dayStart = %v, want %v", got, want)
	}
}

func TestRecordRow(t *testing.T) {
	closed := stamp.New(7, monday.UnixMilli(), monday.Add(12*time.Hour).UnixMilli())
	row := recordRow(closed)
	if !strings.Contains(row, "12:00:00") || !strings.Contains(row, "11:15:00") {
		t.Fatalf("closed row %q should show 12:00:00 in and 11:15:00 worked", row)
	}

	open := stamp.New(7, monday.UnixMilli(), 0)
	if row := recordRow(open); !strings.Contains(row, "open") {
		t.Fatalf("open row %q should say open", row)
	}
}

func TestViewStateConstants(t *testing.T) {
	if len(viewNames) != int(viewSettings)+1 {
		t.Fatalf("viewNames has %d entries, want %d", len(viewNames), viewSettings+1)
	}
}

// ============================================================
// Dashboard
// ============================================================

func TestDashboardLoad(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	start := dayStart(time.Now()).UnixMilli()
	if _, err := svc.CheckIn(ctx, 7, start); err != nil {
		t.Fatal(err)
	}

	d := newDashboardModel(svc, 7)
	msg := d.loadData()()
	data, ok := msg.(dashboardDataMsg)
	if !ok {
		t.Fatalf("loadData returned %T", msg)
	}
	d, _ = d.update(data)

	if len(d.recent) != 1 {
		t.Fatalf("recent = %d, want 1", len(d.recent))
	}
	if !d.isRunning() {
		t.Fatal("open record should start the timer")
	}
	if d.today.Open != 1 {
		t.Fatalf("today open = %d, want 1", d.today.Open)
	}
}

func TestDashboardIgnoresOtherUser(t *testing.T) {
	svc, _ := newTestService(t)
	d := newDashboardModel(svc, 7)
	msg := d.loadData()()

	d.setUser(8)
	d, _ = d.update(msg)
	if d.userID != 8 || d.isRunning() {
		t.Fatal("data for a previous user should be dropped")
	}
}

func TestDashboardCheckInOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := newDashboardModel(svc, 7)

	d, cmd := d.update(keyPress('s'))
	if cmd == nil {
		t.Fatal("check in should return a command")
	}
	if !d.isRunning() {
		t.Fatal("dashboard should be checked in")
	}
	in, err := svc.IsCheckedIn(ctx, 7)
	if err != nil || !in {
		t.Fatalf("service should report checked in: %v %v", in, err)
	}

	// s again reports an error without touching the store.
	_, cmd = d.update(keyPress('s'))
	if msg, ok := cmd().(statusMsg); !ok || !msg.isError {
		t.Fatalf("second check in should report an error, got %#v", msg)
	}

	d, _ = d.update(keyPress('x'))
	if d.isRunning() {
		t.Fatal("dashboard should be checked out")
	}
	in, _ = svc.IsCheckedIn(ctx, 7)
	if in {
		t.Fatal("service should report checked out")
	}
}

func TestDashboardViewStates(t *testing.T) {
	svc, _ := newTestService(t)
	d := newDashboardModel(svc, 7)
	d.setSize(100, 30)

	if !strings.Contains(d.view(), "CHECKED OUT") {
		t.Fatal("idle dashboard should show checked out")
	}

	d, _ = d.update(keyPress('s'))
	if !strings.Contains(d.view(), "CHECKED IN") {
		t.Fatal("running dashboard should show checked in")
	}

	d.setSize(10, 10)
	if d.view() != "Terminal too small" {
		t.Fatal("narrow dashboard should not render")
	}
}

// ============================================================
// Records
// ============================================================

func TestRecordsSubmitNew(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m := newRecordsModel(svc, 7, 20)

	m.formType = "new"
	*m.formCheckIn = "2026-03-02 08:00"
	*m.formCheckOut = "2026-03-02 20:00"
	if cmd := m.submit(); cmd == nil {
		t.Fatal("submit should return a command")
	}

	page, err := svc.ListByUser(ctx, 7, stamp.PageRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
	worked, err := svc.HoursWorked(ctx, page.Records[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if worked != 11*time.Hour+15*time.Minute {
		t.Fatalf("worked = %v, want 11h15m", worked)
	}
}

func TestRecordsSubmitInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	m := newRecordsModel(svc, 7, 20)

	m.formType = "new"
	*m.formCheckIn = "2026-03-02 20:00"
	*m.formCheckOut = "2026-03-02 08:00"
	msg, ok := m.submit()().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("check out before check in should fail, got %#v", msg)
	}
}

func TestRecordsFormEpochCheckOut(t *testing.T) {
	svc, _ := newTestService(t)
	m := newRecordsModel(svc, 7, 20)

	*m.formCheckIn = "2026-03-02 08:00"
	*m.formCheckOut = "1970-01-01 00:00"
	r, err := m.formRecord()
	if err != nil {
		t.Fatal(err)
	}
	if r.Open() || *r.CheckOutMillis != 0 {
		t.Fatalf("epoch check-out should be kept, got %+v", r)
	}

	m.formType = "new"
	msg, ok := m.submit()().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("epoch check-out before check-in should fail, got %#v", msg)
	}
	if in, _ := svc.IsCheckedIn(context.Background(), 7); in {
		t.Fatal("failed save must not leave the user checked in")
	}
}

func TestRecordsSubmitEditAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r, err := svc.Create(ctx, stamp.New(7, monday.UnixMilli(), monday.Add(4*time.Hour).UnixMilli()))
	if err != nil {
		t.Fatal(err)
	}

	m := newRecordsModel(svc, 7, 20)
	m.formType = "edit"
	m.editingID = r.ID
	*m.formCheckIn = "2026-03-02 08:00"
	*m.formCheckOut = "2026-03-02 15:00"
	m.submit()

	worked, err := svc.HoursWorked(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if worked != 6*time.Hour+30*time.Minute {
		t.Fatalf("worked = %v, want 6h30m", worked)
	}

	m.formType = "delete"
	*m.formConfirm = false
	if cmd := m.submit(); cmd != nil {
		t.Fatal("declined delete should do nothing")
	}
	*m.formConfirm = true
	m.submit()
	if _, err := svc.Get(ctx, r.ID); !errors.Is(err, stamp.ErrNotFound) {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
}

func TestRecordsPaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := range 5 {
		in := monday.AddDate(0, 0, i)
		if _, err := svc.Create(ctx, stamp.New(7, in.UnixMilli(), in.Add(time.Hour).UnixMilli())); err != nil {
			t.Fatal(err)
		}
	}

	m := newRecordsModel(svc, 7, 2)
	m, _ = m.update(m.refresh()())
	if len(m.records) != 2 || m.total != 5 || m.totalPages() != 3 {
		t.Fatalf("records=%d total=%d pages=%d", len(m.records), m.total, m.totalPages())
	}
	// Most recent check-in first.
	if *m.records[0].CheckInMillis != monday.AddDate(0, 0, 4).UnixMilli() {
		t.Fatal("first page should start with the latest check in")
	}

	m, cmd := m.update(tea.KeyMsg{Type: tea.KeyRight})
	if m.page != 1 || cmd == nil {
		t.Fatalf("right should load page 1, at %d", m.page)
	}
	m, _ = m.update(cmd())
	if len(m.records) != 2 {
		t.Fatalf("page 1 has %d records", len(m.records))
	}

	m.page = 2
	if _, cmd := m.update(tea.KeyMsg{Type: tea.KeyRight}); cmd != nil {
		t.Fatal("right on the last page should not load")
	}
}

// ============================================================
// Report
// ============================================================

func TestReportDateRange(t *testing.T) {
	svc, _ := newTestService(t)
	r := newReportModel(svc, 7, 7)

	from, to := r.dateRange()
	if to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("range = %v, want 7 days", to.Sub(from))
	}
	if !to.Equal(dayStart(time.Now()).AddDate(0, 0, 1)) {
		t.Fatalf("range should end after today, ends %v", to)
	}

	r.offset = 1
	from2, to2 := r.dateRange()
	if !to2.Equal(from) || to2.Sub(from2) != 7*24*time.Hour {
		t.Fatal("previous span should end where the current one starts")
	}
}

func TestReportDefaultsDays(t *testing.T) {
	svc, _ := newTestService(t)
	if r := newReportModel(svc, 7, 0); r.days != 7 {
		t.Fatalf("days = %d, want 7", r.days)
	}
}

func TestReportModeToggle(t *testing.T) {
	svc, _ := newTestService(t)
	r := newReportModel(svc, 7, 7)
	r.offset = 2

	r, _ = r.update(keyPress('m'))
	if r.days != 30 || r.offset != 0 {
		t.Fatalf("days=%d offset=%d after toggle", r.days, r.offset)
	}
	r, _ = r.update(keyPress('m'))
	if r.days != 7 {
		t.Fatalf("days = %d, want 7", r.days)
	}
}

func TestReportDailyTotals(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day := dayStart(time.Now())
	if _, err := svc.Create(ctx, stamp.New(7, day.Add(time.Hour).UnixMilli(), day.Add(13*time.Hour).UnixMilli())); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, stamp.New(7, day.Add(14*time.Hour).UnixMilli(), day.Add(16*time.Hour).UnixMilli())); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CheckIn(ctx, 7, day.Add(17*time.Hour).UnixMilli()); err != nil {
		t.Fatal(err)
	}

	r := newReportModel(svc, 7, 7)
	r.setSize(100, 30)
	r, _ = r.update(r.refresh()())

	totals := r.dailyTotals()
	got := totals[day.Format("2006-01-02")]
	if got.worked != 13*time.Hour+15*time.Minute {
		t.Fatalf("worked = %v, want 13h15m", got.worked)
	}
	if got.breakTime != 45*time.Minute {
		t.Fatalf("break = %v, want 45m", got.breakTime)
	}
	if r.report.Open != 1 {
		t.Fatalf("open = %d, want 1", r.report.Open)
	}
	if !strings.Contains(r.view(), "Total") {
		t.Fatal("report view should show totals")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	cur := newSettingsModel(s).current()
	if cur.userID != 0 || cur.pageSize != 20 || cur.reportDays != 7 {
		t.Fatalf("defaults = %+v", cur)
	}
}

func TestSettingsSave(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s)
	*m.userID = "12"
	*m.pageSize = "50"
	*m.reportDays = "30"
	if err := m.saveSettings(); err != nil {
		t.Fatal(err)
	}

	cur := m.current()
	if cur.userID != 12 || cur.pageSize != 50 || cur.reportDays != 30 {
		t.Fatalf("saved = %+v", cur)
	}

	*m.pageSize = "many"
	if err := m.saveSettings(); err == nil {
		t.Fatal("non-numeric page size should fail")
	}
}

func TestSettingsValidation(t *testing.T) {
	if validateUserID("12") != nil || validateUserID("x") == nil {
		t.Fatal("validateUserID")
	}
	for _, v := range []string{"0", "2001", "", "ten"} {
		if validatePageSize(v) == nil {
			t.Errorf("page size %q should be rejected", v)
		}
	}
	if validatePageSize("2000") != nil {
		t.Fatal("page size 2000 should be accepted")
	}
}

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{store.SettingReportDays, "30", "30 days"},
		{store.SettingPageSize, "20", "20 per page"},
		{store.SettingUserID, "7", "7"},
		{store.SettingPageSize, "bad", "bad"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.value); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) App {
	t.Helper()
	s := newTestStore(t)
	return NewApp(tracking.NewService(s), s, s)
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.backupPicking {
		t.Fatal("backup picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestNewAppReadsSettings(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetIntSetting(store.SettingUserID, 9); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIntSetting(store.SettingPageSize, 5); err != nil {
		t.Fatal(err)
	}
	app := NewApp(tracking.NewService(s), s, s)
	if app.userID != 9 || app.dashboard.userID != 9 || app.records.pageSize != 5 {
		t.Fatalf("app did not pick up settings: user %d page size %d", app.userID, app.records.pageSize)
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	for i := range viewNames {
		app.activeView = viewState(i)
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	app := newTestApp(t)
	for range viewNames {
		m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
		app = m.(App)
	}
	if app.activeView != viewDashboard {
		t.Fatalf("tab should wrap around, at %d", app.activeView)
	}
}

func TestAppSettingsSaved(t *testing.T) {
	app := newTestApp(t)
	m, cmd := app.Update(settingsSavedMsg{userID: 3, pageSize: 10, reportDays: 30})
	app = m.(App)
	if cmd == nil {
		t.Fatal("settings change should reload the dashboard")
	}
	if app.userID != 3 || app.dashboard.userID != 3 || app.records.userID != 3 || app.report.userID != 3 {
		t.Fatal("every view should switch user")
	}
	if app.records.pageSize != 10 || app.report.days != 30 {
		t.Fatal("page size and report span should follow settings")
	}
}

func TestAppBackupWithoutSource(t *testing.T) {
	s := newTestStore(t)
	app := NewApp(tracking.NewService(s), s, nil)
	m, _ := app.Update(keyPress('b'))
	app = m.(App)
	if app.backupPicking {
		t.Fatal("backup picker should stay closed without a source")
	}
	if !strings.Contains(app.status, "not available") {
		t.Fatalf("status = %q", app.status)
	}
}

func TestAppBackupPicker(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(keyPress('b'))
	app = m.(App)
	if !app.backupPicking {
		t.Fatal("b should open the backup picker")
	}
	if !strings.Contains(app.View(), "Backup Format") {
		t.Fatal("picker should be rendered")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = m.(App)
	if app.backupCursor != 1 {
		t.Fatalf("cursor = %d, want 1", app.backupCursor)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.backupPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestBackupPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path, err := backupPath(1, monday)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "stampclock-backup-2026-03-02.json") {
		t.Fatalf("path = %q", path)
	}
	path, _ = backupPath(0, monday)
	if !strings.HasSuffix(path, ".csv") {
		t.Fatalf("path = %q", path)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	// Width 0 means not yet sized
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(statusMsg{text: "test status"})
	app = m.(App)
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"clock", func() string { return clockStyle.Render("test") }},
		{"clockCheckedIn", func() string { return clockCheckedInStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"checkedIn", func() string { return checkedInStyle.Render("test") }},
		{"workedBar", func() string { return workedBarStyle.Render("test") }},
		{"breakBar", func() string { return breakBarStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"statusBar", func() string { return statusBarStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if result := s.fn(); result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

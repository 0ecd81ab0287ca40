package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/tracking"
)

const recentRecords = 5

type dashboardModel struct {
	svc    *tracking.Service
	userID int64
	timer  timerModel
	width  int
	height int

	today  tracking.Report
	recent []stamp.StampRecord
}

func newDashboardModel(svc *tracking.Service, userID int64) dashboardModel {
	return dashboardModel{
		svc:    svc,
		userID: userID,
		timer:  newTimerModel(svc, userID),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) setUser(userID int64) {
	d.userID = userID
	d.timer = newTimerModel(d.svc, userID)
	d.today = tracking.Report{}
	d.recent = nil
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	userID int64
	today  tracking.Report
	recent []stamp.StampRecord
}

func (d dashboardModel) loadData() tea.Cmd {
	svc, userID := d.svc, d.userID
	return func() tea.Msg {
		ctx := context.Background()

		page, err := svc.ListByUser(ctx, userID, stamp.PageRequest{Size: recentRecords, Sort: stamp.DefaultSort})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load records: %v", err), isError: true}
		}

		start := dayStart(time.Now())
		today, err := svc.Report(ctx, userID, start.UnixMilli(), start.Add(24*time.Hour).UnixMilli()-1)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load today: %v", err), isError: true}
		}

		return dashboardDataMsg{userID: userID, today: today, recent: page.Records}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.userID != d.userID {
			return d, nil
		}
		d.today = msg.today
		d.recent = msg.recent
		var latest *stamp.StampRecord
		if len(msg.recent) > 0 {
			latest = &msg.recent[0]
		}
		d.timer.sync(latest)
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CheckIn):
			return d.checkIn()
		case key.Matches(msg, keys.CheckOut):
			return d.checkOut()
		}
	}
	return d, nil
}

func (d dashboardModel) checkIn() (dashboardModel, tea.Cmd) {
	if d.timer.running() {
		return d, func() tea.Msg {
			return statusMsg{text: "Already checked in. Press x to check out.", isError: true}
		}
	}
	r, err := d.timer.checkInNow(context.Background())
	if err != nil {
		return d, errorCmd("Check in", err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return checkedInMsg{record: r} },
	)
}

func (d dashboardModel) checkOut() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, func() tea.Msg {
			return statusMsg{text: "Not checked in. Press s to check in.", isError: true}
		}
	}
	r, err := d.timer.checkOutNow(context.Background())
	if err != nil {
		return d, errorCmd("Check out", err)
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return checkedOutMsg{record: r} },
	)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderClockPanel(contentWidth),
		d.renderTodayPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderClockPanel(w int) string {
	if d.timer.running() {
		elapsed := d.timer.currentElapsed()
		timeDisplay := clockCheckedInStyle.Width(w - 6).Render(formatDuration(elapsed))
		indicator := checkedInStyle.Render("●  CHECKED IN")

		since := mutedStyle.Render("since " + d.timer.checkIn.Format(timeLayout) + " UTC")
		breakLine := fmt.Sprintf("break %s", d.timer.breakDue())
		if next, ok := d.timer.nextBreakIn(); ok {
			breakLine += mutedStyle.Render(fmt.Sprintf("  (next bracket in %s)", next.Round(time.Minute)))
		}

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			since,
			highlightStyle.Render(breakLine),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		clockStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  CHECKED OUT"),
		mutedStyle.Render("Press s to check in"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTodayPanel(w int) string {
	title := titleStyle.Render("Today")
	worked := highlightStyle.Render(formatDuration(d.today.Worked))
	header := fmt.Sprintf("%s  %s worked", title, worked)

	closed := len(d.today.Lines) - d.today.Open
	if len(d.today.Lines) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No records today"),
		))
	}

	line := fmt.Sprintf("  checked in %s  break %s  (%d closed, %d open)",
		formatDuration(d.today.CheckedIn),
		formatDuration(d.today.CheckedIn-d.today.Worked),
		closed, d.today.Open,
	)
	return panelStyle.Width(w).Render(strings.Join([]string{header, line}, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Records")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No records yet"),
		))
	}

	rows := []string{title}
	for _, r := range d.recent {
		rows = append(rows, "  "+recordRow(r))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// recordRow renders one record with its checked-in and worked time.
func recordRow(r stamp.StampRecord) string {
	in := formatMillis(*r.CheckInMillis)
	if r.Open() {
		return fmt.Sprintf("● %-16s → %-16s %8s %8s", in, "", "open", "")
	}
	d := time.Duration(*r.CheckOutMillis-*r.CheckInMillis) * time.Millisecond
	worked, err := stamp.WorkedTime(d)
	if err != nil {
		return fmt.Sprintf("✗ %-16s → %-16s %v", in, formatMillis(*r.CheckOutMillis), err)
	}
	return fmt.Sprintf("✓ %-16s → %-16s %8s %8s", in, formatMillis(*r.CheckOutMillis),
		formatDuration(d), formatDuration(worked))
}

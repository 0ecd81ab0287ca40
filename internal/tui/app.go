package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/stampclock/internal/backup"
	"github.com/sadopc/stampclock/internal/tracking"
)

var backupFormats = []string{"CSV", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	svc    *tracking.Service
	source backup.Source
	userID int64
	width  int
	height int

	activeView    viewState
	showHelp      bool
	backupPicking bool
	backupCursor  int

	dashboard dashboardModel
	records   recordsModel
	report    reportModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the client for the user stored in settings. src may be nil,
// which disables backups.
func NewApp(svc *tracking.Service, settings Settings, src backup.Source) App {
	h := help.New()
	h.ShowAll = false

	sm := newSettingsModel(settings)
	cur := sm.current()

	return App{
		svc:        svc,
		source:     src,
		userID:     cur.userID,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(svc, cur.userID),
		records:    newRecordsModel(svc, cur.userID, cur.pageSize),
		report:     newReportModel(svc, cur.userID, cur.reportDays),
		settings:   sm,
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.records.setSize(a.width, contentHeight)
		a.report.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewReport {
			a.report.buildChart()
		}
		return a, nil

	case tea.KeyMsg:
		if a.backupPicking {
			return a.updateBackupPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Backup):
			if a.source == nil {
				a.setStatus("Backup is not available for this store", true)
				return a, nil
			}
			a.backupPicking = true
			a.backupCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewRecords
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReport
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// Always route ticks to dashboard timer
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case dashboardDataMsg:
		// The footer timer reads the dashboard, so it is fed on every view.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case checkedInMsg:
		a.setStatus("Checked in at " + formatMillis(*msg.record.CheckInMillis), false)
		return a, nil

	case checkedOutMsg:
		a.setStatus("Checked out at " + formatMillis(*msg.record.CheckOutMillis), false)
		return a, nil

	case recordSavedMsg:
		a.setStatus(fmt.Sprintf("Saved record %d", msg.record.ID), false)
		return a, a.dashboard.loadData()

	case recordDeletedMsg:
		a.setStatus(fmt.Sprintf("Deleted record %d", msg.id), false)
		return a, a.dashboard.loadData()

	case settingsSavedMsg:
		a.userID = msg.userID
		a.dashboard.setUser(msg.userID)
		a.records.setUser(msg.userID, msg.pageSize)
		a.report.setUser(msg.userID, msg.reportDays)
		a.setStatus(fmt.Sprintf("Settings saved (user %d)", msg.userID), false)
		return a, a.dashboard.loadData()

	case backupDoneMsg:
		a.setStatus(fmt.Sprintf("Backed up %d records to %s", msg.count, msg.path), false)
		a.backupPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusErr = isError
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewRecords:
		a.records, cmd = a.records.update(msg)
	case viewReport:
		a.report, cmd = a.report.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewRecords:
		return a.records.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewRecords:
		return a.records.refresh()
	case viewReport:
		return a.report.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewRecords:
		content = a.records.view()
	case viewReport:
		content = a.report.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.backupPicking {
		content = a.renderBackupPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("stampclock")
	user := subtitleStyle.Render(fmt.Sprintf(" user %d", a.userID))
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(user)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, user, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := statusBarStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		timerInfo = checkedInStyle.Render(" ● " + formatDuration(a.dashboard.elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderBackupPicker() string {
	title := titleStyle.Render("Backup Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("Records of user %d", a.userID)))
	rows = append(rows, "")
	for i, f := range backupFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.backupCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: back up  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateBackupPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.backupCursor > 0 {
			a.backupCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.backupCursor < len(backupFormats)-1 {
			a.backupCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.backupPicking = false
		return a, a.doBackup(a.backupCursor)
	case key.Matches(msg, keys.Back):
		a.backupPicking = false
	}
	return a, nil
}

func backupPath(format int, now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	ext := "csv"
	if format == 1 {
		ext = "json"
	}
	return filepath.Join(home, fmt.Sprintf("stampclock-backup-%s.%s", now.Format("2006-01-02"), ext)), nil
}

func (a App) doBackup(format int) tea.Cmd {
	src, userID := a.source, a.userID
	return func() tea.Msg {
		path, err := backupPath(format, time.Now())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
		}
		n, err := backup.Dump(context.Background(), src, path, &userID)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
		}
		return backupDoneMsg{path: path, count: n}
	}
}

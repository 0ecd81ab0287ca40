package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorCheckedIn = lipgloss.Color("#2ECC71")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
	colorBreak     = lipgloss.Color("#E0AF68")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	// Panel around the clock while a record is open, and around the picker.
	activePanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Align(lipgloss.Center)

	clockCheckedInStyle = clockStyle.
				Foreground(colorCheckedIn)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	checkedInStyle = lipgloss.NewStyle().Foreground(colorCheckedIn)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	// Report bars: worked time stacked under the break deduction.
	workedBarStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	breakBarStyle  = lipgloss.NewStyle().Foreground(colorBreak)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
	statusBarStyle = lipgloss.NewStyle().Foreground(colorMuted)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)
)

package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/store"
)

type settingsModel struct {
	store  Settings
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	userID     *string
	pageSize   *string
	reportDays *string
}

func newSettingsModel(s Settings) settingsModel {
	uid, ps, rd := "", "", ""
	return settingsModel{
		store:      s,
		userID:     &uid,
		pageSize:   &ps,
		reportDays: &rd,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load settings: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

// current reads the values the other views are built from.
func (s settingsModel) current() settingsSavedMsg {
	return settingsSavedMsg{
		userID:     s.store.GetIntSetting(store.SettingUserID, 0),
		pageSize:   int(s.store.GetIntSetting(store.SettingPageSize, stamp.DefaultPageSize)),
		reportDays: int(s.store.GetIntSetting(store.SettingReportDays, int64(reportSpans[0]))),
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func validateUserID(v string) error {
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		return fmt.Errorf("must be a whole number")
	}
	return nil
}

func validatePageSize(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > stamp.MaxPageSize {
		return fmt.Errorf("must be between 1 and %d", stamp.MaxPageSize)
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.current()
	*s.userID = strconv.FormatInt(cur.userID, 10)
	*s.pageSize = strconv.Itoa(cur.pageSize)
	*s.reportDays = strconv.Itoa(cur.reportDays)

	dayOptions := make([]huh.Option[string], len(reportSpans))
	for i, d := range reportSpans {
		dayOptions[i] = huh.NewOption(fmt.Sprintf("%d days", d), strconv.Itoa(d))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("User ID").Validate(validateUserID).Value(s.userID),
			huh.NewInput().Title("Records per page").Validate(validatePageSize).Value(s.pageSize),
			huh.NewSelect[string]().Title("Report span").Options(dayOptions...).Value(s.reportDays),
		).Title("Client"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errorCmd("Save settings", err)
		}
		saved := s.current()
		return s, tea.Batch(s.refresh(), func() tea.Msg { return saved })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []struct {
		key string
		raw string
	}{
		{store.SettingUserID, *s.userID},
		{store.SettingPageSize, *s.pageSize},
		{store.SettingReportDays, *s.reportDays},
	}
	for _, v := range values {
		n, err := strconv.ParseInt(v.raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		if err := s.store.SetIntSetting(v.key, n); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingReportDays:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d days", n)
		}
	case store.SettingPageSize:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d per page", n)
		}
	}
	return v
}

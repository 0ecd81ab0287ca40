package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewRecords
	viewReport
	viewSettings
)

var viewNames = []string{"Dashboard", "Records", "Report", "Settings"}

// Settings is the key/value table the client keeps its preferences in.
type Settings interface {
	GetIntSetting(key string, def int64) int64
	SetIntSetting(key string, v int64) error
	GetAllSettings() ([]store.Setting, error)
}

// --- Messages ---

type checkedInMsg struct {
	record stamp.StampRecord
}

type checkedOutMsg struct {
	record stamp.StampRecord
}

type recordSavedMsg struct {
	record stamp.StampRecord
}

type recordDeletedMsg struct {
	id int64
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type backupDoneMsg struct {
	path  string
	count int
}

// settingsSavedMsg carries the values every view depends on.
type settingsSavedMsg struct {
	userID     int64
	pageSize   int
	reportDays int
}

func errorCmd(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}

// --- Helpers ---

const timeLayout = "2006-01-02 15:04"

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(timeLayout)
}

// parseMillis reads a timeLayout value as UTC epoch milliseconds.
func parseMillis(s string) (int64, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("expected %s", timeLayout)
	}
	return t.UnixMilli(), nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// dayStart truncates t to midnight UTC.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

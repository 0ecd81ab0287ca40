package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/stampclock/internal/tracking"
)

var reportSpans = []int{7, 30}

type reportModel struct {
	svc    *tracking.Service
	userID int64
	width  int
	height int

	days   int
	offset int // spans back from today (0 = current)
	report tracking.Report

	chart barchart.Model
}

func newReportModel(svc *tracking.Service, userID int64, days int) reportModel {
	if days <= 0 {
		days = reportSpans[0]
	}
	return reportModel{
		svc:    svc,
		userID: userID,
		days:   days,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *reportModel) setUser(userID int64, days int) {
	r.userID = userID
	if days > 0 {
		r.days = days
	}
	r.offset = 0
	r.report = tracking.Report{}
}

type reportDataMsg struct {
	userID int64
	report tracking.Report
}

func (r reportModel) refresh() tea.Cmd {
	svc, userID := r.svc, r.userID
	from, to := r.dateRange()
	return func() tea.Msg {
		rep, err := svc.Report(context.Background(), userID, from.UnixMilli(), to.UnixMilli()-1)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load report: %v", err), isError: true}
		}
		return reportDataMsg{userID: userID, report: rep}
	}
}

// dateRange covers r.days whole UTC days ending today, shifted back by offset
// spans. The end is exclusive.
func (r reportModel) dateRange() (time.Time, time.Time) {
	end := dayStart(time.Now()).AddDate(0, 0, 1-r.days*r.offset)
	return end.AddDate(0, 0, -r.days), end
}

func (r reportModel) update(msg tea.Msg) (reportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportDataMsg:
		if msg.userID != r.userID {
			return r, nil
		}
		r.report = msg.report
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.days == reportSpans[0] {
				r.days = reportSpans[1]
			} else {
				r.days = reportSpans[0]
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

type dayTotal struct {
	worked    time.Duration
	breakTime time.Duration
}

// dailyTotals sums closed records by the UTC day they were checked in.
func (r reportModel) dailyTotals() map[string]dayTotal {
	totals := make(map[string]dayTotal)
	for _, line := range r.report.Lines {
		if line.Record.Open() {
			continue
		}
		day := line.Record.CheckIn().Format("2006-01-02")
		t := totals[day]
		t.worked += line.Worked
		t.breakTime += line.Break
		totals[day] = t
	}
	return totals
}

func (r *reportModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	totals := r.dailyTotals()

	labelFormat := "Mon 02"
	if r.days > 7 {
		labelFormat = "02"
	}

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		t := totals[d.Format("2006-01-02")]
		bars = append(bars, barchart.BarData{
			Label: d.Format(labelFormat),
			Values: []barchart.BarValue{
				{Name: "Worked", Value: t.worked.Hours(), Style: workedBarStyle},
				{Name: "Break", Value: t.breakTime.Hours(), Style: breakBarStyle},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportModel) view() string {
	w := r.width - 4

	var spanTabs []string
	for _, days := range reportSpans {
		label := fmt.Sprintf("%d days", days)
		if days == r.days {
			spanTabs = append(spanTabs, activeTabStyle.Render(label))
		} else {
			spanTabs = append(spanTabs, inactiveTabStyle.Render(label))
		}
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, spanTabs...)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Report"), "  ", modeTabs, "  ", dateLabel,
	)

	legend := "  " + workedBarStyle.Render("●") + " worked  " + breakBarStyle.Render("●") + " break"

	nav := mutedStyle.Render("  ←/→: navigate  m: 7/30 days")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderTotals(w), "", nav,
		),
	)
}

func (r reportModel) renderTotals(w int) string {
	if len(r.report.Lines) == 0 {
		return mutedStyle.Render("  No records for this period")
	}

	rep := r.report
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s %6s", "", "In", "Break", "Worked", "Open")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 52))),
		fmt.Sprintf("  %-12s %10s %10s %10s %6d", "Total",
			formatDuration(rep.CheckedIn),
			formatDuration(rep.CheckedIn-rep.Worked),
			formatDuration(rep.Worked),
			rep.Open,
		),
		fmt.Sprintf("  %-12s %10s", "Hours", formatHours(rep.Worked)),
	}
	return strings.Join(rows, "\n")
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/tracking"
)

type recordsModel struct {
	svc    *tracking.Service
	userID int64
	width  int
	height int

	records  []stamp.StampRecord
	page     int
	pageSize int
	total    int64
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "delete"

	// Form field pointers (survive value copies)
	formCheckIn  *string
	formCheckOut *string
	formConfirm  *bool

	editingID int64
}

func newRecordsModel(svc *tracking.Service, userID int64, pageSize int) recordsModel {
	in, out, confirm := "", "", false
	return recordsModel{
		svc:          svc,
		userID:       userID,
		pageSize:     pageSize,
		formCheckIn:  &in,
		formCheckOut: &out,
		formConfirm:  &confirm,
	}
}

func (m *recordsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *recordsModel) setUser(userID int64, pageSize int) {
	m.userID = userID
	m.pageSize = pageSize
	m.page = 0
	m.cursor = 0
	m.records = nil
	m.total = 0
}

type recordsDataMsg struct {
	userID int64
	page   stamp.Page
}

func (m recordsModel) refresh() tea.Cmd {
	svc, userID := m.svc, m.userID
	req := stamp.PageRequest{Page: m.page, Size: m.pageSize, Sort: stamp.DefaultSort}
	return func() tea.Msg {
		page, err := svc.ListByUser(context.Background(), userID, req)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load records: %v", err), isError: true}
		}
		return recordsDataMsg{userID: userID, page: page}
	}
}

func (m recordsModel) totalPages() int {
	return stamp.Page{Size: m.pageSize, Total: m.total}.TotalPages()
}

func (m recordsModel) update(msg tea.Msg) (recordsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case recordsDataMsg:
		if msg.userID != m.userID {
			return m, nil
		}
		m.records = msg.page.Records
		m.total = msg.page.Total
		if m.cursor >= len(m.records) {
			m.cursor = max(0, len(m.records)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m recordsModel) updateList(msg tea.KeyMsg) (recordsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		if m.page > 0 {
			m.page--
			m.cursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Right):
		if m.page < m.totalPages()-1 {
			m.page++
			m.cursor = 0
			return m, m.refresh()
		}
	case key.Matches(msg, keys.New):
		return m.showNewForm()
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if len(m.records) > 0 {
			return m.showEditForm()
		}
	case key.Matches(msg, keys.Delete):
		if len(m.records) > 0 {
			return m.showDeleteForm()
		}
	}
	return m, nil
}

func validateTime(s string) error {
	_, err := parseMillis(strings.TrimSpace(s))
	return err
}

func validateOptionalTime(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateTime(s)
}

func (m recordsModel) recordForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Check in (UTC)").
				Placeholder(timeLayout).
				Validate(validateTime).
				Value(m.formCheckIn),
			huh.NewInput().Title("Check out (UTC, empty while checked in)").
				Placeholder(timeLayout).
				Validate(validateOptionalTime).
				Value(m.formCheckOut),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m recordsModel) showNewForm() (recordsModel, tea.Cmd) {
	*m.formCheckIn = time.Now().UTC().Format(timeLayout)
	*m.formCheckOut = ""
	m.formType = "new"
	m.editingID = 0

	m.form = m.recordForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m recordsModel) showEditForm() (recordsModel, tea.Cmd) {
	r := m.records[m.cursor]
	*m.formCheckIn = formatMillis(*r.CheckInMillis)
	*m.formCheckOut = ""
	if !r.Open() {
		*m.formCheckOut = formatMillis(*r.CheckOutMillis)
	}
	m.formType = "edit"
	m.editingID = r.ID

	m.form = m.recordForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m recordsModel) showDeleteForm() (recordsModel, tea.Cmd) {
	r := m.records[m.cursor]
	*m.formConfirm = false
	m.formType = "delete"
	m.editingID = r.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete record %d?", r.ID)).
				Description(recordRow(r)).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.formConfirm),
		),
	).WithShowHelp(true)

	m.formActive = true
	return m, m.form.Init()
}

// formRecord builds the record described by the form fields.
func (m recordsModel) formRecord() (stamp.StampRecord, error) {
	in, err := parseMillis(strings.TrimSpace(*m.formCheckIn))
	if err != nil {
		return stamp.StampRecord{}, err
	}
	r := stamp.StampRecord{UserID: stamp.Int64(m.userID), CheckInMillis: stamp.Int64(in)}
	if s := strings.TrimSpace(*m.formCheckOut); s != "" {
		out, err := parseMillis(s)
		if err != nil {
			return stamp.StampRecord{}, err
		}
		r.CheckOutMillis = stamp.Int64(out)
	}
	return r, nil
}

func (m recordsModel) updateForm(msg tea.Msg) (recordsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.submit()
	}

	return m, cmd
}

func (m recordsModel) submit() tea.Cmd {
	ctx := context.Background()
	switch m.formType {
	case "delete":
		if !*m.formConfirm {
			return nil
		}
		if err := m.svc.Delete(ctx, m.editingID); err != nil {
			return errorCmd("Delete", err)
		}
		id := m.editingID
		return tea.Batch(m.refresh(), func() tea.Msg { return recordDeletedMsg{id: id} })
	}

	r, err := m.formRecord()
	if err != nil {
		return errorCmd("Record", err)
	}
	var saved stamp.StampRecord
	if m.formType == "edit" {
		saved, err = m.svc.Update(ctx, m.editingID, r)
	} else {
		saved, err = m.svc.Create(ctx, r)
	}
	if err != nil {
		return errorCmd("Save", err)
	}
	return tea.Batch(m.refresh(), func() tea.Msg { return recordSavedMsg{record: saved} })
}

func (m recordsModel) view() string {
	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Record")
		switch m.formType {
		case "edit":
			title = titleStyle.Render(fmt.Sprintf("Edit Record %d", m.editingID))
		case "delete":
			title = titleStyle.Render("Delete Record")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}
	return m.renderList()
}

func (m recordsModel) renderList() string {
	w := m.width - 4
	title := titleStyle.Render(fmt.Sprintf("Records for user %d", m.userID))

	if len(m.records) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No records yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("    %-6s   %-16s   %-16s %8s %8s", "ID", "Check in", "Check out", "In", "Worked"))
	rows = append(rows, header)

	for i, r := range m.records {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-6d %s", cursor, r.ID, recordRow(r))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  page %d/%d  (%d records)", m.page+1, max(1, m.totalPages()), m.total)))
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  ←/→: page"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

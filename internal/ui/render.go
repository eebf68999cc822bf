package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/config"
	"taskdeck/internal/edit"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	activeTab     = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("0"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	noticeStyles  = map[notify.Severity]lipgloss.Style{
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("196")).Padding(0, 1),
	}
)

func (m Model) visibleTasks() []model.Task {
	return view.Tasks(m.ws.Tasks.Items(), view.TaskQuery{
		Status: m.taskStatus,
		Search: m.search,
		Sort:   m.sorts[tabTasks],
		Locale: m.cfg.Locale,
	})
}

func (m Model) visibleProjects() []model.Project {
	return view.Projects(m.ws.Projects.Items(), view.ProjectQuery{
		Category: m.category,
		Search:   m.search,
		Sort:     m.sorts[tabProjects],
		Locale:   m.cfg.Locale,
	})
}

func (m Model) visibleNotes() []model.Note {
	return view.Notes(m.ws.Notes.Items(), view.NoteQuery{
		Search: m.search,
		Sort:   m.sorts[tabNotes],
		Locale: m.cfg.Locale,
	})
}

// refs lists the rows of the current tab in display order.
func (m Model) refs() []edit.Ref {
	kind := m.tab.kind()
	var ids []model.ID
	switch m.tab {
	case tabProjects:
		for _, p := range m.visibleProjects() {
			ids = append(ids, p.ID)
		}
	case tabNotes:
		for _, n := range m.visibleNotes() {
			ids = append(ids, n.ID)
		}
	default:
		for _, t := range m.visibleTasks() {
			ids = append(ids, t.ID)
		}
	}
	out := make([]edit.Ref, len(ids))
	for i, id := range ids {
		out[i] = edit.Ref{Kind: kind, ID: id}
	}
	return out
}

func (m Model) rowCount() int { return len(m.refs()) }

func (m Model) selected() (edit.Ref, bool) {
	refs := m.refs()
	if len(refs) == 0 {
		return edit.Ref{}, false
	}
	return refs[clampCursor(m.cursor, len(refs))], true
}

func (m Model) selectedLabel() string {
	ref, ok := m.selected()
	if !ok {
		return ""
	}
	switch ref.Kind {
	case model.KindProject:
		p, _ := m.ws.Projects.Get(ref.ID)
		return p.Name
	case model.KindNote:
		n, _ := m.ws.Notes.Get(ref.ID)
		return n.Text
	default:
		t, _ := m.ws.Tasks.Get(ref.ID)
		return t.Text
	}
}

// indexOf returns the row of ref, or the clamped cursor when it is hidden.
func (m Model) indexOf(ref edit.Ref) int {
	refs := m.refs()
	if i := slices.Index(refs, ref); i >= 0 {
		return i
	}
	return clampCursor(m.cursor, len(refs))
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskdeck"))
	if s, ok := m.ws.Session.Current(); ok {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s (%s)", s.User.Username, s.User.Role)))
	}
	b.WriteString("\n\n")

	if m.mode == modeLogin || m.mode == modeRegister {
		b.WriteString(m.renderAuthForm())
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	if m.tab == tabTasks {
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n---\n")

	switch m.mode {
	case modeEdit:
		b.WriteString(m.renderEditBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeAdd:
		if box := m.renderAddBox(); box != "" {
			b.WriteString(box)
			b.WriteString("\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeSearch:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if notices := m.renderNotices(); notices != "" {
		b.WriteString("\n")
		b.WriteString(notices)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := m.status
	if m.busy > 0 {
		status = strings.TrimSpace(status + " " + mutedStyle.Render(fmt.Sprintf("(%d pending)", m.busy)))
	}
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderAuthForm() string {
	heading := "Log in"
	if m.mode == modeRegister {
		heading = "Register"
	}
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n\n")
	for i, label := range m.form.labels {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-26s %s\n", prefix, label, m.form.fields[i].View()))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := tabTasks; t < tabCount; t++ {
		label := t.title()
		if t == m.tab {
			parts = append(parts, activeTab.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	var filters []string
	switch m.tab {
	case tabTasks:
		filters = append(filters, "status:"+string(m.taskStatus))
	case tabProjects:
		filters = append(filters, "category:"+string(m.category))
	}
	filters = append(filters, "sort:"+string(m.sorts[m.tab]))
	if q := strings.TrimSpace(m.search); q != "" {
		filters = append(filters, fmt.Sprintf("search:%q", q))
	}
	return bar + "  " + mutedStyle.Render(strings.Join(filters, " • "))
}

func (m Model) renderSummary() string {
	s := m.ws.Summary(m.now())
	return mutedStyle.Render(fmt.Sprintf("%d pending • %d overdue • %d upcoming • %d%% done",
		s.IncompleteCount, len(s.Overdue), len(s.Upcoming), s.CompletionPercentage))
}

func (m Model) renderList() string {
	var lines []string
	switch m.tab {
	case tabProjects:
		for _, p := range m.visibleProjects() {
			lines = append(lines, fmt.Sprintf("%s %s [%s]", pinMark(p.Pinned), p.Name, p.Category))
		}
	case tabNotes:
		for _, n := range m.visibleNotes() {
			lines = append(lines, fmt.Sprintf("%s %s", pinMark(n.Pinned), n.Text))
		}
	default:
		now := m.now()
		for _, t := range m.visibleTasks() {
			line := fmt.Sprintf("%s %s (%s)", checkbox(t.Completed), t.Text, t.Priority)
			if t.DueDate.Valid {
				due := " due " + t.DueDate.String()
				if !t.Completed && t.DueDate.Before(now) {
					due = overdueStyle.Render(due + " overdue")
				}
				line += due
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No %s yet. Press '%s' to add one.",
			strings.ToLower(m.tab.title()), m.cfg.Keys.Add))
	}

	var b strings.Builder
	for i, line := range lines {
		if i == m.cursor && m.mode == modeList && !m.confirmDel {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderEditBox() string {
	s := m.ws.Edit.State()
	if !s.Editing {
		return ""
	}
	return renderFieldBox(fmt.Sprintf("Editing %s #%s", s.Ref.Kind, s.Ref.ID), s.Ref.Kind, s.Draft, m.editField)
}

// renderAddBox is empty for kinds whose add form has a single field.
func (m Model) renderAddBox() string {
	kind := m.tab.kind()
	if len(editFields(kind)) == 1 {
		return ""
	}
	d := m.addDraft
	setDraftValue(&d, kind, m.addField, m.input.Value())
	return renderFieldBox("New "+string(kind), kind, d, m.addField)
}

func renderFieldBox(title string, kind model.Kind, d edit.Draft, active int) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, name := range editFields(kind) {
		prefix := " "
		if i == active {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-32s : %s\n", prefix, name, emptyPlaceholder(draftValue(d, kind, i))))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderNotices() string {
	active := m.board.Active()
	if len(active) == 0 {
		return ""
	}
	parts := make([]string, 0, len(active))
	for _, n := range active {
		parts = append(parts, noticeStyles[n.Severity].Render(n.Message))
	}
	hint := mutedStyle.Render(fmt.Sprintf(" %s to dismiss", m.cfg.Keys.Dismiss))
	return lipgloss.JoinHorizontal(lipgloss.Top, append(parts, hint)...)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s/%s tabs • %s add • %s edit • %s toggle • %s delete • %s filter • %s sort • %s search • %s refresh • %s logout • %s quit",
		k.Up, k.Down, k.NextTab, k.PrevTab, k.Add, k.Edit, keyName(k.Toggle), k.Delete, k.Filter, k.Sort, k.Search, k.Refresh, k.Logout, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func pinMark(pinned bool) string {
	if pinned {
		return "*"
	}
	return " "
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

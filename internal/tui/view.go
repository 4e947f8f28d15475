package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

const (
	barWidth   = 30
	timeLayout = "15:04:05"
)

var viewTitles = map[session.View]string{
	session.ViewDashboard:   "Dashboard",
	session.ViewTranscripts: "Transcripts",
	session.ViewLive:        "Live",
	session.ViewSettings:    "Settings",
}

// View implements tea.Model
func (m Model) View() string {
	if m.session == nil {
		return m.renderLogin()
	}

	var content string
	switch m.session.ActiveView {
	case session.ViewTranscripts:
		if m.detail {
			content = m.renderDetail()
		} else {
			content = m.renderTranscripts()
		}
	case session.ViewLive:
		content = m.renderLive()
	case session.ViewSettings:
		content = m.renderSettings()
	default:
		content = m.renderDashboard()
	}
	if m.status != "" {
		content += "\n\n" + m.faint().Render(m.status)
	}

	contentStyle := lipgloss.NewStyle().PaddingLeft(2)
	if m.width > sidebarWidth {
		contentStyle = contentStyle.Width(m.width - sidebarWidth - 1)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), contentStyle.Render(content))
	return body + "\n" + m.renderHelp()
}

func (m Model) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.FaintText)
}

func (m Model) title(text string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(m.theme.Accent).Render(text)
}

func (m Model) errorLine(text string) string {
	return lipgloss.NewStyle().Foreground(m.theme.ErrorText).Render(text)
}

func (m Model) loading(text string) string {
	return m.spinner.View() + " " + m.faint().Render(text)
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.title("Voiceflow Portal"))
	b.WriteString("\n")
	b.WriteString(m.faint().Render("Enter your access token to view your analytics."))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	switch {
	case m.validating:
		b.WriteString(m.loading("Validating token..."))
	case m.authErr != "":
		b.WriteString(m.errorLine(m.authErr))
	}
	b.WriteString("\n\n")
	b.WriteString(m.helpLine(m.keys.Submit, m.keys.ForceQuit))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderColor).
		Padding(1, 3).
		Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderSidebar() string {
	lines := []string{
		m.title("Voiceflow Portal"),
		lipgloss.NewStyle().Bold(true).Foreground(m.theme.NormalText).Render(m.session.Customer.Name),
		m.faint().Render(m.session.Customer.EnvironmentID),
		"",
	}
	for i, view := range session.Views {
		label := fmt.Sprintf("%d %s", i+1, viewTitles[view])
		if view == m.session.ActiveView {
			lines = append(lines, lipgloss.NewStyle().
				Bold(true).
				Foreground(m.theme.SelectedForeground).
				Background(m.theme.SelectedBackground).
				Render("▸ "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	lines = append(lines, "", m.faint().Render("L Logout"))

	style := lipgloss.NewStyle().
		Width(sidebarWidth).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(m.theme.BorderColor)
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{m.keys.Dashboard, m.keys.Transcripts, m.keys.Live, m.keys.Settings}
	switch m.session.ActiveView {
	case session.ViewTranscripts:
		if m.detail {
			bindings = append(bindings, m.keys.Back, m.keys.Export)
		} else {
			bindings = append(bindings, m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Export)
		}
	case session.ViewLive:
		bindings = append(bindings, m.keys.Toggle)
	}
	bindings = append(bindings, m.keys.Refresh, m.keys.Logout, m.keys.Quit)
	return m.helpLine(bindings...)
}

func (m Model) helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(strings.Join(parts, " • "))
}

func (m Model) renderDashboard() string {
	sections := []string{m.title("Dashboard")}
	switch {
	case m.loadingMetrics:
		return strings.Join(append(sections, m.loading("Loading metrics...")), "\n\n")
	case m.metricsErr != nil:
		return strings.Join(append(sections, m.errorLine("Failed to load metrics: "+m.metricsErr.Error())), "\n\n")
	case m.metrics == nil:
		return strings.Join(sections, "\n\n")
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderColor).
		Padding(0, 2).
		MarginRight(1)
	value := lipgloss.NewStyle().Bold(true).Foreground(m.theme.NormalText)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card.Render(m.faint().Render("Total Sessions")+"\n"+value.Render(humanize.Comma(int64(m.metrics.TotalSessions)))),
		card.Render(m.faint().Render("Total Messages")+"\n"+value.Render(humanize.Comma(int64(m.metrics.TotalMessages)))),
		card.Render(m.faint().Render("Avg Duration")+"\n"+value.Render(m.metrics.AvgDuration)),
	)
	sections = append(sections, cards)

	var intents strings.Builder
	intents.WriteString(lipgloss.NewStyle().Bold(true).Render("Top Intents"))
	for _, intent := range m.metrics.TopIntents {
		fmt.Fprintf(&intents, "\n  %-20s %s", intent.Name, humanize.Comma(int64(intent.Count)))
	}
	sections = append(sections, intents.String())

	var series strings.Builder
	series.WriteString(lipgloss.NewStyle().Bold(true).Render("Sessions Over Time"))
	maxCount := 0
	for _, bucket := range m.metrics.SessionsOverTime {
		maxCount = max(maxCount, bucket.Count)
	}
	bar := lipgloss.NewStyle().Foreground(m.theme.Accent)
	for _, bucket := range m.metrics.SessionsOverTime {
		width := 0
		if maxCount > 0 {
			width = bucket.Count * barWidth / maxCount
		}
		fmt.Fprintf(&series, "\n  %-4s %s %d", bucket.Date, bar.Render(strings.Repeat("█", width)), bucket.Count)
	}
	sections = append(sections, series.String())

	return strings.Join(sections, "\n\n")
}

func (m Model) statusStyle(status internal.TranscriptStatus) lipgloss.Style {
	switch status {
	case internal.StatusCompleted:
		return lipgloss.NewStyle().Foreground(m.theme.StatusCompleted)
	case internal.StatusActive:
		return lipgloss.NewStyle().Foreground(m.theme.StatusActive)
	default:
		return lipgloss.NewStyle().Foreground(m.theme.StatusAbandoned)
	}
}

// visibleRows is how many list or message rows fit under the view chrome
func (m Model) visibleRows(total int) int {
	if m.height == 0 {
		return total
	}
	return max(m.height-8, 3)
}

func (m Model) renderTranscripts() string {
	sections := []string{m.title("Transcripts")}
	switch {
	case m.loadingTranscripts:
		return strings.Join(append(sections, m.loading("Loading transcripts...")), "\n\n")
	case m.transcriptsErr != nil:
		return strings.Join(append(sections, m.errorLine("Failed to load transcripts: "+m.transcriptsErr.Error())), "\n\n")
	case len(m.transcripts) == 0:
		return strings.Join(append(sections, m.faint().Render("No transcripts yet.")), "\n\n")
	}

	var b strings.Builder
	b.WriteString(m.faint().Render(fmt.Sprintf("  %-16s %-8s %5s  %-10s %s", "ID", "Device", "Turns", "Status", "Created")))

	rows := m.visibleRows(len(m.transcripts))
	offset := 0
	if m.cursor >= rows {
		offset = m.cursor - rows + 1
	}
	end := min(offset+rows, len(m.transcripts))

	selected := lipgloss.NewStyle().
		Foreground(m.theme.SelectedForeground).
		Background(m.theme.SelectedBackground)
	for i := offset; i < end; i++ {
		t := m.transcripts[i]
		status := m.statusStyle(t.Status).Render(fmt.Sprintf("%-10s", t.Status))
		row := fmt.Sprintf("%-16s %-8s %5d  %s %s", t.ID, t.Device, t.TurnCount, status, t.CreatedAt.Local().Format("Jan 02 15:04"))
		b.WriteString("\n")
		if i == m.cursor {
			b.WriteString(selected.Render("▸ " + row))
		} else {
			b.WriteString("  " + row)
		}
	}
	sections = append(sections, b.String(),
		m.faint().Render(fmt.Sprintf("%d of %d", m.cursor+1, len(m.transcripts))))
	return strings.Join(sections, "\n\n")
}

func (m Model) speakerStyle(speaker string) lipgloss.Style {
	switch speaker {
	case internal.SpeakerUser:
		return lipgloss.NewStyle().Bold(true).Foreground(m.theme.UserText)
	case internal.SpeakerAssistant:
		return lipgloss.NewStyle().Bold(true).Foreground(m.theme.AssistantText)
	default:
		return lipgloss.NewStyle().Italic(true).Foreground(m.theme.FaintText)
	}
}

func (m Model) renderDetail() string {
	t, _ := m.selected()
	sections := []string{m.title("Transcript " + t.ID)}
	meta := []string{"session " + t.SessionID}
	if t.Device != "" {
		meta = append(meta, t.Device)
	}
	meta = append(meta, string(t.Status), fmt.Sprintf("%d turns", t.TurnCount), "created "+humanize.Time(t.CreatedAt))
	sections = append(sections, m.faint().Render(strings.Join(meta, " · ")))

	switch {
	case m.loadingLogs:
		return strings.Join(append(sections, m.loading("Loading messages...")), "\n\n")
	case m.logsErr != nil:
		return strings.Join(append(sections, m.errorLine("Failed to load messages: "+m.logsErr.Error())), "\n\n")
	case len(m.logs) == 0:
		return strings.Join(append(sections, m.faint().Render("No messages in this transcript.")), "\n\n")
	}

	var b strings.Builder
	for i, entry := range m.logs {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := entry.Type.Speaker()
		fmt.Fprintf(&b, "%s  %s %s",
			m.faint().Render(entry.CreatedAt.Local().Format(timeLayout)),
			m.speakerStyle(speaker).Render(fmt.Sprintf("%-9s", speaker)),
			entry.Text())
	}
	sections = append(sections, b.String())
	return strings.Join(sections, "\n\n")
}

func senderLabel(sender internal.Sender) string {
	switch sender {
	case internal.SenderUser:
		return internal.SpeakerUser
	case internal.SenderAssistant:
		return internal.SpeakerAssistant
	default:
		return internal.SpeakerSystem
	}
}

func (m Model) renderLive() string {
	sections := []string{m.title("Live Monitor")}

	var state string
	if m.monitor.Listening() {
		state = lipgloss.NewStyle().Foreground(m.theme.StatusCompleted).Render("● Listening") +
			m.faint().Render(" · "+m.monitor.SessionID())
	} else {
		state = m.faint().Render("○ Idle")
		if reason := m.monitor.LastClose(); reason != "" {
			state += m.faint().Render(" · last session " + string(reason))
		}
	}
	sections = append(sections, state)
	if m.liveErr != nil {
		sections = append(sections, m.errorLine("Could not start monitoring: "+m.liveErr.Error()))
	}

	messages := m.monitor.Messages()
	if len(messages) == 0 {
		sections = append(sections, m.faint().Render("Press s to start monitoring a live session."))
		return strings.Join(sections, "\n\n")
	}

	rows := m.visibleRows(len(messages))
	if len(messages) > rows {
		messages = messages[len(messages)-rows:]
	}
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := senderLabel(msg.Sender)
		text := msg.Text
		if msg.Sender == internal.SenderSystem {
			text = m.speakerStyle(speaker).Render(text)
		}
		fmt.Fprintf(&b, "%s  %s %s",
			m.faint().Render(msg.Timestamp.Local().Format(timeLayout)),
			m.speakerStyle(speaker).Render(fmt.Sprintf("%-9s", speaker)),
			text)
	}
	sections = append(sections, b.String())
	return strings.Join(sections, "\n\n")
}

func (m Model) renderSettings() string {
	label := m.faint().Width(14)
	rows := []struct {
		name, value string
	}{
		{"Customer", m.session.Customer.Name},
		{"Project ID", m.session.Customer.ProjectID},
		{"Environment", m.session.Customer.EnvironmentID},
		{"Profile", m.shell.Profile()},
		{"Login ID", m.session.LoginID},
	}
	if !m.session.CreatedAt.IsZero() {
		rows = append(rows, struct{ name, value string }{"Signed in", humanize.Time(m.session.CreatedAt)})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, label.Render(row.name)+row.value)
	}
	return m.title("Settings") + "\n\n" + strings.Join(lines, "\n")
}

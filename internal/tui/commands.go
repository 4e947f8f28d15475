package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/export"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

// Results of background work. Each carries the login it was started under
// so answers that arrive after a logout are dropped.
type (
	loginMsg struct {
		data *session.SessionData
		err  error
	}

	metricsMsg struct {
		loginID string
		metrics *internal.DashboardMetrics
		err     error
	}

	transcriptsMsg struct {
		loginID     string
		transcripts []internal.Transcript
		err         error
	}

	logsMsg struct {
		loginID      string
		transcriptID string
		logs         []internal.LogEntry
		err          error
	}

	exportMsg struct {
		loginID string
		path    string
		empty   bool
		err     error
	}

	liveStartedMsg struct {
		loginID   string
		sessionID string
		err       error
	}

	liveChangedMsg struct{}
)

// waitForLive blocks until the monitor reports a change
func waitForLive(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return liveChangedMsg{}
	}
}

func (m Model) login(token string) tea.Cmd {
	ctx, shell := m.ctx, m.shell
	return func() tea.Msg {
		data, err := shell.Login(ctx, token)
		return loginMsg{data: data, err: err}
	}
}

func (m *Model) fetchMetrics() tea.Cmd {
	m.loadingMetrics = true
	m.metricsErr = nil
	ctx, client, loginID := m.ctx, m.client, m.session.LoginID
	return func() tea.Msg {
		metrics, err := client.FetchDashboardMetrics(ctx)
		return metricsMsg{loginID: loginID, metrics: metrics, err: err}
	}
}

func (m *Model) fetchTranscripts() tea.Cmd {
	m.loadingTranscripts = true
	m.transcriptsErr = nil
	ctx, client, loginID := m.ctx, m.client, m.session.LoginID
	projectID := m.session.Customer.ProjectID
	return func() tea.Msg {
		transcripts, err := client.FetchTranscripts(ctx, projectID)
		return transcriptsMsg{loginID: loginID, transcripts: transcripts, err: err}
	}
}

func (m *Model) fetchLogs(transcriptID string) tea.Cmd {
	m.loadingLogs = true
	m.logsFor = transcriptID
	m.logs, m.logsErr = nil, nil
	ctx, client, loginID := m.ctx, m.client, m.session.LoginID
	return func() tea.Msg {
		logs, err := client.FetchTranscriptLogs(ctx, transcriptID)
		return logsMsg{loginID: loginID, transcriptID: transcriptID, logs: logs, err: err}
	}
}

// exportSelected writes the selected transcript as CSV, reusing the logs
// already on screen when they belong to it
func (m *Model) exportSelected() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	var logs []internal.LogEntry
	if m.logsFor == t.ID && !m.loadingLogs && m.logsErr == nil {
		logs = m.logs
	}
	m.status = "Exporting " + t.ID + "..."

	ctx, client, loginID, dir := m.ctx, m.client, m.session.LoginID, m.exportDir
	return func() tea.Msg {
		if logs == nil {
			var err error
			if logs, err = client.FetchTranscriptLogs(ctx, t.ID); err != nil {
				return exportMsg{loginID: loginID, err: err}
			}
		}
		exporter, err := export.NewExporter("csv")
		if err != nil {
			return exportMsg{loginID: loginID, err: err}
		}
		path, err := export.WriteFile(dir, exporter, &internal.TranscriptExport{
			TranscriptID: t.ID,
			Transcript:   &t,
			Logs:         logs,
		})
		return exportMsg{loginID: loginID, path: path, empty: len(logs) == 0, err: err}
	}
}

func (m *Model) startLive() tea.Cmd {
	ctx, monitor, loginID := m.ctx, m.monitor, m.session.LoginID
	return func() tea.Msg {
		id, err := monitor.Start(ctx)
		return liveStartedMsg{loginID: loginID, sessionID: id, err: err}
	}
}

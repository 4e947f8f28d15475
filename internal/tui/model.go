// Package tui is the interactive portal: a token gate in front of the
// metrics dashboard, transcript browser, live session monitor and settings.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/backend"
	"github.com/iksnae/voiceflow-portal/internal/live"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

// InvalidTokenMessage is shown inline when a token is rejected
const InvalidTokenMessage = "Invalid access token. Please try again."

const sidebarWidth = 24

// Option configures a Model
type Option func(*Model)

// WithExportDir sets where exported transcripts are written
func WithExportDir(dir string) Option {
	return func(m *Model) { m.exportDir = dir }
}

// WithTheme overrides the color palette
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap overrides the key bindings
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// Model is the bubbletea model for the whole portal. Session state lives
// in the shell; the model only mirrors it and holds per-view UI state.
type Model struct {
	ctx       context.Context
	shell     *session.Shell
	client    backend.Client
	keys      KeyMap
	theme     Theme
	exportDir string

	width  int
	height int

	// nil while logged out
	session *session.SessionData

	input      textinput.Model
	authErr    string
	validating bool

	spinner spinner.Model

	metrics        *internal.DashboardMetrics
	metricsErr     error
	loadingMetrics bool

	transcripts        []internal.Transcript
	transcriptsErr     error
	transcriptsLoaded  bool
	loadingTranscripts bool
	cursor             int

	detail      bool
	logs        []internal.LogEntry
	logsFor     string
	logsErr     error
	loadingLogs bool

	monitor     *live.Monitor
	liveChanged chan struct{}
	liveErr     error

	// one-line notice under the active view (exports, store errors)
	status string

	initCmd tea.Cmd
}

// NewModel creates the portal model. If the shell already holds a session
// the model resumes it on its stored view.
func NewModel(ctx context.Context, shell *session.Shell, client backend.Client, opts ...Option) Model {
	input := textinput.New()
	input.Placeholder = "Access token"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 256
	input.Width = 40
	input.Focus()

	m := Model{
		ctx:         ctx,
		shell:       shell,
		client:      client,
		keys:        DefaultKeyMap,
		theme:       DefaultTheme,
		exportDir:   ".",
		input:       input,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		liveChanged: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(&m)
	}

	if data, err := shell.Current(ctx); err == nil {
		m.initCmd = m.beginSession(data)
	} else if !errors.Is(err, internal.ErrNotAuthenticated) {
		internal.LogWarn("Could not restore session: %v", err)
	}
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForLive(m.liveChanged), m.initCmd)
}

// Authenticated reports whether a session is active
func (m Model) Authenticated() bool {
	return m.session != nil
}

// ActiveView returns the current view, or "" while logged out
func (m Model) ActiveView() session.View {
	if m.session == nil {
		return ""
	}
	return m.session.ActiveView
}

// Shutdown stops live monitoring. Call it after the program exits.
func (m Model) Shutdown() {
	if m.monitor != nil {
		m.monitor.Stop()
	}
}

// coalesce returns a change callback that never blocks: at most one
// notification is pending on ch at a time
func coalesce(ch chan<- struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Update implements tea.Model
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(message)
		return m, cmd

	case liveChangedMsg:
		return m, waitForLive(m.liveChanged)

	case loginMsg:
		return m.handleLogin(message)

	case metricsMsg:
		if !m.current(message.loginID) {
			return m, nil
		}
		m.loadingMetrics = false
		m.metrics, m.metricsErr = message.metrics, message.err
		return m, nil

	case transcriptsMsg:
		if !m.current(message.loginID) {
			return m, nil
		}
		m.loadingTranscripts = false
		m.transcriptsErr = message.err
		if message.err == nil {
			m.transcripts = message.transcripts
			m.transcriptsLoaded = true
			m.clampCursor()
		}
		return m, nil

	case logsMsg:
		if !m.current(message.loginID) || message.transcriptID != m.logsFor {
			return m, nil
		}
		m.loadingLogs = false
		m.logs, m.logsErr = message.logs, message.err
		return m, nil

	case exportMsg:
		if !m.current(message.loginID) {
			return m, nil
		}
		switch {
		case message.err != nil:
			m.status = "Export failed: " + message.err.Error()
		case message.empty:
			m.status = "Transcript has no messages; wrote header only to " + message.path
		default:
			m.status = "Exported to " + message.path
		}
		return m, nil

	case liveStartedMsg:
		if !m.current(message.loginID) {
			return m, nil
		}
		if message.err != nil && !errors.Is(message.err, live.ErrAlreadyListening) {
			m.liveErr = message.err
		}
		return m, nil

	case tea.KeyMsg:
		if m.session == nil {
			return m.handleLoginKeys(message)
		}
		return m.handleKeys(message)
	}

	if m.session == nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(message)
		return m, cmd
	}
	return m, nil
}

func (m Model) current(loginID string) bool {
	return m.session != nil && m.session.LoginID == loginID
}

func (m Model) busy() bool {
	return m.validating || m.loadingMetrics || m.loadingTranscripts || m.loadingLogs
}

func (m Model) handleLoginKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(message, m.keys.Submit):
		if m.validating {
			return m, nil
		}
		m.validating = true
		return m, tea.Batch(m.login(m.input.Value()), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(message)
	return m, cmd
}

func (m Model) handleLogin(message loginMsg) (tea.Model, tea.Cmd) {
	m.validating = false
	if message.err != nil {
		// The token stays in the input so it can be corrected
		if internal.IsInvalidToken(message.err) {
			m.authErr = InvalidTokenMessage
		} else {
			m.authErr = "Sign in failed: " + message.err.Error()
		}
		return m, nil
	}
	m.authErr = ""
	m.input.Reset()
	cmd := m.beginSession(message.data)
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// beginSession mirrors a fresh or restored session and loads its view
func (m *Model) beginSession(data *session.SessionData) tea.Cmd {
	m.session = data
	m.monitor = live.NewMonitor(m.client, data.Customer.ProjectID, live.WithOnChange(coalesce(m.liveChanged)))
	return m.loadView(data.ActiveView)
}

// endSession drops everything tied to the session and returns to the gate
func (m *Model) endSession() {
	if m.monitor != nil {
		m.monitor.Stop()
	}
	m.session = nil
	m.monitor = nil
	m.metrics, m.metricsErr, m.loadingMetrics = nil, nil, false
	m.transcripts, m.transcriptsErr = nil, nil
	m.transcriptsLoaded, m.loadingTranscripts = false, false
	m.cursor = 0
	m.detail = false
	m.logs, m.logsFor, m.logsErr, m.loadingLogs = nil, "", nil, false
	m.liveErr = nil
	m.status = ""
	m.input.Reset()
	m.input.Focus()
}

func (m Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit):
		if m.monitor != nil {
			m.monitor.Stop()
		}
		return m, tea.Quit

	case key.Matches(message, m.keys.Logout):
		if err := m.shell.Logout(m.ctx); err != nil {
			m.status = "Logout failed: " + err.Error()
			return m, nil
		}
		m.endSession()
		return m, textinput.Blink

	case key.Matches(message, m.keys.Dashboard):
		return m.switchView(session.ViewDashboard)
	case key.Matches(message, m.keys.Transcripts):
		return m.switchView(session.ViewTranscripts)
	case key.Matches(message, m.keys.Live):
		return m.switchView(session.ViewLive)
	case key.Matches(message, m.keys.Settings):
		return m.switchView(session.ViewSettings)

	case key.Matches(message, m.keys.Refresh):
		return m, m.refresh()
	}

	switch m.session.ActiveView {
	case session.ViewTranscripts:
		return m.handleTranscriptKeys(message)
	case session.ViewLive:
		if key.Matches(message, m.keys.Toggle) {
			return m, m.toggleLive()
		}
	}
	return m, nil
}

func (m Model) switchView(view session.View) (tea.Model, tea.Cmd) {
	data, err := m.shell.SetView(m.ctx, view)
	switch {
	case errors.Is(err, internal.ErrNotAuthenticated):
		// Logged out from another process
		m.endSession()
		m.authErr = "Session ended. Please sign in again."
		return m, textinput.Blink
	case err != nil:
		m.status = "Could not save view: " + err.Error()
		m.session.ActiveView = view
	default:
		m.session = data
		m.status = ""
	}
	return m, m.withSpinner(m.loadView(view))
}

func (m Model) handleTranscriptKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail {
		switch {
		case key.Matches(message, m.keys.Back):
			m.detail = false
		case key.Matches(message, m.keys.Export):
			return m, m.exportSelected()
		}
		return m, nil
	}

	switch {
	case key.Matches(message, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(message, m.keys.Down):
		if m.cursor < len(m.transcripts)-1 {
			m.cursor++
		}
	case key.Matches(message, m.keys.Open):
		return m, m.withSpinner(m.openDetail())
	case key.Matches(message, m.keys.Export):
		return m, m.exportSelected()
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.transcripts) {
		m.cursor = len(m.transcripts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (internal.Transcript, bool) {
	if m.cursor < 0 || m.cursor >= len(m.transcripts) {
		return internal.Transcript{}, false
	}
	return m.transcripts[m.cursor], true
}

func (m *Model) openDetail() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	m.detail = true
	if m.logsFor == t.ID && m.logsErr == nil && !m.loadingLogs {
		return nil
	}
	return m.fetchLogs(t.ID)
}

func (m *Model) refresh() tea.Cmd {
	switch m.session.ActiveView {
	case session.ViewDashboard:
		m.metrics = nil
	case session.ViewTranscripts:
		if m.detail {
			return m.withSpinner(m.fetchLogs(m.logsFor))
		}
		m.transcriptsLoaded = false
	}
	return m.withSpinner(m.loadView(m.session.ActiveView))
}

// loadView starts whatever fetch the view still needs
func (m *Model) loadView(view session.View) tea.Cmd {
	switch view {
	case session.ViewDashboard:
		if m.metrics == nil && !m.loadingMetrics {
			return m.fetchMetrics()
		}
	case session.ViewTranscripts:
		if !m.transcriptsLoaded && !m.loadingTranscripts {
			return m.fetchTranscripts()
		}
	}
	return nil
}

func (m *Model) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *Model) toggleLive() tea.Cmd {
	if m.monitor.Listening() {
		m.monitor.Stop()
		return nil
	}
	m.liveErr = nil
	return m.startLive()
}

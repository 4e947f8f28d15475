package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/tui"
)

func login(t *testing.T) {
	t.Helper()
	stdout, _, err := execute(t, "", "login", "abcd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stdout, "Signed in as Acme Corp") {
		t.Fatalf("login output:\n%s", stdout)
	}
}

// cachedTranscripts returns the list written by the last transcripts run
func cachedTranscripts(t *testing.T) []internal.Transcript {
	t.Helper()
	transcripts, err := internal.NewCacheManager(cfg.CacheDir(), 0).LoadTranscripts("vf_proj_12345")
	if err != nil {
		t.Fatalf("LoadTranscripts: %v", err)
	}
	return transcripts
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantErr    bool
		wantStdout string
	}{
		{name: "argument", args: []string{"login", "abcd"}, wantStdout: "vf_proj_12345"},
		{name: "stdin", args: []string{"login"}, stdin: "secret-token\n", wantStdout: "Signed in as Acme Corp"},
		{name: "too short", args: []string{"login", "ab"}, wantErr: true},
		{name: "empty stdin", args: []string{"login"}, stdin: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)
			stdout, stderr, err := execute(t, tt.stdin, tt.args...)
			if tt.wantErr {
				if !internal.IsInvalidToken(err) {
					t.Fatalf("error = %v, want InvalidTokenError", err)
				}
				if !strings.Contains(stderr, tui.InvalidTokenMessage) {
					t.Errorf("stderr missing inline message:\n%s", stderr)
				}
				if _, _, err := execute(t, "", "metrics"); !errors.Is(err, internal.ErrNotAuthenticated) {
					t.Errorf("after failed login, metrics error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	setupEnv(t)
	login(t)

	stdout, _, err := execute(t, "", "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(stdout, "Signed out") {
		t.Errorf("logout output:\n%s", stdout)
	}

	stdout, _, err = execute(t, "", "logout")
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if !strings.Contains(stdout, "Not signed in") {
		t.Errorf("second logout output:\n%s", stdout)
	}
}

func TestMetricsCommand(t *testing.T) {
	setupEnv(t)
	login(t)

	stdout, _, err := execute(t, "", "metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	for _, want := range []string{"Acme Corp", "1,245", "8,430", "4m 12s", "check_balance", "Sat"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("metrics output missing %q:\n%s", want, stdout)
		}
	}
}

func TestSettingsCommand(t *testing.T) {
	setupEnv(t)
	login(t)

	stdout, _, err := execute(t, "", "settings")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	for _, want := range []string{"vf_proj_12345", "production", "simulated", "sqlite"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("settings output missing %q:\n%s", want, stdout)
		}
	}
}

func TestTranscriptsCommand(t *testing.T) {
	setupEnv(t)
	login(t)

	stdout, _, err := execute(t, "", "transcripts")
	if err != nil {
		t.Fatalf("transcripts: %v", err)
	}
	if !strings.Contains(stdout, "Found 20 transcript(s)") {
		t.Fatalf("transcripts output:\n%s", stdout)
	}
	first := cachedTranscripts(t)

	// A second run is served from cache: same ids even though every
	// process generates its own mock data
	stdout, _, err = execute(t, "", "transcripts")
	if err != nil {
		t.Fatalf("cached transcripts: %v", err)
	}
	if !strings.Contains(stdout, first[0].ID) {
		t.Errorf("cached listing missing %s:\n%s", first[0].ID, stdout)
	}

	if _, _, err := execute(t, "", "transcripts", "--refresh"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := cachedTranscripts(t); got[0].ID == first[0].ID {
		t.Errorf("--refresh kept cached id %s", got[0].ID)
	}

	stdout, _, err = execute(t, "", "transcripts", "--status", "abandoned")
	if err != nil {
		t.Fatalf("status filter: %v", err)
	}
	if strings.Contains(stdout, "completed") {
		t.Errorf("abandoned filter listed completed transcripts:\n%s", stdout)
	}

	if _, _, err := execute(t, "", "transcripts", "--status", "bogus"); err == nil {
		t.Error("unknown status should fail")
	}
}

func TestShowCommand(t *testing.T) {
	setupEnv(t)
	login(t)
	if _, _, err := execute(t, "", "transcripts"); err != nil {
		t.Fatalf("transcripts: %v", err)
	}
	tr := cachedTranscripts(t)[0]

	stdout, _, err := execute(t, "", "show", tr.ID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{tr.ID, "Status: " + string(tr.Status), "Messages: 10", "[1/10]", "User", "Assistant", "Hello, I need help."} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = execute(t, "", "show", tr.ID, "--limit", "3")
	if err != nil {
		t.Fatalf("show --limit: %v", err)
	}
	if !strings.Contains(stdout, "7 more message(s)") {
		t.Errorf("limited output:\n%s", stdout)
	}

	if _, _, err := execute(t, "", "show", tr.ID, "--since", "yesterday"); err == nil {
		t.Error("invalid --since should fail")
	}
}

func TestExportCommand(t *testing.T) {
	setupEnv(t)
	login(t)
	out := t.TempDir()

	stdout, _, err := execute(t, "", "export", "trans_abc", "--out", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	path := filepath.Join(out, "trans_abc_export.csv")
	if !strings.Contains(stdout, path) {
		t.Errorf("export output missing path:\n%s", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("csv has %d lines, want 11", len(lines))
	}
	if lines[0] != "Timestamp,Speaker,Message" {
		t.Errorf("header = %q", lines[0])
	}

	stdout, _, err = execute(t, "", "export", "trans_abc", "--format", "md", "--out", "-")
	if err != nil {
		t.Fatalf("export md: %v", err)
	}
	if !strings.Contains(stdout, "Hello, I need help.") {
		t.Errorf("markdown on stdout:\n%s", stdout)
	}
}

func TestExportCommand_InvalidFormat(t *testing.T) {
	// Format is checked before the session, so no login is needed
	setupEnv(t)
	_, _, err := execute(t, "", "export", "trans_abc", "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error = %v, want unsupported format", err)
	}
}

func TestLiveCommand(t *testing.T) {
	setupEnv(t)
	login(t)

	stdout, _, err := execute(t, "", "live", "--turns", "2", "--turn-interval", "1ms", "--reply-delay", "1ms")
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	for _, want := range []string{"Connected to session live_", "User message simulation 1", "turn 2.", "Session ended.", "Last session completed"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("live output missing %q:\n%s", want, stdout)
		}
	}
	if n := strings.Count(stdout, "Assistant:"); n != 2 {
		t.Errorf("got %d assistant lines, want 2", n)
	}

	if _, _, err := execute(t, "", "live", "--turns", "0"); err == nil {
		t.Error("--turns 0 should fail")
	}
}

func TestHealthcheckCommand(t *testing.T) {
	setupEnv(t)

	stdout, _, err := execute(t, "", "healthcheck")
	if err != nil {
		t.Fatalf("healthcheck: %v", err)
	}
	for _, want := range []string{"store read/write OK", "Simulated backend responding", "Not signed in", "Cache directory writable"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("healthcheck output missing %q:\n%s", want, stdout)
		}
	}

	login(t)
	stdout, _, err = execute(t, "", "--verbose", "healthcheck")
	if err != nil {
		t.Fatalf("healthcheck after login: %v", err)
	}
	for _, want := range []string{"Signed in as Acme Corp", "Health check passed", "Total sessions: 1245"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("healthcheck output missing %q:\n%s", want, stdout)
		}
	}
}

func TestActiveViewRecorded(t *testing.T) {
	setupEnv(t)
	login(t)

	if _, _, err := execute(t, "", "settings"); err != nil {
		t.Fatalf("settings: %v", err)
	}
	p, err := openPortal()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	data, err := p.shell.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data.ActiveView != "settings" {
		t.Errorf("ActiveView = %q, want settings", data.ActiveView)
	}
}

// Package testutil holds fixtures shared by the portal's package tests
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/voiceflow-portal/internal/backend"
	"github.com/iksnae/voiceflow-portal/internal/live"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

// ValidToken is accepted by the mock backend
const ValidToken = "abcd"

// FastMockClient returns a deterministic mock backend with no fetch latency
// and a live feed of turns scripted turns paced in milliseconds
func FastMockClient(turns int, opts ...backend.MockOption) *backend.MockClient {
	base := []backend.MockOption{
		backend.NoLatency(),
		backend.WithSeed(1),
		backend.WithFeedOptions(live.Options{
			Turns:        turns,
			ReplyDelay:   time.Millisecond,
			TurnInterval: 2 * time.Millisecond,
		}),
	}
	return backend.NewMockClient(append(base, opts...)...)
}

// NewStore opens a store of the given type that is closed when the test
// ends. sqlite stores live in a temporary directory.
func NewStore(t *testing.T, storeType session.StoreType) session.Store {
	t.Helper()
	var opts []session.StoreOption
	if storeType == session.StoreTypeSQLite {
		opts = append(opts, session.WithSQLitePath(filepath.Join(t.TempDir(), "sessions.db")))
	}
	store, err := session.NewStore(storeType, opts...)
	if err != nil {
		t.Fatalf("Failed to open %s store: %v", storeType, err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// LoggedInShell returns a shell on store that is signed in with ValidToken
func LoggedInShell(t *testing.T, store session.Store, client backend.Client) (*session.Shell, *session.SessionData) {
	t.Helper()
	shell := session.NewShell(store, client, "")
	data, err := shell.Login(context.Background(), ValidToken)
	if err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}
	return shell, data
}

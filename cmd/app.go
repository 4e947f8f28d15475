package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/backend"
	"github.com/iksnae/voiceflow-portal/internal/session"
)

// portal bundles what every signed-in command needs
type portal struct {
	client backend.Client
	store  session.Store
	shell  *session.Shell
}

// newClient returns the simulated backend unless an API URL is configured.
// mockOpts only apply to the simulation.
func newClient(mockOpts ...backend.MockOption) backend.Client {
	if !cfg.UseMock() {
		internal.LogDebug("using analytics API at %s", cfg.APIURL)
		return backend.NewHTTPClient(cfg.APIURL)
	}
	return newMockClient(mockOpts...)
}

func newMockClient(opts ...backend.MockOption) *backend.MockClient {
	if cfg.NoLatency {
		opts = append([]backend.MockOption{backend.NoLatency()}, opts...)
	}
	return backend.NewMockClient(opts...)
}

func openStore() (session.Store, error) {
	var opts []session.StoreOption
	switch cfg.StoreType {
	case session.StoreTypeSQLite:
		opts = append(opts, session.WithSQLitePath(cfg.SessionPath()))
	case session.StoreTypeRedis:
		opts = append(opts, session.WithRedisURL(cfg.RedisURL))
	}
	store, err := session.NewStore(cfg.StoreType, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

func openPortal(mockOpts ...backend.MockOption) (*portal, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	client := newClient(mockOpts...)
	return &portal{
		client: client,
		store:  store,
		shell:  session.NewShell(store, client, cfg.Profile),
	}, nil
}

func (p *portal) Close() {
	if err := p.store.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
}

// enter loads the session and records view as active. Commands for a view
// fail with ErrNotAuthenticated when nobody is signed in.
func (p *portal) enter(ctx context.Context, view session.View) (*session.SessionData, error) {
	return p.shell.SetView(ctx, view)
}

// signalContext is cancelled on Ctrl-C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

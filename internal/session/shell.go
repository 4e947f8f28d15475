package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iksnae/voiceflow-portal/internal"
)

// DefaultProfile is the session id used when none is configured
const DefaultProfile = "default"

// Validator checks access tokens. backend.Client satisfies it.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (*internal.CustomerConfig, error)
}

// Shell owns authentication state: a session is created on login and
// destroyed on logout
type Shell struct {
	store     Store
	validator Validator
	profile   string
}

// NewShell creates a shell for profile. An empty profile uses DefaultProfile.
func NewShell(store Store, validator Validator, profile string) *Shell {
	if profile == "" {
		profile = DefaultProfile
	}
	return &Shell{store: store, validator: validator, profile: profile}
}

// Profile returns the session id the shell manages
func (s *Shell) Profile() string {
	return s.profile
}

// Login validates token and starts a fresh session on the dashboard. A
// rejected token leaves any existing session untouched.
func (s *Shell) Login(ctx context.Context, token string) (*SessionData, error) {
	cfg, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	data := &SessionData{
		ID:         s.profile,
		LoginID:    uuid.NewString(),
		Customer:   *cfg,
		ActiveView: ViewDashboard,
	}
	if err := s.store.Create(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	internal.LogInfo("Logged in as %s (project %s)", cfg.Name, cfg.ProjectID)
	return data, nil
}

// Logout destroys the session. The next login starts on the dashboard.
func (s *Shell) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.profile); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	internal.LogInfo("Logged out of profile %s", s.profile)
	return nil
}

// Current returns the active session or ErrNotAuthenticated
func (s *Shell) Current(ctx context.Context) (*SessionData, error) {
	data, err := s.store.Get(ctx, s.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if data == nil {
		return nil, internal.ErrNotAuthenticated
	}
	return data, nil
}

// IsAuthenticated reports whether a session exists
func (s *Shell) IsAuthenticated(ctx context.Context) bool {
	_, err := s.Current(ctx)
	return err == nil
}

// SetView records the active view, retrying once on a concurrent update
func (s *Shell) SetView(ctx context.Context, view View) (*SessionData, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, err := s.Current(ctx)
		if err != nil {
			return nil, err
		}
		if data.ActiveView == view {
			return data, nil
		}
		data.ActiveView = view
		lastErr = s.store.Update(ctx, data)
		if lastErr == nil {
			return data, nil
		}
		if errors.Is(lastErr, ErrSessionNotFound) {
			return nil, internal.ErrNotAuthenticated
		}
		if !errors.Is(lastErr, ErrVersionConflict) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Package session holds the logged in portal session: who the customer is
// and which view is active. Sessions persist in a Store so separate CLI
// invocations share one login.
package session

import (
	"fmt"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
)

// View names a top-level portal screen
type View string

const (
	ViewDashboard   View = "dashboard"
	ViewTranscripts View = "transcripts"
	ViewLive        View = "live"
	ViewSettings    View = "settings"
)

// Views lists the screens in navigation order
var Views = []View{ViewDashboard, ViewTranscripts, ViewLive, ViewSettings}

// ParseView validates a view name
func ParseView(name string) (View, error) {
	for _, v := range Views {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (want dashboard, transcripts, live or settings)", name)
}

// SessionData is the persisted session context.
// Version increases on every update and guards against lost writes.
type SessionData struct {
	ID         string                  `json:"id"`       // profile name
	LoginID    string                  `json:"login_id"` // fresh uuid per login
	Customer   internal.CustomerConfig `json:"customer"`
	ActiveView View                    `json:"active_view"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
	Version    int64                   `json:"version"`
}

func (d *SessionData) clone() *SessionData {
	c := *d
	return &c
}

// Package plugin discovers and runs external hook executables that react to
// game events such as a finished run or a defeated boss.
package plugin

import "encoding/json"

// Manifest describes a hook and the events it subscribes to. It is read from
// plugin.json in the hook's directory.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the hook wants event.
func (m *Manifest) Subscribes(event string) bool {
	for _, e := range m.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// Request is written to the hook's stdin as JSON.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"sessionId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Score     int             `json:"score"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered hook.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

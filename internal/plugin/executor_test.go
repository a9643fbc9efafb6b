package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeHook creates an executable shell hook in a fresh directory.
func writeHook(t *testing.T, name, script string, events ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	exe := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manifest := Manifest{Name: name, Version: "1.0.0", Executable: name + ".sh", Events: events}
	data, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}
}

func TestExecutor_Execute(t *testing.T) {
	p := writeHook(t, "ok", `echo '{"success":true,"data":{"message":"saved"}}'
`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Event: "game-over", Score: 10})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "saved" {
		t.Errorf("message = %q, want saved", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	p := writeHook(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)
	p.Manifest.Config = json.RawMessage(`{"file":"scores.csv"}`)

	req := &Request{Event: "game-over", SessionID: "abc", Name: "Ada", Score: 321}
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Name != "Ada" || got.Score != 321 || got.SessionID != "abc" || got.Event != "game-over" {
		t.Errorf("echoed request = %+v", got)
	}
	if string(got.Config) != `{"file":"scores.csv"}` {
		t.Errorf("manifest config not attached: %s", got.Config)
	}
	if len(req.Config) != 0 {
		t.Error("caller's request should not be modified")
	}
}

func TestExecutor_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		check   func(t *testing.T, err error)
	}{
		{
			name:    "timeout",
			script:  "exec sleep 5\n",
			timeout: 100 * time.Millisecond,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrTimeout) {
					t.Errorf("error = %v, want ErrTimeout", err)
				}
			},
		},
		{
			name:    "non-zero exit includes stderr",
			script:  "echo 'disk full' >&2\nexit 1\n",
			timeout: 5 * time.Second,
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "disk full") {
					t.Errorf("error = %v, want stderr in message", err)
				}
			},
		},
		{
			name:    "invalid json",
			script:  "echo not-json\n",
			timeout: 5 * time.Second,
			check: func(t *testing.T, err error) {
				if err == nil || !strings.Contains(err.Error(), "parse response") {
					t.Errorf("error = %v, want parse error", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeHook(t, "bad", tt.script)

			resp, err := NewExecutor(tt.timeout).Execute(context.Background(), p, &Request{Event: "game-over"})
			if resp != nil {
				t.Errorf("expected nil response, got %+v", resp)
			}
			tt.check(t, err)
		})
	}
}

func TestExecutor_Execute_MissingExecutable(t *testing.T) {
	p := &Plugin{
		Manifest:   Manifest{Name: "ghost", Executable: "nope"},
		Path:       t.TempDir(),
		Executable: "/nonexistent/nope",
	}

	if _, err := NewExecutor(time.Second).Execute(context.Background(), p, &Request{}); err == nil {
		t.Error("expected error for missing executable")
	}
}

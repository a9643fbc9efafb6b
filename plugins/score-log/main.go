// Package main is a hook that appends game events to a CSV file.
//
// It reads one request from stdin and writes one response to stdout. The
// output file is taken from the manifest config and resolved against the
// plugin directory.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Request mirrors the executor's stdin payload.
type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"sessionId"`
	Name      string          `json:"name"`
	Score     int             `json:"score"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config"`
}

// Response is written to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the hook's manifest config.
type Config struct {
	File string `json:"file"`
}

const defaultFile = "scores.csv"

var header = []string{"time", "event", "name", "score", "session"}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	path, err := outputPath(req.Config)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	if err := appendRow(path, req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("append %s: %v", path, err)})
		return
	}

	data, _ := json.Marshal(map[string]string{"file": path})
	writeResponse(Response{Success: true, Data: data})
}

func outputPath(raw json.RawMessage) (string, error) {
	cfg := Config{File: defaultFile}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.File == "" {
		cfg.File = defaultFile
	}
	return filepath.Abs(cfg.File)
}

// appendRow writes req as one CSV record, adding a header to a new file.
func appendRow(path string, req Request) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		w.Write(header)
	}

	ts := time.Now()
	if req.Timestamp > 0 {
		ts = time.UnixMilli(req.Timestamp)
	}
	w.Write([]string{
		ts.UTC().Format(time.RFC3339),
		req.Event,
		req.Name,
		strconv.Itoa(req.Score),
		req.SessionID,
	})
	w.Flush()
	return w.Error()
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a structured debug event for JSONL output.
type Event struct {
	Timestamp string         `json:"ts"`
	Event     string         `json:"event"`
	Session   string         `json:"session"`
	ActionID  string         `json:"action_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Tracer writes structured events to JSONL files.
// It is only active when debug mode is enabled.
type Tracer struct {
	mu          sync.Mutex
	sessionID   string
	actionID    string // correlates the events of one calibration action or poll tick
	sessionFile *os.File
	enabled     bool
	debugDir    string
	sessionPath string
}

// NewTracer creates a new tracer.
// If debugMode is false, the tracer will be inactive (no-op).
func NewTracer(debugDir string, debugMode bool) (*Tracer, error) {
	t := &Tracer{
		enabled:  debugMode,
		debugDir: debugDir,
	}

	if !debugMode {
		return t, nil
	}

	if err := os.MkdirAll(debugDir, 0755); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}

	t.sessionID = generateID("run_")

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	sessionPath := filepath.Join(debugDir, fmt.Sprintf("trace_%s.jsonl", timestamp))
	sessionFile, err := os.OpenFile(sessionPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	t.sessionFile = sessionFile
	t.sessionPath = sessionPath

	latestPath := filepath.Join(debugDir, "latest.jsonl")
	_ = os.Remove(latestPath)
	_ = os.Symlink(sessionPath, latestPath)

	t.logEvent(EventRunStart, map[string]any{
		"session_id": t.sessionID,
		"debug_dir":  debugDir,
		"pid":        os.Getpid(),
	})

	return t, nil
}

// IsEnabled returns whether tracing is active.
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// GetSessionID returns the current session ID.
func (t *Tracer) GetSessionID() string {
	if t == nil {
		return ""
	}
	return t.sessionID
}

// SetActionID sets the current correlation ID.
func (t *Tracer) SetActionID(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actionID = id
}

// NewActionID generates and sets a new correlation ID.
func (t *Tracer) NewActionID() string {
	id := GenerateActionID()
	t.SetActionID(id)
	return id
}

// ClearActionID clears the current correlation ID.
func (t *Tracer) ClearActionID() {
	t.SetActionID("")
}

// Event logs a structured event.
func (t *Tracer) Event(eventType string, fields ...Field) {
	if t == nil || !t.enabled {
		return
	}
	t.logEvent(eventType, fieldsToMap(fields))
}

// EventWithData logs a structured event with additional data.
func (t *Tracer) EventWithData(eventType string, data map[string]any, fields ...Field) {
	if t == nil || !t.enabled {
		return
	}

	merged := make(map[string]any, len(data)+len(fields))
	for k, v := range data {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	t.logEvent(eventType, merged)
}

func (t *Tracer) logEvent(eventType string, data map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessionFile == nil {
		return
	}

	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Event:     eventType,
		Session:   t.sessionID,
		ActionID:  t.actionID,
		Data:      data,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	_, _ = t.sessionFile.Write(append(line, '\n'))
}

// GetPath returns the path to the trace file.
func (t *Tracer) GetPath() string {
	if t == nil {
		return ""
	}
	return t.sessionPath
}

// Close closes the tracer and logs run end.
func (t *Tracer) Close() error {
	if t == nil || !t.enabled {
		return nil
	}

	t.logEvent(EventRunEnd, map[string]any{
		"session_id": t.sessionID,
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessionFile == nil {
		return nil
	}
	err := t.sessionFile.Close()
	t.sessionFile = nil
	return err
}

func generateID(prefix string) string {
	return prefix + uuid.NewString()
}

// GenerateActionID creates a unique correlation identifier.
func GenerateActionID() string {
	return generateID("act_")
}

package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is one line of the JSONL audit log under .agtx/logs/.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	TaskSlug  string                 `json:"task_slug,omitempty"`
	From      string                 `json:"from,omitempty"`
	To        string                 `json:"to,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AuditLogger appends task lifecycle events to a JSONL file. It exists so a
// failed multi-step transition leaves a trail of exactly which side effects
// ran before the failure.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens (or creates) the audit log at logPath.
func NewAuditLogger(logPath string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLogger{file: file}, nil
}

// Record writes one entry. Slug/from/to land in dedicated columns; anything
// else goes into details.
func (l *AuditLogger) Record(eventType EventType, data map[string]interface{}) error {
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		EventType: string(eventType),
		Details:   data,
	}
	if slug, ok := data["slug"].(string); ok {
		entry.TaskSlug = slug
	}
	if from, ok := data["from"].(string); ok {
		entry.From = from
	}
	if to, ok := data["to"].(string); ok {
		entry.To = to
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return l.file.Sync()
}

// Attach subscribes the logger to every task lifecycle event on bus.
// Returns a function that detaches it again.
func (l *AuditLogger) Attach(bus *Bus) func() {
	types := []EventType{EventTaskCreated, EventTaskMoved, EventTaskDeleted}
	unsubs := make([]func(), 0, len(types))
	for _, et := range types {
		et := et
		unsubs = append(unsubs, bus.Subscribe(et, func(e Event) {
			_ = l.Record(et, e.Data)
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Package audit provides structured event logging for instance lifecycle events.
// Events are stored as JSON Lines (JSONL) files, one per instance.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventCreate    EventType = "create"
	EventStart     EventType = "start"
	EventStop      EventType = "stop"
	EventRemove    EventType = "remove"
	EventReconcile EventType = "reconcile"
	EventDispatch  EventType = "dispatch"
	EventTakeover  EventType = "takeover"
	EventRelease   EventType = "release"
	EventCleanup   EventType = "cleanup"
	EventHealth    EventType = "health"
	EventError     EventType = "error"
)

const fileSuffix = ".jsonl"

// Event represents a single audit log entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Instance  string    `json:"instance"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads audit events for instances.
// Events are stored in {dir}/{name}.jsonl.
type Logger struct {
	dir string
}

// NewLogger creates a new audit logger writing under dir.
func NewLogger(dir string) *Logger {
	return &Logger{dir: dir}
}

// eventPath returns the path to the JSONL event log for an instance.
func (l *Logger) eventPath(instance string) string {
	return filepath.Join(l.dir, instance+fileSuffix)
}

// Log appends an event to the instance's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(l.eventPath(event.Instance), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, instance, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Instance:  instance,
		Details:   details,
	})
}

// Events reads all events for an instance in chronological order.
func (l *Logger) Events(instance string) ([]Event, error) {
	f, err := os.Open(l.eventPath(instance))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// All merges every instance's events, oldest first.
func (l *Logger) All() ([]Event, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	var all []Event
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		events, err := l.Events(strings.TrimSuffix(e.Name(), fileSuffix))
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all, nil
}

// Remove deletes the audit log for an instance.
func (l *Logger) Remove(instance string) error {
	if err := os.Remove(l.eventPath(instance)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

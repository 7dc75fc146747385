package config

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/move-everything/installer/internal/models"
)

const defaultEventBufferSize = 200

// EventLogger is a logrus hook that remembers the last entries of this run
// so a diagnostics report can include them.
type EventLogger struct {
	session  uuid.UUID
	capacity int

	mu      sync.Mutex
	entries []*models.LogEntry
}

func NewEventLogger(capacity int) *EventLogger {
	if capacity <= 0 {
		capacity = defaultEventBufferSize
	}
	return &EventLogger{
		session:  uuid.New(),
		capacity: capacity,
		entries:  make([]*models.LogEntry, 0, capacity),
	}
}

// SessionID identifies this run in diagnostics reports.
func (l *EventLogger) SessionID() string {
	return l.session.String()
}

func (l *EventLogger) Levels() []logrus.Level {
	return logrus.AllLevels[:logrus.InfoLevel+1]
}

func (l *EventLogger) Fire(entry *logrus.Entry) error {
	captured := models.NewLogEntry(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.capacity-1]
	}
	l.entries = append(l.entries, captured)
	return nil
}

// Entries returns a copy of the captured entries, oldest first.
func (l *EventLogger) Entries() []*models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// LogFilter selects entries for Filter. Zero values match everything.
type LogFilter struct {
	Levels []logrus.Level `json:"levels,omitempty"`
	Since  *time.Time     `json:"since,omitempty"`
	// Limit keeps the newest matches.
	Limit int `json:"limit,omitempty"`
}

func (f LogFilter) matches(entry *models.LogEntry) bool {
	if len(f.Levels) > 0 && !slices.Contains(f.Levels, entry.Level) {
		return false
	}
	return f.Since == nil || !entry.Time.Before(*f.Since)
}

func (l *EventLogger) Filter(filter LogFilter) []*models.LogEntry {
	var matched []*models.LogEntry
	for _, entry := range l.Entries() {
		if filter.matches(entry) {
			matched = append(matched, entry)
		}
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[len(matched)-filter.Limit:]
	}
	return matched
}

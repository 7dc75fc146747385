package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is a captured log line. Error values in Data are stored as their
// text so entries always marshal.
type LogEntry struct {
	Time    time.Time     `json:"time"`
	Level   logrus.Level  `json:"level"`
	Message string        `json:"message"`
	Data    logrus.Fields `json:"data,omitempty"`
}

func NewLogEntry(entry *logrus.Entry) *LogEntry {
	var data logrus.Fields
	if len(entry.Data) > 0 {
		data = make(logrus.Fields, len(entry.Data))
		for key, value := range entry.Data {
			if err, ok := value.(error); ok {
				value = err.Error()
			}
			data[key] = value
		}
	}

	return &LogEntry{
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
		Data:    data,
	}
}

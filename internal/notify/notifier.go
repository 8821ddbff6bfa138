// Package notify is the user-facing notification side-channel. The engine
// reports catalog-load and report-generation failures here; validation
// errors never pass through this package, they are rendered inline.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier delivers a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, severity Severity, message string)
}

// LogNotifier writes notifications to the application log. It stands in for
// the console's toast channel when no delivery transport is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, severity Severity, message string) {
	switch severity {
	case SeverityError:
		n.logger.Error("notification", zap.String("severity", string(severity)), zap.String("message", message))
	case SeverityWarning:
		n.logger.Warn("notification", zap.String("severity", string(severity)), zap.String("message", message))
	default:
		n.logger.Info("notification", zap.String("severity", string(severity)), zap.String("message", message))
	}
}

// Recorder collects notifications in memory. For testing.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Severity Severity
	Message  string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, severity Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Severity: severity, Message: message})
}

// Entries returns a copy of all recorded notifications.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

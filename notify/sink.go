package notify

import "coursecast/logger"

// Status is a task lifecycle transition.
type Status string

const (
	StatusStarted Status = "started"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusAborted Status = "aborted"
)

// Sink receives task progress notifications. Sinks are observability only;
// nothing in the generation flow depends on what a sink does with an event.
type Sink interface {
	Notify(taskID string, status Status, message string)
}

// LogSink writes notifications to the application logger.
type LogSink struct {
	Log *logger.Logger
}

func (s *LogSink) Notify(taskID string, status Status, message string) {
	switch status {
	case StatusFailure, StatusAborted:
		s.Log.Warn("generation task", "task", taskID, "status", string(status), "message", message)
	default:
		s.Log.Info("generation task", "task", taskID, "status", string(status), "message", message)
	}
}

// Discard drops all notifications. Used in tests.
type Discard struct{}

func (Discard) Notify(string, Status, string) {}

// Multi fans a notification out to several sinks.
type Multi []Sink

func (m Multi) Notify(taskID string, status Status, message string) {
	for _, s := range m {
		s.Notify(taskID, status, message)
	}
}

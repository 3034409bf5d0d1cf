package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventCheckStarted    EventName = "check_started"
	EventReleaseSkipped  EventName = "release_skipped"
	EventUpdateAvailable EventName = "update_available"
	EventUpToDate        EventName = "up_to_date"
	EventInstallStarted  EventName = "install_started"
	EventInstallFinished EventName = "install_finished"
	EventInstallFailed   EventName = "install_failed"
	EventCheckFinished   EventName = "check_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	Tag       string         `json:"tag,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

package docsystem

import "time"

// Level is the severity of a user-facing notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Notifier is the notification sink consumed by the explorer controller.
type Notifier interface {
	Notify(message string, level Level)
}

// Notification is one message delivered to a Notifier
type Notification struct {
	Message string    `json:"message"`
	Level   Level     `json:"level"`
	At      time.Time `json:"at"`
}

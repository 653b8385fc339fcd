package explorer

import (
	"log/slog"
	"sync"
	"time"

	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

// maxPendingNotifications bounds an inbox nobody drains
const maxPendingNotifications = 100

// Inbox is a session's notification sink. Notifications queue until the
// client drains them with the next response; each is also logged.
type Inbox struct {
	mu      sync.Mutex
	pending []docsysSvc.Notification
	now     func() time.Time
	logger  *slog.Logger
}

// NewInbox creates an empty inbox
func NewInbox(logger *slog.Logger) *Inbox {
	return &Inbox{now: time.Now, logger: logger}
}

// Notify implements docsystem.Notifier
func (n *Inbox) Notify(message string, level docsysSvc.Level) {
	switch level {
	case docsysSvc.LevelError:
		n.logger.Error("notification", "message", message)
	case docsysSvc.LevelWarn:
		n.logger.Warn("notification", "message", message)
	default:
		n.logger.Debug("notification", "message", message, "level", level)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pending) == maxPendingNotifications {
		n.pending = n.pending[1:]
	}
	n.pending = append(n.pending, docsysSvc.Notification{Message: message, Level: level, At: n.now()})
}

// Drain returns and clears the pending notifications
func (n *Inbox) Drain() []docsysSvc.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []docsysSvc.Notification{}
	}
	return out
}

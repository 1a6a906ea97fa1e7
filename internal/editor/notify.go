package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a user-visible notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a toast shown to the user.
type Notification struct {
	ID      uuid.UUID `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier queues notifications until a client drains them. When full, the
// oldest are dropped.
type Notifier struct {
	mu    sync.Mutex
	queue []Notification
	limit int
}

const defaultNotifyLimit = 32

func NewNotifier(limit int) *Notifier {
	if limit <= 0 {
		limit = defaultNotifyLimit
	}
	return &Notifier{limit: limit}
}

func (n *Notifier) Notify(level Level, message string) Notification {
	note := Notification{
		ID:      uuid.New(),
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, note)
	if over := len(n.queue) - n.limit; over > 0 {
		n.queue = append([]Notification(nil), n.queue[over:]...)
	}
	return note
}

// Drain returns and clears the pending notifications, oldest first.
func (n *Notifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}

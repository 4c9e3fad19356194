package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/freegame-alerts/internal/notify"
)

type Notifier struct {
	Err error

	mu     sync.Mutex
	alerts []notify.Alert
	calls  int
}

func (n *Notifier) Send(ctx context.Context, alert notify.Alert) error {
	_ = ctx
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.Err != nil {
		return n.Err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

// Alerts returns successfully delivered alerts.
func (n *Notifier) Alerts() []notify.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Alert(nil), n.alerts...)
}

// Calls counts every Send attempt, failed ones included.
func (n *Notifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

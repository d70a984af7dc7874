// Package console prints unlock notifications and session summaries to a
// terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
)

// Notifier is an achievement observer that prints one line per unlock:
//
//	[NOTIF] Maria unlocked: math_novice
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a Notifier writing to out, or stdout when out is nil.
func NewNotifier(out io.Writer) *Notifier {
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{out: out}
}

// ObserverName implements achievement.NamedObserver.
func (n *Notifier) ObserverName() string { return "console" }

// OnUnlock implements achievement.Observer.
func (n *Notifier) OnUnlock(state *achievement.UserState, item achievement.Item) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "[NOTIF] %s unlocked: %s\n", state.Owner().Name, item.Name())
	return err
}

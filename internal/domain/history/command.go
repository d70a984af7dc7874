// Package history keeps an undoable log of user-visible actions.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// Command is a reversible action.
type Command interface {
	Description() string
	Execute() string
	Undo() string
}

// LogAction is a command that only records a description.
type LogAction struct {
	description string
}

// NewLogAction creates a LogAction.
func NewLogAction(description string) *LogAction {
	return &LogAction{description: description}
}

func (a *LogAction) Description() string { return a.description }
func (a *LogAction) Execute() string     { return a.description }
func (a *LogAction) Undo() string        { return a.description + " (undone)" }

// EntryStatus tells whether an entry is live or was undone.
type EntryStatus string

const (
	StatusExecuted EntryStatus = "executed"
	StatusUndone   EntryStatus = "undone"
)

// Entry is a persisted record of a command outcome.
type Entry struct {
	ID          string
	SessionID   string
	Description string
	Result      string
	Status      EntryStatus
	RecordedAt  time.Time
}

// Recorder persists history entries. Implementations live in infrastructure.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// History is the invoker: it executes commands and keeps them for undo.
type History struct {
	mu        sync.Mutex
	sessionID string
	commands  []Command
	recorder  Recorder
}

// New creates an empty history for a session. recorder may be nil.
func New(sessionID string, recorder Recorder) *History {
	return &History{sessionID: sessionID, recorder: recorder}
}

// Execute runs cmd, keeps it for undo and returns its result.
func (h *History) Execute(ctx context.Context, cmd Command) (string, error) {
	result := cmd.Execute()

	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	h.mu.Unlock()

	return result, h.record(ctx, cmd, result, StatusExecuted)
}

// UndoLast reverts the most recent command and returns the undo result.
func (h *History) UndoLast(ctx context.Context) (string, error) {
	h.mu.Lock()
	if len(h.commands) == 0 {
		h.mu.Unlock()
		return "", shared.ErrNothingToUndo
	}
	cmd := h.commands[len(h.commands)-1]
	h.commands = h.commands[:len(h.commands)-1]
	h.mu.Unlock()

	result := cmd.Undo()
	return result, h.record(ctx, cmd, result, StatusUndone)
}

// Clear forgets every command.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = nil
}

// Len returns the number of live commands.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.commands)
}

// Descriptions returns live command descriptions, oldest first.
func (h *History) Descriptions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.commands))
	for _, c := range h.commands {
		out = append(out, c.Description())
	}
	return out
}

func (h *History) record(ctx context.Context, cmd Command, result string, status EntryStatus) error {
	if h.recorder == nil {
		return nil
	}
	err := h.recorder.Record(ctx, Entry{
		ID:          uuid.New().String(),
		SessionID:   h.sessionID,
		Description: cmd.Description(),
		Result:      result,
		Status:      status,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		return shared.WrapError("history", "Record", shared.ErrExternalService, "persist history entry", err)
	}
	return nil
}

// Package session holds everything one run of the platform shares: the
// achievement registry, the notification hub, the action history and the
// users taking part.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/history"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// Options configures a Session. Every field is optional.
type Options struct {
	ID string

	Logger *logger.Logger

	// Publisher receives user and history events.
	Publisher shared.EventPublisher

	// Recorder persists the action history.
	Recorder history.Recorder
}

// Session is the shared context of a run. Create one per run and pass it to
// the handlers that need it.
type Session struct {
	id        string
	hub       *achievement.Hub
	registry  *achievement.Registry
	history   *history.History
	factory   *user.Factory
	publisher shared.EventPublisher
	logger    *logger.Logger

	mu     sync.RWMutex
	byID   map[string]*user.User
	byName map[string]*user.User
	order  []*user.User
}

// New creates an empty session with its own hub and registry.
func New(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	log := opts.Logger.With(logger.String("session_id", opts.ID))

	hub := achievement.NewHub(log)
	return &Session{
		id:        opts.ID,
		hub:       hub,
		registry:  achievement.NewRegistry(hub, log),
		history:   history.New(opts.ID, opts.Recorder),
		factory:   user.NewFactory(),
		publisher: opts.Publisher,
		logger:    log.With(logger.Component("session")),
		byID:      make(map[string]*user.User),
		byName:    make(map[string]*user.User),
	}
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) Hub() *achievement.Hub           { return s.hub }
func (s *Session) Registry() *achievement.Registry { return s.registry }
func (s *Session) History() *history.History       { return s.history }
func (s *Session) Logger() *logger.Logger          { return s.logger }

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

// CreateUser builds a user through the factory and adds it.
func (s *Session) CreateUser(role, name string) (*user.User, error) {
	u, err := s.factory.Create(role, name)
	if err != nil {
		return nil, err
	}
	if err := s.AddUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// AddUser makes u part of the session. IDs and names (case-insensitive) must
// be unique.
func (s *Session) AddUser(u *user.User) error {
	if u == nil {
		return shared.ErrInvalidInput
	}
	key := nameKey(u.Name)

	s.mu.Lock()
	if _, ok := s.byID[u.ID]; ok {
		s.mu.Unlock()
		return shared.ErrUserExists.Detail("user %s already in session", u.ID)
	}
	if _, ok := s.byName[key]; ok {
		s.mu.Unlock()
		return shared.ErrUserExists.Detail("user named %q already in session", u.Name)
	}
	s.byID[u.ID] = u
	s.byName[key] = u
	s.order = append(s.order, u)
	s.mu.Unlock()

	s.logger.Info("user joined", logger.UserID(u.ID), logger.UserName(u.Name), logger.String("role", string(u.Role)))
	s.Publish(shared.NewUserCreatedEvent(u.ID, u.Name, string(u.Role)))
	return nil
}

// User returns the user with id.
func (s *Session) User(id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrUserNotFound.Detail("no user with id %q", id)
	}
	return u, nil
}

// UserByName looks a user up by name, ignoring case.
func (s *Session) UserByName(name string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[nameKey(name)]
	if !ok {
		return nil, shared.ErrUserNotFound.Detail("no user named %q", name)
	}
	return u, nil
}

// Users returns users in the order they joined.
func (s *Session) Users() []*user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*user.User(nil), s.order...)
}

// Authenticate returns the named user when password matches their hash.
func (s *Session) Authenticate(name, password string) (*user.User, error) {
	u, err := s.UserByName(name)
	if err != nil {
		return nil, err
	}
	if err := u.CheckPassword(password); err != nil {
		s.logger.Warn("authentication failed", logger.UserID(u.ID), logger.Err(err))
		return nil, err
	}
	s.logger.Info("user authenticated", logger.UserID(u.ID), logger.String("role", string(u.Role)))
	return u, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// LogAction executes a LogAction on the history and returns its result.
// A persistence failure is returned after the action was kept in memory.
func (s *Session) LogAction(ctx context.Context, description string) (string, error) {
	result, err := s.history.Execute(ctx, history.NewLogAction(description))
	s.Publish(shared.NewActionEvent(shared.EventActionRecorded, s.id, description))
	if err != nil {
		s.logger.Warn("action not persisted", logger.String("action", description), logger.Err(err))
	}
	return result, err
}

// UndoLast reverts the latest action.
func (s *Session) UndoLast(ctx context.Context) (string, error) {
	result, err := s.history.UndoLast(ctx)
	if errors.Is(err, shared.ErrNothingToUndo) {
		return "", err
	}
	s.Publish(shared.NewActionEvent(shared.EventActionUndone, s.id, result))
	if err != nil {
		s.logger.Warn("undo not persisted", logger.String("action", result), logger.Err(err))
	}
	return result, err
}

// Actions lists live action descriptions, oldest first.
func (s *Session) Actions() []string {
	return s.history.Descriptions()
}

// Publish forwards event to the configured publisher. Failures are logged.
func (s *Session) Publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("event not published", logger.String("event_type", string(event.EventType())), logger.Err(err))
	}
}

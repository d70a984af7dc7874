// Package user contains the platform user: identity, role and the
// achievement state the engine evaluates.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// Role is the kind of participant.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleVisitor Role = "visitor"
)

// IsValid checks that the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleVisitor:
		return true
	}
	return false
}

// Title returns the capitalized role name.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// User is a participant with points and unlocked achievements.
type User struct {
	ID        string
	Name      string
	Role      Role
	CreatedAt time.Time

	passwordHash []byte
	state        *achievement.UserState
}

// NewUser creates a user with a fresh ID and empty achievement state.
func NewUser(role Role, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrEmptyName
	}
	if !role.IsValid() {
		return nil, shared.ErrUnknownRole.Detail("unknown user role %q", role)
	}

	id := uuid.New().String()
	return &User{
		ID:        id,
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		state:     achievement.NewUserState(achievement.Owner{ID: id, Name: name}),
	}, nil
}

// State returns the achievement state owned by this user.
func (u *User) State() *achievement.UserState {
	return u.state
}

// AddPoints adds points to the user's state.
func (u *User) AddPoints(points int) error {
	return u.state.AddPoints(points)
}

// Points returns the current total.
func (u *User) Points() int {
	return u.state.Points()
}

// Achievements returns unlocked achievement names in unlock order.
func (u *User) Achievements() []string {
	return u.state.UnlockedNames()
}

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return shared.ErrBadPassword.Detail("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("user", "SetPassword", shared.ErrInvalidInput, "hash password", err)
	}
	u.passwordHash = hash
	return nil
}

// HasPassword reports whether a password was set.
func (u *User) HasPassword() bool {
	return len(u.passwordHash) > 0
}

// CheckPassword verifies password against the stored hash.
// A user without a password never passes.
func (u *User) CheckPassword(password string) error {
	if !u.HasPassword() {
		return shared.ErrBadPassword.Detail("user %s has no password", u.Name)
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return shared.ErrBadPassword
	}
	return nil
}

func (u *User) String() string {
	return fmt.Sprintf("%s(name=%s, points=%d)", u.Role.Title(), u.Name, u.Points())
}

// Factory creates users from role names, e.g. from CLI input.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a user for a case-insensitive role name.
func (f *Factory) Create(role, name string) (*User, error) {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.IsValid() {
		return nil, shared.ErrUnknownRole.Detail("unknown user role %q", role)
	}
	return NewUser(r, name)
}

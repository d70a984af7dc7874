package achievement

import (
	"strings"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// Kind distinguishes atomic achievements from groups.
type Kind string

const (
	KindAtomic Kind = "atomic"
	KindGroup  Kind = "group"
)

// Summary is the reporting view of a definition.
type Summary struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Kind           Kind     `json:"kind" yaml:"kind"`
	PointsRequired int      `json:"points_required,omitempty" yaml:"points_required,omitempty"`
	Children       []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// Item is a registrable definition: *Achievement or *Group.
type Item interface {
	Name() string
	Description() string
	Kind() Kind
	ToSummary() Summary

	sealed()
}

// NameSet is a set of achievement names.
type NameSet map[string]struct{}

// NewNameSet builds a set from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s NameSet) add(name string) {
	s[name] = struct{}{}
}

// ══════════════════════════════════════════════════════════════════════════════
// ATOMIC ACHIEVEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Achievement unlocks once a user's point total reaches PointsRequired.
// It is immutable after construction.
type Achievement struct {
	name           string
	pointsRequired int
	description    string
}

// NewAchievement creates an atomic achievement.
func NewAchievement(name string, pointsRequired int, description string) (*Achievement, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidAchievement.Detail("achievement name cannot be empty")
	}
	if pointsRequired < 0 {
		return nil, shared.ErrInvalidAchievement.Detail("achievement %q: points required must not be negative", name)
	}
	return &Achievement{
		name:           name,
		pointsRequired: pointsRequired,
		description:    description,
	}, nil
}

func (a *Achievement) Name() string        { return a.name }
func (a *Achievement) Description() string { return a.description }
func (a *Achievement) PointsRequired() int { return a.pointsRequired }
func (a *Achievement) Kind() Kind          { return KindAtomic }
func (a *Achievement) sealed()             {}

// IsUnlocked reports whether the state has enough points.
func (a *Achievement) IsUnlocked(state *UserState) bool {
	return state.Points() >= a.pointsRequired
}

// ToSummary implements Item.
func (a *Achievement) ToSummary() Summary {
	return Summary{
		Name:           a.name,
		Description:    a.description,
		Kind:           KindAtomic,
		PointsRequired: a.pointsRequired,
	}
}

func (a *Achievement) String() string {
	return "Achievement(" + a.name + ")"
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUP
// ══════════════════════════════════════════════════════════════════════════════

// Group unlocks when every named child is already unlocked.
// Add and Remove are builder steps; the registry keeps its own copy.
type Group struct {
	name        string
	description string
	children    []string
}

// NewGroup creates a group over the given child names. Duplicate children are
// collapsed, keeping the first occurrence.
func NewGroup(name, description string, children ...string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidAchievement.Detail("group name cannot be empty")
	}
	g := &Group{name: name, description: description}
	for _, c := range children {
		g.Add(c)
	}
	return g, nil
}

// Add appends a child name if it is not already present.
func (g *Group) Add(child string) *Group {
	child = strings.TrimSpace(child)
	if child == "" {
		return g
	}
	for _, c := range g.children {
		if c == child {
			return g
		}
	}
	g.children = append(g.children, child)
	return g
}

// Remove drops a child name if present.
func (g *Group) Remove(child string) *Group {
	for i, c := range g.children {
		if c == child {
			g.children = append(g.children[:i:i], g.children[i+1:]...)
			break
		}
	}
	return g
}

func (g *Group) Name() string        { return g.name }
func (g *Group) Description() string { return g.description }
func (g *Group) Kind() Kind          { return KindGroup }
func (g *Group) sealed()             {}

// Children returns a copy of the child names in construction order.
func (g *Group) Children() []string {
	out := make([]string, len(g.children))
	copy(out, g.children)
	return out
}

// IsUnlocked reports whether every child is in unlocked.
// A group with no children is always satisfied.
func (g *Group) IsUnlocked(unlocked NameSet) bool {
	for _, c := range g.children {
		if !unlocked.Has(c) {
			return false
		}
	}
	return true
}

// ToSummary implements Item.
func (g *Group) ToSummary() Summary {
	return Summary{
		Name:        g.name,
		Description: g.description,
		Kind:        KindGroup,
		Children:    g.Children(),
	}
}

func (g *Group) String() string {
	return "Group(" + g.name + ") -> [" + strings.Join(g.children, ", ") + "]"
}

func (g *Group) clone() *Group {
	return &Group{
		name:        g.name,
		description: g.description,
		children:    g.Children(),
	}
}

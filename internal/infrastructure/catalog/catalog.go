// Package catalog loads achievement definitions from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

//go:embed default.yaml
var defaultCatalog []byte

// File is the YAML document.
type File struct {
	Achievements []AchievementSpec `yaml:"achievements"`
	Groups       []GroupSpec       `yaml:"groups"`
}

// AchievementSpec describes an atomic achievement.
type AchievementSpec struct {
	Name           string `yaml:"name"`
	PointsRequired int    `yaml:"points_required"`
	Description    string `yaml:"description"`
}

// GroupSpec describes a group of achievements.
type GroupSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Children    []string `yaml:"children"`
}

// Options controls validation.
type Options struct {
	// StrictGroups rejects groups naming achievements absent from the file.
	StrictGroups bool
}

// Load reads the catalog at path. An empty path yields the built-in catalog.
func Load(path string, opts Options) (File, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultCatalog, opts)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("catalog: %w", err)
	}
	f, err := Parse(b, opts)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Default returns the built-in catalog.
func Default() File {
	f, err := Parse(defaultCatalog, Options{StrictGroups: true})
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return f
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte, opts Options) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, shared.WrapError("catalog", "Parse", shared.ErrInvalidInput, "decode catalog yaml", err)
	}
	if err := f.Validate(opts); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks names, thresholds and, when strict, group children.
func (f File) Validate(opts Options) error {
	seen := make(map[string]bool, len(f.Achievements)+len(f.Groups))
	check := func(name string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return shared.ErrInvalidAchievement.Detail("catalog entry without a name")
		}
		if seen[name] {
			return shared.ErrDuplicateName.Detail("catalog defines %q twice", name)
		}
		seen[name] = true
		return nil
	}

	for _, a := range f.Achievements {
		if err := check(a.Name); err != nil {
			return err
		}
		if a.PointsRequired < 0 {
			return shared.ErrInvalidAchievement.Detail("achievement %q has negative points_required", a.Name)
		}
	}
	for _, g := range f.Groups {
		if err := check(g.Name); err != nil {
			return err
		}
	}

	if opts.StrictGroups {
		for _, g := range f.Groups {
			for _, c := range g.Children {
				if !seen[strings.TrimSpace(c)] {
					return shared.ErrUnresolvedChild.Detail("group %q references unknown achievement %q", g.Name, c)
				}
			}
		}
	}
	return nil
}

// Items builds registry items: achievements first, then groups, each in file order.
func (f File) Items() ([]achievement.Item, error) {
	items := make([]achievement.Item, 0, len(f.Achievements)+len(f.Groups))
	for _, def := range f.Achievements {
		a, err := achievement.NewAchievement(def.Name, def.PointsRequired, def.Description)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	for _, def := range f.Groups {
		children := make([]string, 0, len(def.Children))
		for _, c := range def.Children {
			children = append(children, strings.TrimSpace(c))
		}
		g, err := achievement.NewGroup(def.Name, def.Description, children...)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}

// Register adds every item to reg and returns how many were registered.
// It stops at the first error, leaving earlier items registered.
func (f File) Register(reg *achievement.Registry) (int, error) {
	items, err := f.Items()
	if err != nil {
		return 0, err
	}
	for i, item := range items {
		if err := reg.Register(item); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags toggles optional collaborators of the achievement engine.
// The engine itself is always on.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	FeatureRankingSync          = "ranking.sync"          // push users to the external ranking
	FeatureReportExport         = "report.export"         // write report files
	FeatureConsoleNotifications = "notify.console"        // print unlocks to stdout
	FeatureHistoryPersistence   = "history.persist"       // store actions in postgres
	FeatureEventPublishing      = "events.publish"        // republish unlocks on the event bus
	FeatureCatalogStrict        = "catalog.strict_groups" // reject groups naming unknown children at load
)

// LoadFeatureFlags loads defaults and applies FEATURE_* overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.define(FeatureRankingSync, "Push user totals to the external ranking", true)
	ff.define(FeatureReportExport, "Export user reports to disk", true)
	ff.define(FeatureConsoleNotifications, "Print unlock notifications", true)
	ff.define(FeatureHistoryPersistence, "Persist the action history", false)
	ff.define(FeatureEventPublishing, "Publish unlock events on the bus", true)
	ff.define(FeatureCatalogStrict, "Fail catalog loading on unknown group children", false)
}

func (ff *FeatureFlags) define(name, description string, enabled bool) {
	ff.features[name] = &Feature{Name: name, Description: description, Enabled: enabled}
}

// loadFromEnvironment applies overrides.
// Format: FEATURE_<NAME>=true|false
// Example: FEATURE_RANKING_SYNC=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// "ranking.sync" -> "FEATURE_RANKING_SYNC"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is on. Unknown features are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// Set switches a known feature on or off.
func (ff *FeatureFlags) Set(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// EnableFeature turns a feature on.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.Set(featureName, true)
}

// DisableFeature turns a feature off.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.Set(featureName, false)
}

// GetAllFeatures returns copies of all features sorted by name.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make([]Feature, 0, len(ff.features))
	for _, v := range ff.features {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// --- Errors ---

var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}

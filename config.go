package selfcore

import (
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config tunes the heap and activation stack. It replaces the teacher's
// hardcoded constants (iolang has no equivalent; its generations are
// managed entirely by Go's runtime) with explicit, loadable numbers, since
// this spec's heap is one we implement and size ourselves.
//
// The YAML tag names are chosen to read naturally in a config file; the
// zero value of Config is not valid on its own, so callers should start
// from DefaultConfig and override only what they need.
type Config struct {
	// EdenCells is the number of object cells eden can hold before a minor
	// GC is triggered.
	EdenCells int `yaml:"eden_cells"`
	// SurvivorCells is the capacity of each of the two survivor semispaces.
	SurvivorCells int `yaml:"survivor_cells"`
	// PromotionAge is the number of minor GCs an object must survive,
	// counting the one that moves it out of eden, before the next minor GC
	// promotes it to old space (spec.md §4.1: "Surviving objects that cross
	// a promotion threshold are copied into old space").
	PromotionAge int `yaml:"promotion_age"`
	// OldInitialCells is old space's initial capacity; it grows as needed.
	OldInitialCells int `yaml:"old_initial_cells"`
	// MaxActivationDepth overrides the spec default of 2048 (spec.md
	// §4.4) for testing with a smaller bound; production use should leave
	// this at DefaultConfig's value.
	MaxActivationDepth int `yaml:"max_activation_depth"`
}

// DefaultConfig returns sane defaults: a small eden suitable for an
// interactive session, the spec-mandated 2048-deep activation stack, and a
// promotion age of 2 (survive two scavenges, then be promoted by the
// third), a common default in generational collectors that
// balances promoting genuinely long-lived objects against prematurely
// filling old space with mid-lived garbage.
func DefaultConfig() Config {
	return Config{
		EdenCells:          4096,
		SurvivorCells:      2048,
		PromotionAge:       2,
		OldInitialCells:    4096,
		MaxActivationDepth: maxActivationDepth,
	}
}

// LoadConfig reads a YAML config file, starting from DefaultConfig for any
// field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

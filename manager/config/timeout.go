package config

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// TimeoutConfig holds the default query timeout and per resource overrides
type TimeoutConfig struct {
	Default   time.Duration            `mapstructure:"default"`
	Resources map[string]time.Duration `mapstructure:"resources"`
}

func (t TimeoutConfig) Validate() error {
	if t.Default <= 0 {
		return fmt.Errorf("%s: %w", t.Default.String(), ErrInvalidDefaultTimeout)
	}
	for name, d := range t.Resources {
		if d <= 0 {
			return fmt.Errorf("timeout of resource %s must be positive: %w", name, ErrInvalidConfig)
		}
	}
	return nil
}

// Resolve never fails: unknown or empty resource names get the default.
// Config files lowercase map keys, so a lowercase match is tried last.
func (t TimeoutConfig) Resolve(resource string) time.Duration {

	if resource == "" {
		return t.Default
	}

	if d, ok := t.Resources[resource]; ok {
		return d
	}
	if d, ok := t.Resources[strings.ToLower(resource)]; ok {
		return d
	}

	return t.Default
}

// Clone copies the overrides so the result can be shared read only
func (t TimeoutConfig) Clone() TimeoutConfig {
	return TimeoutConfig{
		Default:   t.Default,
		Resources: maps.Clone(t.Resources),
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TuningOverrides holds the subset of knobs operators tune more often
// than the rest of the environment: PoW difficulty and the rate
// limiter's capacity and refill rate. These change in response to live abuse
// patterns, so they live in their own small YAML sidecar rather than
// forcing a redeploy to flip an environment variable.
type TuningOverrides struct {
	Pow struct {
		Difficulty *int `yaml:"difficulty"`
	} `yaml:"pow"`
	RateLimit struct {
		Capacity        *int `yaml:"capacity"`
		RefillPerMinute *int `yaml:"refillPerMinute"`
	} `yaml:"rateLimit"`
}

// LoadTuningOverrides reads an optional tuning.yaml file. A missing
// file is not an error: it means no overrides apply.
func LoadTuningOverrides(path string) (*TuningOverrides, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &TuningOverrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading tuning overrides: %w", err)
	}

	var overrides TuningOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("config: parsing tuning overrides: %w", err)
	}
	return &overrides, nil
}

// Apply overlays non-nil override fields onto cfg. Read once at
// startup, alongside the rest of Config; never re-read mid-process.
func (t *TuningOverrides) Apply(cfg *Config) {
	if t == nil {
		return
	}
	if t.Pow.Difficulty != nil {
		cfg.Pow.Difficulty = *t.Pow.Difficulty
	}
	if t.RateLimit.Capacity != nil {
		cfg.RateLimit.Capacity = *t.RateLimit.Capacity
	}
	if t.RateLimit.RefillPerMinute != nil {
		cfg.RateLimit.RefillPerMinute = *t.RateLimit.RefillPerMinute
	}
}

// Package config provides configuration loading and resolution for the halo engine.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ReducedMotionEnv is the environment variable carrying the ambient reduced-motion preference.
const ReducedMotionEnv = "HALOS_REDUCED_MOTION"

// Config holds the application configuration: window, telemetry, halo
// defaults and the layers mounted on top of each other.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Halo      Halo            `yaml:"halo"`
	Layers    []Layer         `yaml:"layers"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TargetFPS  int    `yaml:"target_fps"`
	Background string `yaml:"background"` // Color spec behind all layers
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Frames averaged by the perf collector
}

// Halo is the effective configuration of one engine instance.
// It is never mutated after resolution.
type Halo struct {
	Count         int        `yaml:"count"`
	Colors        []string   `yaml:"colors"`   // Cycled by particle index
	SizeMin       float64    `yaml:"size_min"` // Diameter bounds
	SizeMax       float64    `yaml:"size_max"`
	BlurRadius    float64    `yaml:"blur_radius"`
	BaseOpacity   float64    `yaml:"base_opacity"` // Static element opacity, independent of the animated alpha
	Alpha         AlphaRange `yaml:"alpha_range"`
	DriftX        Range      `yaml:"drift_amplitude_x"`
	DriftY        Range      `yaml:"drift_amplitude_y"`
	ReducedMotion bool       `yaml:"reduced_motion"`
	ContainerID   string     `yaml:"container_id"`
}

// AlphaRange describes the animated opacity band: min + maxRange*(0.5+0.5*sin(...)).
type AlphaRange struct {
	Min      float64 `yaml:"min"`
	MaxRange float64 `yaml:"max_range"`
}

// Range is a closed numeric sampling interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Layer is a named override applied on top of the halo defaults.
type Layer struct {
	Name     string       `yaml:"name"`
	Override HaloOverride `yaml:"override"`
}

// Clone returns a copy that shares no slices with h.
func (h Halo) Clone() Halo {
	if h.Colors != nil {
		h.Colors = append([]string(nil), h.Colors...)
	}
	return h
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Layer returns the layer with the given name.
func (c *Config) Layer(name string) (Layer, bool) {
	for _, l := range c.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// PrefersReducedMotion reports the ambient reduced-motion preference.
func PrefersReducedMotion() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(ReducedMotionEnv))) {
	case "1", "true", "yes", "reduce":
		return true
	}
	return false
}

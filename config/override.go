package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HaloOverride is a caller-supplied partial configuration.
// A nil field is absent; a non-nil field replaces the default wholesale.
type HaloOverride struct {
	Count         *int        `yaml:"count,omitempty"`
	Colors        []string    `yaml:"colors,omitempty"`
	SizeMin       *float64    `yaml:"size_min,omitempty"`
	SizeMax       *float64    `yaml:"size_max,omitempty"`
	BlurRadius    *float64    `yaml:"blur_radius,omitempty"`
	BaseOpacity   *float64    `yaml:"base_opacity,omitempty"`
	Alpha         *AlphaRange `yaml:"alpha_range,omitempty"`
	DriftX        *Range      `yaml:"drift_amplitude_x,omitempty"`
	DriftY        *Range      `yaml:"drift_amplitude_y,omitempty"`
	ReducedMotion *bool       `yaml:"reduced_motion,omitempty"`
	ContainerID   *string     `yaml:"container_id,omitempty"`
}

// Resolve merges override onto defaults. The merge is shallow: nested values
// such as the alpha range are replaced as a whole. reducedMotion is the ambient
// signal and only applies when the override does not set ReducedMotion.
// No validation is performed.
func Resolve(defaults Halo, override *HaloOverride, reducedMotion bool) Halo {
	out := defaults.Clone()
	out.ReducedMotion = reducedMotion
	if override == nil {
		return out
	}

	if override.Count != nil {
		out.Count = *override.Count
	}
	if override.Colors != nil {
		out.Colors = append([]string(nil), override.Colors...)
	}
	if override.SizeMin != nil {
		out.SizeMin = *override.SizeMin
	}
	if override.SizeMax != nil {
		out.SizeMax = *override.SizeMax
	}
	if override.BlurRadius != nil {
		out.BlurRadius = *override.BlurRadius
	}
	if override.BaseOpacity != nil {
		out.BaseOpacity = *override.BaseOpacity
	}
	if override.Alpha != nil {
		out.Alpha = *override.Alpha
	}
	if override.DriftX != nil {
		out.DriftX = *override.DriftX
	}
	if override.DriftY != nil {
		out.DriftY = *override.DriftY
	}
	if override.ReducedMotion != nil {
		out.ReducedMotion = *override.ReducedMotion
	}
	if override.ContainerID != nil {
		out.ContainerID = *override.ContainerID
	}
	return out
}

// Merge layers o on top of base with the same shallow semantics as Resolve.
func (base HaloOverride) Merge(o *HaloOverride) HaloOverride {
	if o == nil {
		return base
	}
	if o.Count != nil {
		base.Count = o.Count
	}
	if o.Colors != nil {
		base.Colors = o.Colors
	}
	if o.SizeMin != nil {
		base.SizeMin = o.SizeMin
	}
	if o.SizeMax != nil {
		base.SizeMax = o.SizeMax
	}
	if o.BlurRadius != nil {
		base.BlurRadius = o.BlurRadius
	}
	if o.BaseOpacity != nil {
		base.BaseOpacity = o.BaseOpacity
	}
	if o.Alpha != nil {
		base.Alpha = o.Alpha
	}
	if o.DriftX != nil {
		base.DriftX = o.DriftX
	}
	if o.DriftY != nil {
		base.DriftY = o.DriftY
	}
	if o.ReducedMotion != nil {
		base.ReducedMotion = o.ReducedMotion
	}
	if o.ContainerID != nil {
		base.ContainerID = o.ContainerID
	}
	return base
}

// LoadOverride reads a standalone override file.
func LoadOverride(path string) (*HaloOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading override file: %w", err)
	}
	o := &HaloOverride{}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parsing override file: %w", err)
	}
	return o, nil
}

// Ptr returns a pointer to v, for building overrides in code.
func Ptr[T any](v T) *T {
	return &v
}

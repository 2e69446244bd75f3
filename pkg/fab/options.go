// Package fab turns a validated facade model into triangle meshes. It
// runs the plan stage from package outline per layer, then emits walls,
// returns, caps, reveals, corner patches and the roof, finishing with
// per-region validation and deterministic fallbacks.
package fab

import "github.com/rogelgarcia/buildfab/pkg/outline"

// Options controls one build. The zero value is usable; unset fields take
// the defaults below.
type Options struct {
	// Tol is the geometric merge tolerance.
	Tol float64 `toml:"tol"`
	// MinSegment eliminates wall segments shorter than this.
	MinSegment float64 `toml:"min_segment"`
	// MinBayWidth is the smallest wall piece a corner cutout may leave.
	MinBayWidth float64 `toml:"min_bay_width"`
	// CornerZone is the distance over which a losing face ramps its
	// extrusion to zero at a contested corner.
	CornerZone float64 `toml:"corner_zone"`
	// CornerPolicy names the registered corner resolution strategy.
	CornerPolicy string `toml:"corner_policy"`
	// Parallel bounds concurrent layer builds; 1 = serial.
	Parallel int `toml:"parallel"`
	// Snapshots enables capture of plan-stage intermediates per layer.
	Snapshots bool `toml:"snapshots"`
}

// DefaultOptions returns the standard build configuration.
func DefaultOptions() Options {
	return Options{
		Tol:          1e-6,
		MinSegment:   1e-3,
		MinBayWidth:  0.1,
		CornerZone:   0.15,
		CornerPolicy: outline.DefaultPolicy,
		Parallel:     1,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	if o.MinSegment <= 0 {
		o.MinSegment = d.MinSegment
	}
	if o.MinBayWidth <= 0 {
		o.MinBayWidth = d.MinBayWidth
	}
	if o.CornerZone <= 0 {
		o.CornerZone = d.CornerZone
	}
	if o.CornerPolicy == "" {
		o.CornerPolicy = d.CornerPolicy
	}
	if o.Parallel <= 0 {
		o.Parallel = d.Parallel
	}
	return o
}

func (o Options) params() outline.Params {
	return outline.Params{Tol: o.Tol, MinSegment: o.MinSegment}
}

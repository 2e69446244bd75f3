package outline

import (
	"fmt"
	"sort"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// BreakReason tags why a breakpoint exists on a face.
type BreakReason int

const (
	BreakFaceEnd  BreakReason = iota // u = 0 or u = L
	BreakBay                         // bay boundary
	BreakWedge                       // depth slope change
	BreakOverride                    // segment-level depth override boundary
	BreakOpening                     // opening cutline
	BreakRamp                        // inserted corner-zone ramp point
)

func (r BreakReason) String() string {
	switch r {
	case BreakFaceEnd:
		return "face-end"
	case BreakBay:
		return "bay"
	case BreakWedge:
		return "wedge"
	case BreakOverride:
		return "override"
	case BreakOpening:
		return "opening"
	case BreakRamp:
		return "ramp"
	default:
		return "unknown"
	}
}

// Breakpoint is a topologically significant u position on a face.
type Breakpoint struct {
	U      float64
	Reason BreakReason
}

// Segment is the profile between two consecutive breakpoints. Authored
// depth and extrusion are stored per endpoint so that depth
// discontinuities at bay boundaries survive (the profile is piecewise
// linear with jumps allowed at breakpoints).
type Segment struct {
	U0, U1   float64
	D0, D1   float64 // authored depth at the segment ends
	E0, E1   float64 // non-negative extrusion, D - DMin
	BayID    string  // owning bay, "" when the face default applies
	BayU0    float64 // owning bay's start u, for per-bay texture restarts
	Material facade.MaterialSpec
	Opening  *facade.Opening // set when the segment spans an opening cutline interval
}

// Len returns the segment length.
func (s Segment) Len() float64 { return s.U1 - s.U0 }

// EAt linearly interpolates the extrusion inside the segment.
func (s Segment) EAt(u float64) float64 {
	if s.U1 == s.U0 {
		return s.E0
	}
	t := (u - s.U0) / (s.U1 - s.U0)
	return s.E0 + (s.E1-s.E0)*t
}

// Profile is the breakpoint list and piecewise depth data of one face.
type Profile struct {
	Face   facade.FaceID
	Length float64
	Breaks []Breakpoint
	Segs   []Segment
	DMin   float64
}

// EAt samples the extrusion profile at an arbitrary u. At a breakpoint
// the value is right-continuous (the following segment's start value).
func (p *Profile) EAt(u float64) float64 {
	seg := p.segAt(u)
	if seg == nil {
		return 0
	}
	return seg.EAt(u)
}

// AuthAt samples the authored depth at an arbitrary u, right-continuous
// at breakpoints.
func (p *Profile) AuthAt(u float64) float64 {
	seg := p.segAt(u)
	if seg == nil {
		return 0
	}
	if seg.U1 == seg.U0 {
		return seg.D0
	}
	t := (u - seg.U0) / (seg.U1 - seg.U0)
	return seg.D0 + (seg.D1-seg.D0)*t
}

// ELeft samples the extrusion profile left-continuously: at a breakpoint
// it returns the preceding segment's end value. EAt and ELeft differ only
// where the authored depth jumps.
func (p *Profile) ELeft(u float64) float64 {
	const eps = 1e-9
	for i := range p.Segs {
		s := &p.Segs[i]
		if abs(s.U1-u) <= eps {
			return s.E1
		}
		if u < s.U1 {
			return s.EAt(u)
		}
	}
	if len(p.Segs) == 0 {
		return 0
	}
	return p.Segs[len(p.Segs)-1].E1
}

// SplitAt inserts a breakpoint at u, splitting the containing segment and
// interpolating its endpoint values. Splitting at (or within tol of) an
// existing breakpoint is a no-op.
func (p *Profile) SplitAt(u float64, reason BreakReason, tol float64) {
	for _, b := range p.Breaks {
		if abs(b.U-u) <= tol {
			return
		}
	}
	for i := range p.Segs {
		s := p.Segs[i]
		if u <= s.U0 || u >= s.U1 {
			continue
		}
		t := (u - s.U0) / (s.U1 - s.U0)
		left := s
		right := s
		left.U1 = u
		left.D1 = s.D0 + (s.D1-s.D0)*t
		left.E1 = s.E0 + (s.E1-s.E0)*t
		right.U0 = u
		right.D0 = left.D1
		right.E0 = left.E1
		p.Segs = append(p.Segs[:i], append([]Segment{left, right}, p.Segs[i+1:]...)...)

		bp := Breakpoint{U: u, Reason: reason}
		for j, b := range p.Breaks {
			if u < b.U {
				p.Breaks = append(p.Breaks[:j], append([]Breakpoint{bp}, p.Breaks[j:]...)...)
				return
			}
		}
		p.Breaks = append(p.Breaks, bp)
		return
	}
}

// SegAt returns the segment containing u (right-continuous at breaks).
func (p *Profile) SegAt(u float64) *Segment { return p.segAt(u) }

func (p *Profile) segAt(u float64) *Segment {
	if len(p.Segs) == 0 {
		return nil
	}
	if u <= p.Segs[0].U0 {
		return &p.Segs[0]
	}
	for i := range p.Segs {
		if u < p.Segs[i].U1 {
			return &p.Segs[i]
		}
	}
	return &p.Segs[len(p.Segs)-1]
}

// Params controls tolerances of the plan stage.
type Params struct {
	Tol        float64 // merge tolerance for breakpoints and geometry
	MinSegment float64 // segments shorter than this are eliminated
}

// DefaultParams returns the tolerances used when the caller passes zeros.
func DefaultParams() Params {
	return Params{Tol: 1e-6, MinSegment: 1e-3}
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if p.Tol <= 0 {
		p.Tol = d.Tol
	}
	if p.MinSegment <= 0 {
		p.MinSegment = d.MinSegment
	}
	return p
}

// BuildProfile merges the bay boundaries, override boundaries, wedge
// endpoints and opening cutlines of one face into a sorted, deduplicated
// breakpoint list and derives the authored depth, face minimum depth, and
// non-negative extrusion profile.
//
// Depth stacking order is deterministic: face default, then bay override,
// then segment override. dMin is sampled at breakpoints only: authored
// depth is piecewise linear, so its minimum over any segment is attained
// at a segment endpoint.
func BuildProfile(l *facade.Layer, frame FaceFrame, params Params) (*Profile, []facade.Warning) {
	params = params.normalized()
	var warns []facade.Warning
	faceID := frame.Face
	length := frame.Length
	spec := l.FaceSpecFor(faceID)
	bays := l.BaysOn(faceID)
	overrides := l.OverridesOn(faceID)

	breaks := collectBreaks(length, bays, overrides)
	breaks, mergeWarns := mergeBreaks(breaks, faceID, params)
	warns = append(warns, mergeWarns...)
	breaks, dropWarns := dropMicroSegments(breaks, faceID, params)
	warns = append(warns, dropWarns...)

	prof := &Profile{Face: faceID, Length: length, Breaks: breaks}

	// Evaluate the depth stack per segment. The active bay/override set is
	// constant inside a segment, so the midpoint identifies it.
	clamped := false
	for i := 0; i+1 < len(breaks); i++ {
		u0, u1 := breaks[i].U, breaks[i+1].U
		um := (u0 + u1) / 2
		seg := Segment{U0: u0, U1: u1, Material: spec.Material}
		seg.D0, seg.D1 = spec.Depth, spec.Depth

		for _, b := range bays {
			if um < b.UStart || um > b.UEnd {
				continue
			}
			seg.BayID = b.ID
			seg.BayU0 = b.UStart
			if b.Material.Name != "" {
				seg.Material = b.Material
			}
			if b.Depth != nil {
				span := b.UEnd - b.UStart
				seg.D0 = b.Depth.At((u0 - b.UStart) / span)
				seg.D1 = b.Depth.At((u1 - b.UStart) / span)
			}
			for oi := range b.Openings {
				o := &b.Openings[oi]
				if um > o.UStart && um < o.UEnd {
					seg.Opening = o
				}
			}
		}
		for _, o := range overrides {
			if um < o.UStart || um > o.UEnd {
				continue
			}
			span := o.UEnd - o.UStart
			seg.D0 = o.Depth.At((u0 - o.UStart) / span)
			seg.D1 = o.Depth.At((u1 - o.UStart) / span)
		}

		if seg.D0 < 0 || seg.D1 < 0 {
			seg.D0 = max(seg.D0, 0)
			seg.D1 = max(seg.D1, 0)
			clamped = true
		}
		prof.Segs = append(prof.Segs, seg)
	}
	if clamped {
		warns = append(warns, facade.Warning{
			Code:    "DEPTH_CLAMPED",
			Face:    faceID,
			Message: fmt.Sprintf("face %d: negative authored depth clamped to 0", faceID),
		})
	}

	// Face-wide minimum over breakpoint samples, then the non-negative
	// extrusion profile.
	if len(prof.Segs) > 0 {
		prof.DMin = prof.Segs[0].D0
		for _, s := range prof.Segs {
			prof.DMin = min(prof.DMin, min(s.D0, s.D1))
		}
		for i := range prof.Segs {
			prof.Segs[i].E0 = prof.Segs[i].D0 - prof.DMin
			prof.Segs[i].E1 = prof.Segs[i].D1 - prof.DMin
		}
	}
	return prof, warns
}

func collectBreaks(length float64, bays []facade.Bay, overrides []facade.DepthOverride) []Breakpoint {
	breaks := []Breakpoint{{U: 0, Reason: BreakFaceEnd}, {U: length, Reason: BreakFaceEnd}}
	for _, b := range bays {
		reason := BreakBay
		if b.Depth != nil && !b.Depth.IsUniform() {
			// A wedge changes dAuth slope exactly at the bay boundary.
			reason = BreakWedge
		}
		breaks = append(breaks,
			Breakpoint{U: b.UStart, Reason: reason},
			Breakpoint{U: b.UEnd, Reason: reason})
		for _, o := range b.Openings {
			breaks = append(breaks,
				Breakpoint{U: o.UStart, Reason: BreakOpening},
				Breakpoint{U: o.UEnd, Reason: BreakOpening})
		}
	}
	for _, o := range overrides {
		breaks = append(breaks,
			Breakpoint{U: o.UStart, Reason: BreakOverride},
			Breakpoint{U: o.UEnd, Reason: BreakOverride})
	}
	sort.SliceStable(breaks, func(i, j int) bool { return breaks[i].U < breaks[j].U })
	return breaks
}

// mergeBreaks collapses near-duplicate breakpoints. The first breakpoint
// of a cluster wins; face ends always survive.
func mergeBreaks(breaks []Breakpoint, face facade.FaceID, params Params) ([]Breakpoint, []facade.Warning) {
	var warns []facade.Warning
	out := breaks[:0:0]
	for _, b := range breaks {
		if len(out) > 0 && b.U-out[len(out)-1].U <= params.Tol {
			if b.Reason == BreakFaceEnd {
				out[len(out)-1] = b
			}
			warns = append(warns, facade.Warning{
				Code:    "BREAKPOINT_MERGED",
				Face:    face,
				Message: fmt.Sprintf("face %d: breakpoint %.6f merged into %.6f", face, b.U, out[len(out)-1].U),
			})
			continue
		}
		out = append(out, b)
	}
	return out, warns
}

// dropMicroSegments removes interior breakpoints that would leave a
// segment shorter than MinSegment. Face ends are never removed; when the
// final interval is too short the preceding interior breakpoint is
// dropped instead.
func dropMicroSegments(breaks []Breakpoint, face facade.FaceID, params Params) ([]Breakpoint, []facade.Warning) {
	var warns []facade.Warning
	warn := func(u float64) {
		warns = append(warns, facade.Warning{
			Code:    "DEGENERATE_SEGMENT",
			Face:    face,
			Message: fmt.Sprintf("face %d: segment at %.6f shorter than %.6g eliminated", face, u, params.MinSegment),
		})
	}

	out := []Breakpoint{breaks[0]}
	for i := 1; i < len(breaks); i++ {
		b := breaks[i]
		if b.U-out[len(out)-1].U >= params.MinSegment {
			out = append(out, b)
			continue
		}
		if b.Reason == BreakFaceEnd {
			// Keep the face end; sacrifice the previous interior point.
			if len(out) > 1 {
				warn(out[len(out)-1].U)
				out = out[:len(out)-1]
			}
			out = append(out, b)
			continue
		}
		warn(b.U)
	}
	return out, warns
}

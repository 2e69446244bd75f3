package facade

import (
	"fmt"
	"math"
)

// MinEdgeLength is the smallest usable footprint edge. Shorter edges make
// the derived face frame unreliable and are rejected outright.
const MinEdgeLength = 1e-4

// ValidationError is a blocking authoring problem. A layer with errors is
// never handed to the fabrication pipeline.
type ValidationError struct {
	Code    string
	Layer   int
	Face    FaceID
	Corner  CornerID
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: layer %d: %s", e.Code, e.Layer, e.Message)
}

// Warning is an advisory condition. Warnings are attached to results and
// never abort a build. The same type is used by the fabrication pipeline
// for its recoverable conditions (breakpoint merges, clamps, fallbacks).
type Warning struct {
	Code    string
	Layer   int
	Face    FaceID
	Corner  CornerID
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: layer %d: %s", w.Code, w.Layer, w.Message)
}

// Validate checks the whole building. Errors block the build; warnings are
// advisory.
func Validate(b *Building) ([]ValidationError, []Warning) {
	var errs []ValidationError
	var warns []Warning

	for i, l := range b.Layers {
		le, lw := validateLayer(l, i)
		errs = append(errs, le...)
		warns = append(warns, lw...)
	}
	return errs, warns
}

func validateLayer(l *Layer, idx int) ([]ValidationError, []Warning) {
	var errs []ValidationError
	var warns []Warning

	n := l.CornerCount()
	if n < 3 {
		errs = append(errs, ValidationError{
			Code:    "FOOTPRINT_TOO_SMALL",
			Layer:   idx,
			Message: fmt.Sprintf("footprint has %d corners, need at least 3", n),
		})
		return errs, warns
	}

	if SignedArea(l.Footprint) >= 0 {
		errs = append(errs, ValidationError{
			Code:    "FOOTPRINT_NOT_CLOCKWISE",
			Layer:   idx,
			Message: "footprint corners must be ordered clockwise",
		})
	}

	for i := 0; i < n; i++ {
		a := l.Footprint[i]
		b := l.Footprint[(i+1)%n]
		d := b.Sub(a)
		if d.X*d.X+d.Y*d.Y < MinEdgeLength*MinEdgeLength {
			errs = append(errs, ValidationError{
				Code:    "DEGENERATE_EDGE",
				Layer:   idx,
				Face:    FaceID(i),
				Message: fmt.Sprintf("face %d is shorter than %g", i, MinEdgeLength),
			})
		}
	}

	if footprintSelfIntersects(l.Footprint) {
		errs = append(errs, ValidationError{
			Code:    "FOOTPRINT_SELF_INTERSECTION",
			Layer:   idx,
			Message: "footprint edges cross each other",
		})
	}

	if l.Height <= 0 {
		errs = append(errs, ValidationError{
			Code:    "INVALID_HEIGHT",
			Layer:   idx,
			Message: fmt.Sprintf("layer height %.4f must be positive", l.Height),
		})
	}

	errs = append(errs, validateBays(l, idx)...)
	warns = append(warns, warnBayOverlap(l, idx)...)
	errs = append(errs, validateCuts(l, idx)...)

	return errs, warns
}

func validateBays(l *Layer, idx int) []ValidationError {
	var errs []ValidationError
	for _, b := range l.Bays {
		if int(b.Face) < 0 || int(b.Face) >= l.CornerCount() {
			errs = append(errs, ValidationError{
				Code:    "BAY_FACE_OUT_OF_RANGE",
				Layer:   idx,
				Face:    b.Face,
				Message: fmt.Sprintf("bay %q references face %d of %d", b.ID, b.Face, l.CornerCount()),
			})
			continue
		}
		faceLen := FaceLength(l.Footprint, b.Face)
		if b.UStart < 0 || b.UEnd > faceLen || b.UStart >= b.UEnd {
			errs = append(errs, ValidationError{
				Code:    "BAY_RANGE_INVALID",
				Layer:   idx,
				Face:    b.Face,
				Message: fmt.Sprintf("bay %q range [%.4f, %.4f] invalid for face length %.4f", b.ID, b.UStart, b.UEnd, faceLen),
			})
		}
		for oi, o := range b.Openings {
			if o.UStart < b.UStart || o.UEnd > b.UEnd || o.UStart >= o.UEnd {
				errs = append(errs, ValidationError{
					Code:    "OPENING_RANGE_INVALID",
					Layer:   idx,
					Face:    b.Face,
					Message: fmt.Sprintf("bay %q opening %d range [%.4f, %.4f] outside bay", b.ID, oi, o.UStart, o.UEnd),
				})
			}
			if o.Sill < 0 || o.Head > l.Height || o.Sill >= o.Head {
				errs = append(errs, ValidationError{
					Code:    "OPENING_BAND_INVALID",
					Layer:   idx,
					Face:    b.Face,
					Message: fmt.Sprintf("bay %q opening %d band [%.4f, %.4f] outside layer height %.4f", b.ID, oi, o.Sill, o.Head, l.Height),
				})
			}
			if o.Reveal < 0 {
				errs = append(errs, ValidationError{
					Code:    "OPENING_REVEAL_NEGATIVE",
					Layer:   idx,
					Face:    b.Face,
					Message: fmt.Sprintf("bay %q opening %d reveal %.4f is negative", b.ID, oi, o.Reveal),
				})
			}
		}
	}
	return errs
}

// warnBayOverlap flags bays on the same face whose intervals overlap.
// Overlap is legal (the later bay wins in the stacking order) but usually
// an authoring mistake.
func warnBayOverlap(l *Layer, idx int) []Warning {
	var warns []Warning
	for f := 0; f < l.CornerCount(); f++ {
		bays := l.BaysOn(FaceID(f))
		for i := 1; i < len(bays); i++ {
			if bays[i].UStart < bays[i-1].UEnd {
				warns = append(warns, Warning{
					Code:    "BAY_OVERLAP",
					Layer:   idx,
					Face:    FaceID(f),
					Message: fmt.Sprintf("bays %q and %q overlap on face %d", bays[i-1].ID, bays[i].ID, f),
				})
			}
		}
	}
	return warns
}

func validateCuts(l *Layer, idx int) []ValidationError {
	var errs []ValidationError
	for _, c := range l.Cuts {
		if int(c.Corner) < 0 || int(c.Corner) >= l.CornerCount() {
			errs = append(errs, ValidationError{
				Code:    "CUT_CORNER_OUT_OF_RANGE",
				Layer:   idx,
				Corner:  c.Corner,
				Message: fmt.Sprintf("corner cut references corner %d of %d", c.Corner, l.CornerCount()),
			})
		}
		if c.WantPrev < 0 || c.WantNext < 0 {
			errs = append(errs, ValidationError{
				Code:    "CUT_WANT_NEGATIVE",
				Layer:   idx,
				Corner:  c.Corner,
				Message: fmt.Sprintf("corner %d cut wants (%.4f, %.4f) must be non-negative", c.Corner, c.WantPrev, c.WantNext),
			})
		}
	}
	return errs
}

// SignedArea returns the shoelace area of the polygon. Clockwise polygons
// have negative signed area under the ground-plane convention used here.
func SignedArea(pts []Vec2) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// FaceLength returns the length of face f of the footprint.
func FaceLength(pts []Vec2, f FaceID) float64 {
	n := len(pts)
	a := pts[int(f)%n]
	b := pts[(int(f)+1)%n]
	d := b.Sub(a)
	return math.Hypot(d.X, d.Y)
}

// footprintSelfIntersects reports whether any two non-adjacent footprint
// edges cross.
func footprintSelfIntersects(pts []Vec2) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1 := pts[i]
		a2 := pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges (shared corner).
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := pts[j]
			b2 := pts[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a1, a2, b1, b2 Vec2) bool {
	d1 := cross2(b2.Sub(b1), a1.Sub(b1))
	d2 := cross2(b2.Sub(b1), a2.Sub(b1))
	d3 := cross2(a2.Sub(a1), b1.Sub(a1))
	d4 := cross2(a2.Sub(a1), b2.Sub(a1))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross2(a, b Vec2) float64 { return a.X*b.Y - a.Y*b.X }


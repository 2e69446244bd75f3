package outline

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// Baseline is one face's portion of the minimum perimeter: the straight
// dMin offset segment between its two resolved corners. U0/U1 are the
// face-local parameters of Start/End and may extend past [0, L] where a
// miter lengthens the face.
type Baseline struct {
	Face   facade.FaceID
	DMin   float64
	Start  v2.Vec
	End    v2.Vec
	U0, U1 float64
}

// Loop is the closed minimum perimeter of one layer. It is immutable
// once built; no later phase reshapes it based on bay extrusion.
type Loop struct {
	Points    []v2.Vec // closed clockwise polyline, implicit final edge
	Baselines []Baseline
	Corners   []CornerResult
}

// OpenLoopError reports a perimeter that failed to close.
type OpenLoopError struct {
	Corner facade.CornerID
	Reason string
}

func (e *OpenLoopError) Error() string {
	return fmt.Sprintf("minimum perimeter open at corner %d: %s", e.Corner, e.Reason)
}

// SelfIntersectionError reports crossing perimeter segments.
type SelfIntersectionError struct {
	SegA, SegB int
}

func (e *SelfIntersectionError) Error() string {
	return fmt.Sprintf("minimum perimeter segments %d and %d intersect", e.SegA, e.SegB)
}

// BuildPerimeter offsets every face by its minimum depth and resolves the
// shared corners with the given strategy into one closed, ordered loop.
// dmin must hold one entry per face, in face order.
func BuildPerimeter(frames []FaceFrame, dmin []float64, strat Strategy, params Params) (*Loop, error) {
	params = params.normalized()
	n := len(frames)
	if len(dmin) != n {
		return nil, fmt.Errorf("perimeter: %d faces but %d depth entries", n, len(dmin))
	}

	corners := make([]CornerResult, n)
	for c := 0; c < n; c++ {
		prev := (c - 1 + n) % n
		in := CornerInput{
			Corner:    facade.CornerID(c),
			Position:  frames[c].A,
			PrevFace:  frames[prev].Face,
			NextFace:  frames[c].Face,
			PrevFrame: frames[prev],
			NextFrame: frames[c],
			PrevDepth: dmin[prev],
			NextDepth: dmin[c],
			PrevEnd:   frames[prev].Offset(frames[prev].Length, dmin[prev]),
			NextStart: frames[c].Offset(0, dmin[c]),
			Tol:       params.Tol,
		}
		res, err := strat(in)
		if err != nil {
			return nil, &OpenLoopError{Corner: facade.CornerID(c), Reason: err.Error()}
		}
		if err := checkCornerContract(in, res, params.Tol); err != nil {
			return nil, err
		}
		corners[c] = res
	}

	loop := &Loop{Corners: corners}
	for f := 0; f < n; f++ {
		next := (f + 1) % n
		bl := Baseline{
			Face:  frames[f].Face,
			DMin:  dmin[f],
			Start: corners[f].NextStart,
			End:   corners[next].PrevEnd,
		}
		bl.U0 = frames[f].Param(bl.Start)
		bl.U1 = frames[f].Param(bl.End)
		if bl.U1 <= bl.U0 {
			return nil, &OpenLoopError{
				Corner: facade.CornerID(f),
				Reason: fmt.Sprintf("face %d baseline inverted (u0=%.4f u1=%.4f)", f, bl.U0, bl.U1),
			}
		}
		loop.Baselines = append(loop.Baselines, bl)
	}

	// Assemble loop points in footprint order: each corner contributes its
	// resolved vertex (or chamfer pair), each face its straight segment.
	for c := 0; c < n; c++ {
		appendPoint(loop, corners[c].PrevEnd, params.Tol)
		for _, p := range corners[c].Patch {
			appendPoint(loop, p, params.Tol)
		}
		appendPoint(loop, corners[c].NextStart, params.Tol)
	}
	if len(loop.Points) > 1 {
		// The chain is cyclic; drop a duplicated seam point.
		first, last := loop.Points[0], loop.Points[len(loop.Points)-1]
		if first.Sub(last).Length() <= params.Tol {
			loop.Points = loop.Points[:len(loop.Points)-1]
		}
	}

	if a, b, crossed := loopSelfIntersects(loop.Points, params.Tol); crossed {
		return nil, &SelfIntersectionError{SegA: a, SegB: b}
	}
	return loop, nil
}

// checkCornerContract verifies a strategy's output: both endpoints finite
// and lying on their face's offset line. Violations surface as
// OpenLoopError since the loop could not close through that corner.
func checkCornerContract(in CornerInput, res CornerResult, tol float64) error {
	for _, p := range append([]v2.Vec{res.PrevEnd, res.NextStart}, res.Patch...) {
		if !isFiniteVec(p) {
			return &OpenLoopError{Corner: in.Corner, Reason: "non-finite corner output"}
		}
	}
	// Distance from the offset line = normal-component error.
	dPrev := res.PrevEnd.Sub(in.PrevEnd).Dot(in.PrevFrame.Normal)
	if abs(dPrev) > tol*10+1e-9 {
		return &OpenLoopError{
			Corner: in.Corner,
			Reason: fmt.Sprintf("prev endpoint off its offset line by %.6g", dPrev),
		}
	}
	dNext := res.NextStart.Sub(in.NextStart).Dot(in.NextFrame.Normal)
	if abs(dNext) > tol*10+1e-9 {
		return &OpenLoopError{
			Corner: in.Corner,
			Reason: fmt.Sprintf("next endpoint off its offset line by %.6g", dNext),
		}
	}
	return nil
}

func appendPoint(l *Loop, p v2.Vec, tol float64) {
	if len(l.Points) > 0 && l.Points[len(l.Points)-1].Sub(p).Length() <= tol {
		return
	}
	l.Points = append(l.Points, p)
}

func loopSelfIntersects(pts []v2.Vec, tol float64) (int, int, bool) {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1 := pts[i]
		a2 := pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := pts[j]
			b2 := pts[(j+1)%n]
			if properCross(a1, a2, b1, b2) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func properCross(a1, a2, b1, b2 v2.Vec) bool {
	d1 := Cross(b2.Sub(b1), a1.Sub(b1))
	d2 := Cross(b2.Sub(b1), a2.Sub(b1))
	d3 := Cross(a2.Sub(a1), b1.Sub(a1))
	d4 := Cross(a2.Sub(a1), b2.Sub(a1))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

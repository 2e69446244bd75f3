package outline

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// FaceFrame is the immutable local frame of one footprint face. Tangent
// points from the start corner to the end corner; Normal points outward,
// away from the interior of the clockwise footprint.
type FaceFrame struct {
	Face    facade.FaceID
	A, B    v2.Vec // start and end corners
	Tangent v2.Vec // unit
	Normal  v2.Vec // unit, outward
	Length  float64
}

// At returns the point at face-local position u on the raw footprint edge.
// u may lie outside [0, Length] for mitered extensions.
func (f FaceFrame) At(u float64) v2.Vec {
	return f.A.Add(f.Tangent.MulScalar(u))
}

// Offset returns the point at position u pushed outward by depth d.
func (f FaceFrame) Offset(u, d float64) v2.Vec {
	return f.At(u).Add(f.Normal.MulScalar(d))
}

// Param projects a point onto the face axis and returns its u value.
func (f FaceFrame) Param(p v2.Vec) float64 {
	return p.Sub(f.A).Dot(f.Tangent)
}

// DegenerateFaceError reports a face whose frame cannot be built.
type DegenerateFaceError struct {
	Face   facade.FaceID
	Reason string
}

func (e *DegenerateFaceError) Error() string {
	return fmt.Sprintf("degenerate face %d: %s", e.Face, e.Reason)
}

// Frames derives the local frame of every face of a clockwise footprint.
// It fails with DegenerateFaceError when an edge is shorter than the
// tolerance or produces a non-finite basis.
func Frames(footprint []facade.Vec2, tol float64) ([]FaceFrame, error) {
	n := len(footprint)
	frames := make([]FaceFrame, 0, n)
	for i := 0; i < n; i++ {
		a := footprint[i]
		b := footprint[(i+1)%n]
		va := v2.Vec{X: a.X, Y: a.Y}
		vb := v2.Vec{X: b.X, Y: b.Y}
		d := vb.Sub(va)
		length := d.Length()
		if !isFinite(length) || length <= tol {
			return nil, &DegenerateFaceError{
				Face:   facade.FaceID(i),
				Reason: fmt.Sprintf("edge length %.6g below tolerance %.6g", length, tol),
			}
		}
		t := d.MulScalar(1 / length)
		// Left of the tangent. With clockwise corner order the interior
		// lies to the right, so left is outward.
		nrm := v2.Vec{X: -t.Y, Y: t.X}
		if !isFiniteVec(t) || !isFiniteVec(nrm) {
			return nil, &DegenerateFaceError{
				Face:   facade.FaceID(i),
				Reason: "non-finite basis vector",
			}
		}
		frames = append(frames, FaceFrame{
			Face:    facade.FaceID(i),
			A:       va,
			B:       vb,
			Tangent: t,
			Normal:  nrm,
			Length:  length,
		})
	}
	return frames, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFiniteVec(v v2.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Cross returns the 2D cross product a x b.
func Cross(a, b v2.Vec) float64 { return a.X*b.Y - a.Y*b.X }

package outline

import (
	"errors"
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// square is a 10x10 clockwise footprint with corner 0 at the origin.
func square() []facade.Vec2 {
	return []facade.Vec2{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}
}

func vecNear(t *testing.T, got, want v2.Vec, tol float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol {
		t.Fatalf("got (%.6f, %.6f), want (%.6f, %.6f)", got.X, got.Y, want.X, want.Y)
	}
}

func TestFramesSquare(t *testing.T) {
	frames, err := Frames(square(), 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}

	wantTangent := []v2.Vec{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}
	wantNormal := []v2.Vec{{X: -1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}}
	for i, f := range frames {
		if f.Face != facade.FaceID(i) {
			t.Errorf("frame %d: face id %d", i, f.Face)
		}
		if math.Abs(f.Length-10) > 1e-9 {
			t.Errorf("frame %d: length %.6f, want 10", i, f.Length)
		}
		vecNear(t, f.Tangent, wantTangent[i], 1e-9)
		vecNear(t, f.Normal, wantNormal[i], 1e-9)
	}
}

func TestFramesOutwardNormal(t *testing.T) {
	frames, err := Frames(square(), 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	centroid := v2.Vec{X: 5, Y: 5}
	for _, f := range frames {
		mid := f.At(f.Length / 2)
		// Moving along the normal must increase the distance to the centroid.
		if mid.Add(f.Normal).Sub(centroid).Length() <= mid.Sub(centroid).Length() {
			t.Errorf("face %d: normal points inward", f.Face)
		}
	}
}

func TestFramesDegenerateEdge(t *testing.T) {
	fp := []facade.Vec2{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 0, Y: 10}, {X: 10, Y: 0}}
	_, err := Frames(fp, 1e-6)
	var dfe *DegenerateFaceError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DegenerateFaceError, got %v", err)
	}
	if dfe.Face != 1 {
		t.Errorf("expected face 1, got %d", dfe.Face)
	}
}

func TestFrameOffsetAndParam(t *testing.T) {
	frames, _ := Frames(square(), 1e-6)
	f := frames[0]

	p := f.Offset(3, 0.5)
	vecNear(t, p, v2.Vec{X: -0.5, Y: 3}, 1e-9)

	// Param projects back onto the face axis, ignoring the offset.
	if u := f.Param(p); math.Abs(u-3) > 1e-9 {
		t.Errorf("Param = %.6f, want 3", u)
	}

	// Out-of-range u is allowed for mitered extensions.
	q := f.Offset(-0.5, 0)
	vecNear(t, q, v2.Vec{X: 0, Y: -0.5}, 1e-9)
}

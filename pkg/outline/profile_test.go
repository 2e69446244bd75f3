package outline

import (
	"math"
	"testing"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

func floatNear(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %.6f, want %.6f", got, want)
	}
}

func frameFor(t *testing.T, l *facade.Layer, face int) FaceFrame {
	t.Helper()
	frames, err := Frames(l.Footprint, 1e-6)
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	return frames[face]
}

func hasWarning(warns []facade.Warning, code string) bool {
	for _, w := range warns {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestBuildProfilePlainFace(t *testing.T) {
	l := &facade.Layer{Footprint: square(), Height: 3}
	l.Faces = map[facade.FaceID]facade.FaceSpec{0: {Depth: 0.2}}

	prof, warns := BuildProfile(l, frameFor(t, l, 0), Params{})
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(prof.Breaks) != 2 || len(prof.Segs) != 1 {
		t.Fatalf("expected 2 breaks / 1 segment, got %d / %d", len(prof.Breaks), len(prof.Segs))
	}
	floatNear(t, prof.DMin, 0.2, 1e-9)
	// Uniform depth means zero extrusion everywhere.
	floatNear(t, prof.EAt(5), 0, 1e-9)
}

func TestBuildProfileBay(t *testing.T) {
	depth := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Faces:     map[facade.FaceID]facade.FaceSpec{0: {Depth: 0.1}},
		Bays:      []facade.Bay{{ID: "b", Face: 0, UStart: 3, UEnd: 7, Depth: &depth}},
	}

	prof, warns := BuildProfile(l, frameFor(t, l, 0), Params{})
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	wantU := []float64{0, 3, 7, 10}
	if len(prof.Breaks) != len(wantU) {
		t.Fatalf("breaks: got %d, want %d", len(prof.Breaks), len(wantU))
	}
	for i, b := range prof.Breaks {
		floatNear(t, b.U, wantU[i], 1e-9)
	}

	floatNear(t, prof.DMin, 0.1, 1e-9)
	floatNear(t, prof.EAt(5), 0.2, 1e-9)
	floatNear(t, prof.EAt(1), 0, 1e-9)

	// Right-continuous at the bay start, left-continuous just before it.
	floatNear(t, prof.EAt(3), 0.2, 1e-9)
	floatNear(t, prof.ELeft(3), 0, 1e-9)
	floatNear(t, prof.ELeft(7), 0.2, 1e-9)
	floatNear(t, prof.EAt(7), 0, 1e-9)

	seg := prof.SegAt(5)
	if seg.BayID != "b" {
		t.Errorf("segment bay id %q, want \"b\"", seg.BayID)
	}
}

func TestBuildProfileWedgeBay(t *testing.T) {
	wedge := facade.Wedge(0, 0.4)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays:      []facade.Bay{{Face: 0, UStart: 2, UEnd: 8, Depth: &wedge}},
	}

	prof, _ := BuildProfile(l, frameFor(t, l, 0), Params{})
	floatNear(t, prof.DMin, 0, 1e-9)
	floatNear(t, prof.EAt(2), 0, 1e-9)
	floatNear(t, prof.EAt(5), 0.2, 1e-9)
	floatNear(t, prof.ELeft(8), 0.4, 1e-9)

	for _, b := range prof.Breaks {
		if b.U == 2 && b.Reason != BreakWedge {
			t.Errorf("wedge bay start tagged %v", b.Reason)
		}
	}
}

func TestBuildProfileOverrideBeatsBay(t *testing.T) {
	depth := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays:      []facade.Bay{{Face: 0, UStart: 2, UEnd: 8, Depth: &depth}},
		Overrides: []facade.DepthOverride{
			{Face: 0, UStart: 4, UEnd: 6, Depth: facade.Uniform(0.5)},
		},
	}

	prof, _ := BuildProfile(l, frameFor(t, l, 0), Params{})
	floatNear(t, prof.AuthAt(3), 0.3, 1e-9)
	floatNear(t, prof.AuthAt(5), 0.5, 1e-9)
	floatNear(t, prof.AuthAt(7), 0.3, 1e-9)
}

func TestBuildProfileOpeningCutlines(t *testing.T) {
	depth := facade.Uniform(0.2)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays: []facade.Bay{{
			Face: 0, UStart: 2, UEnd: 8, Depth: &depth,
			Openings: []facade.Opening{{UStart: 3, UEnd: 5, Sill: 0.9, Head: 2.1}},
		}},
	}

	prof, _ := BuildProfile(l, frameFor(t, l, 0), Params{})
	seg := prof.SegAt(4)
	if seg.Opening == nil {
		t.Fatal("expected opening on segment [3,5]")
	}
	if out := prof.SegAt(2.5); out.Opening != nil {
		t.Error("opening leaked outside its cutlines")
	}
}

func TestBuildProfileNegativeDepthClamped(t *testing.T) {
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Overrides: []facade.DepthOverride{
			{Face: 0, UStart: 2, UEnd: 8, Depth: facade.Uniform(-0.5)},
		},
	}

	prof, warns := BuildProfile(l, frameFor(t, l, 0), Params{})
	if !hasWarning(warns, "DEPTH_CLAMPED") {
		t.Fatalf("expected DEPTH_CLAMPED warning, got %v", warns)
	}
	floatNear(t, prof.AuthAt(5), 0, 1e-9)
	if prof.DMin < 0 {
		t.Errorf("dMin %.6f went negative", prof.DMin)
	}
}

func TestBuildProfileMicroSegmentDropped(t *testing.T) {
	depth := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays:      []facade.Bay{{Face: 0, UStart: 0.0005, UEnd: 5, Depth: &depth}},
	}

	prof, warns := BuildProfile(l, frameFor(t, l, 0), Params{MinSegment: 1e-3})
	if !hasWarning(warns, "DEGENERATE_SEGMENT") {
		t.Fatalf("expected DEGENERATE_SEGMENT warning, got %v", warns)
	}
	// Face ends always survive.
	floatNear(t, prof.Breaks[0].U, 0, 1e-12)
	floatNear(t, prof.Breaks[len(prof.Breaks)-1].U, 10, 1e-12)
	for _, b := range prof.Breaks[1:] {
		if b.U < 1e-3 {
			t.Errorf("micro breakpoint %.6f survived", b.U)
		}
	}
}

func TestBuildProfileMergedBreakpoints(t *testing.T) {
	d1 := facade.Uniform(0.2)
	d2 := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays: []facade.Bay{
			{Face: 0, UStart: 2, UEnd: 5, Depth: &d1},
			{Face: 0, UStart: 5 + 1e-8, UEnd: 8, Depth: &d2},
		},
	}

	prof, warns := BuildProfile(l, frameFor(t, l, 0), Params{Tol: 1e-6})
	if !hasWarning(warns, "BREAKPOINT_MERGED") {
		t.Fatalf("expected BREAKPOINT_MERGED warning, got %v", warns)
	}
	count := 0
	for _, b := range prof.Breaks {
		if math.Abs(b.U-5) < 1e-3 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected single merged breakpoint near 5, found %d", count)
	}
}

func TestSplitAtInterpolates(t *testing.T) {
	wedge := facade.Wedge(0, 0.4)
	l := &facade.Layer{
		Footprint: square(),
		Height:    3,
		Bays:      []facade.Bay{{Face: 0, UStart: 0, UEnd: 10, Depth: &wedge}},
	}
	prof, _ := BuildProfile(l, frameFor(t, l, 0), Params{})

	before := prof.EAt(5)
	prof.SplitAt(5, BreakRamp, 1e-6)
	if len(prof.Segs) != 2 {
		t.Fatalf("expected 2 segments after split, got %d", len(prof.Segs))
	}
	floatNear(t, prof.EAt(5), before, 1e-9)
	floatNear(t, prof.Segs[0].E1, before, 1e-9)
	floatNear(t, prof.Segs[1].E0, before, 1e-9)

	// Splitting on an existing breakpoint is a no-op.
	prof.SplitAt(5, BreakRamp, 1e-6)
	if len(prof.Segs) != 2 {
		t.Errorf("duplicate split changed the profile: %d segments", len(prof.Segs))
	}
}

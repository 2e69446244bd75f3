package fab

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

func profilesFor(t *testing.T, l *facade.Layer, opts Options) []*outline.Profile {
	t.Helper()
	frames, err := outline.Frames(l.Footprint, opts.Tol)
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	profiles := make([]*outline.Profile, len(frames))
	for i, f := range frames {
		profiles[i], _ = outline.BuildProfile(l, f, opts.params())
	}
	return profiles
}

func warnCodes(warns []facade.Warning) []string {
	codes := make([]string, len(warns))
	for i, w := range warns {
		codes[i] = w.Code
	}
	return codes
}

func TestComputeCutsClampsToBreakpointInterval(t *testing.T) {
	depth := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: squareFootprint(),
		Height:    3,
		// The bay ends 0.4 before the corner; with MinBayWidth 0.1 at most
		// 0.3 of cut is feasible.
		Bays: []facade.Bay{{Face: 0, UStart: 3, UEnd: 9.6, Depth: &depth}},
		Cuts: []facade.CornerCut{{Corner: 1, WantPrev: 0.5, WantNext: 0.5}},
	}
	opts := DefaultOptions()
	profiles := profilesFor(t, l, opts)

	cuts, warns := computeCuts(l, 0, profiles, opts)
	if math.Abs(cuts.prev[1]-0.3) > 1e-9 {
		t.Errorf("prev cut = %.4f, want 0.3 (clamped)", cuts.prev[1])
	}
	// Face 1 has no interior breakpoints; the full want fits.
	if math.Abs(cuts.next[1]-0.5) > 1e-9 {
		t.Errorf("next cut = %.4f, want 0.5", cuts.next[1])
	}

	found := false
	for _, w := range warns {
		if w.Code == "CUTOUT_CLAMPED" && w.Corner == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CUTOUT_CLAMPED warning, got %v", warnCodes(warns))
	}
}

func TestComputeCutsReducesOverrunningFace(t *testing.T) {
	l := &facade.Layer{
		Footprint: squareFootprint(),
		Height:    3,
		Cuts: []facade.CornerCut{
			{Corner: 0, WantNext: 6},
			{Corner: 1, WantPrev: 6},
		},
	}
	opts := DefaultOptions()
	profiles := profilesFor(t, l, opts)

	cuts, warns := computeCuts(l, 0, profiles, opts)
	total := cuts.next[0] + cuts.prev[1]
	if total > 10-opts.MinBayWidth+1e-9 {
		t.Errorf("cuts total %.4f leaves less than MinBayWidth of face 0", total)
	}
	// Face 0 loses at its start corner (face 3 wins there), so the start
	// cut takes the reduction.
	if cuts.prev[1] != 6 {
		t.Errorf("winning-corner cut reduced: %.4f, want 6", cuts.prev[1])
	}
	if cuts.next[0] >= 6 {
		t.Errorf("losing-corner cut not reduced: %.4f", cuts.next[0])
	}

	found := false
	for _, w := range warns {
		if w.Code == "CUTOUT_REDUCED" && w.Face == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CUTOUT_REDUCED warning, got %v", warnCodes(warns))
	}
}

func TestApplyCornerPrecedenceRampsLoser(t *testing.T) {
	d := facade.Uniform(0.3)
	l := &facade.Layer{
		Footprint: squareFootprint(),
		Height:    3,
		Bays: []facade.Bay{
			{Face: 0, UStart: 6, UEnd: 10, Depth: &d},
			{Face: 1, UStart: 0, UEnd: 4, Depth: &d},
		},
	}
	opts := DefaultOptions()
	profiles := profilesFor(t, l, opts)

	// Both faces carry extrusion into corner 1 before resolution.
	if profiles[0].ELeft(10) < 0.2 || profiles[1].EAt(0) < 0.2 {
		t.Fatal("test setup: corner 1 not contested")
	}

	warns := applyCornerPrecedence(profiles, 0, opts)

	// Face 1 is odd and wins; face 0 must reach zero at the corner.
	if e := profiles[0].ELeft(10); math.Abs(e) > 1e-9 {
		t.Errorf("losing face extrusion at corner = %.6f, want 0", e)
	}
	if e := profiles[1].EAt(0); math.Abs(e-0.3) > 1e-9 {
		t.Errorf("winning face extrusion changed: %.6f, want 0.3", e)
	}
	// The ramp is confined to the corner zone.
	if e := profiles[0].EAt(10 - opts.CornerZone - 0.01); math.Abs(e-0.3) > 1e-9 {
		t.Errorf("extrusion outside corner zone changed: %.6f", e)
	}

	found := false
	for _, w := range warns {
		if w.Code == "CORNER_PRECEDENCE" && w.Face == 0 && w.Corner == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CORNER_PRECEDENCE for face 0 at corner 1, got %v", warnCodes(warns))
	}
}

func TestBuildLayerCutoutTrimsWalls(t *testing.T) {
	l := &facade.Layer{
		Name:      "cut",
		Footprint: squareFootprint(),
		Height:    3,
		Material:  facade.MaterialSpec{Name: "plaster"},
		Cuts:      []facade.CornerCut{{Corner: 1, WantPrev: 0.5, WantNext: 0.5}},
	}
	lr := buildLayer(t, l)

	// The cut trims wall coverage near corner 1 at (0, 10): face 0 walls
	// stop 0.5 short of the corner and face 1 walls start 0.5 after it.
	// The roof still spans the full perimeter loop.
	lr.Mesh.TrianglesIn(mesh.Wall, func(p0, p1, p2 v3.Vec) {
		for _, p := range []v3.Vec{p0, p1, p2} {
			if math.Abs(p.X) < 1e-6 && p.Y > 9.5+1e-6 {
				t.Errorf("face 0 wall vertex at (%.3f, %.3f) inside the cutout", p.X, p.Y)
			}
			if math.Abs(p.Y-10) < 1e-6 && p.X < 0.5-1e-6 {
				t.Errorf("face 1 wall vertex at (%.3f, %.3f) inside the cutout", p.X, p.Y)
			}
		}
	})
}

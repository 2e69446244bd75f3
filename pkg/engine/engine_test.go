package engine

import (
	"strings"
	"testing"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	b, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if b == nil {
		t.Fatal("expected non-nil building")
	}
	if len(b.Layers) != 0 {
		t.Errorf("expected empty building, got %d layers", len(b.Layers))
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	b, evalErrs, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(b.Layers) != 0 {
		t.Errorf("expected empty building, got %d layers", len(b.Layers))
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	b, evalErrs, err := eng.Evaluate("(building \"x\"")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil building on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateRuntimeError(t *testing.T) {
	eng := NewEngine()

	b, evalErrs, err := eng.Evaluate(`(building 42)`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil building on runtime error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	if !strings.Contains(evalErrs[0].Message, "name") {
		t.Errorf("error should mention the bad name argument: %q", evalErrs[0].Message)
	}
}

func TestEvaluateFullScript(t *testing.T) {
	eng := NewEngine()

	source := `
; two-layer test building
(building "tower"
  (layer :name "ground" :height 4
         :material (material "brick" :uv-scale 0.5)
    (footprint (vec2 0 0) (vec2 0 10) (vec2 10 10) (vec2 10 0))
    (face 0 :depth 0.1 :flow :per-bay)
    (bay :face 0 :from 3 :to 7 :depth 0.3 :id "entry"
      (window :from 3.5 :to 6.5 :sill 0 :head 2.4 :reveal 0.08))
    (corner-cut 2 :prev 0.4 :next 0.4))
  (layer :name "upper" :height 3
         :material (material "plaster")
    (footprint (vec2 0 0) (vec2 0 10) (vec2 10 10) (vec2 10 0))
    (bay :face 1 :from 1 :to 9 :depth (wedge 0.05 0.25))
    (depth-override :face 2 :from 2 :to 4 :depth 0.2)))
`
	b, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if b.Name != "tower" {
		t.Errorf("building name %q, want \"tower\"", b.Name)
	}
	if len(b.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(b.Layers))
	}

	ground := b.Layers[0]
	if ground.Name != "ground" || ground.Height != 4 {
		t.Errorf("ground layer %q height %.1f", ground.Name, ground.Height)
	}
	if len(ground.Footprint) != 4 {
		t.Fatalf("ground footprint has %d corners", len(ground.Footprint))
	}
	if ground.Material.Name != "brick" || ground.Material.UVScale != 0.5 {
		t.Errorf("ground material %+v", ground.Material)
	}
	spec, ok := ground.Faces[0]
	if !ok || spec.Depth != 0.1 {
		t.Errorf("face 0 spec %+v", spec)
	}
	if len(ground.Bays) != 1 || ground.Bays[0].ID != "entry" {
		t.Fatalf("ground bays %+v", ground.Bays)
	}
	bay := ground.Bays[0]
	if bay.Depth == nil || bay.Depth.Left != 0.3 {
		t.Errorf("bay depth %+v", bay.Depth)
	}
	if len(bay.Openings) != 1 || bay.Openings[0].Head != 2.4 {
		t.Errorf("bay openings %+v", bay.Openings)
	}
	if len(ground.Cuts) != 1 || ground.Cuts[0].Corner != 2 {
		t.Errorf("ground cuts %+v", ground.Cuts)
	}

	upper := b.Layers[1]
	if upper.Base != 4 {
		t.Errorf("upper layer base %.1f, want 4 (stacked)", upper.Base)
	}
	if len(upper.Bays) != 1 || upper.Bays[0].Depth == nil ||
		upper.Bays[0].Depth.Left != 0.05 || upper.Bays[0].Depth.Right != 0.25 {
		t.Errorf("upper bay %+v", upper.Bays)
	}
	if len(upper.Overrides) != 1 || upper.Overrides[0].Depth.Left != 0.2 {
		t.Errorf("upper overrides %+v", upper.Overrides)
	}
}

func TestEvaluateSupersededGeneration(t *testing.T) {
	// Stale results are discarded by the generation counter; a fresh call
	// after another Evaluate must still work.
	eng := NewEngine()
	if _, _, err := eng.Evaluate(`(building "a" (layer :height 1 (footprint (vec2 0 0) (vec2 0 1) (vec2 1 1) (vec2 1 0))))`); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	b, evalErrs, err := eng.Evaluate(`(building "b" (layer :height 1 (footprint (vec2 0 0) (vec2 0 1) (vec2 1 1) (vec2 1 0))))`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("second evaluate: %v %v", err, evalErrs)
	}
	if b.Name != "b" {
		t.Errorf("building name %q, want \"b\"", b.Name)
	}
}

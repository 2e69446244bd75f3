package mesh

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func quadUVs() [4]UV {
	return [4]UV{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func TestAddQuadSplitsOnFixedDiagonal(t *testing.T) {
	m := &Mesh{}
	p := [4]v3.Vec{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	uv := quadUVs()
	m.AddQuad(Wall, "brick", p[0], p[1], p[2], p[3], v3.Vec{Z: 1}, uv[0], uv[1], uv[2], uv[3])

	if m.TriangleCount() != 2 || m.VertexCount() != 6 {
		t.Fatalf("got %d triangles / %d vertices, want 2 / 6", m.TriangleCount(), m.VertexCount())
	}
	// Both triangles share the p0-p2 diagonal.
	t1 := []v3.Vec{m.Vertex(0), m.Vertex(1), m.Vertex(2)}
	t2 := []v3.Vec{m.Vertex(3), m.Vertex(4), m.Vertex(5)}
	if t1[0] != p[0] || t1[1] != p[1] || t1[2] != p[2] {
		t.Errorf("first triangle %v, want p0 p1 p2", t1)
	}
	if t2[0] != p[0] || t2[1] != p[2] || t2[2] != p[3] {
		t.Errorf("second triangle %v, want p0 p2 p3", t2)
	}
}

func TestExtendGroupMergesSameSurface(t *testing.T) {
	m := &Mesh{}
	n := v3.Vec{Z: 1}
	uv := quadUVs()
	m.AddQuad(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	m.AddQuad(Wall, "brick", v3.Vec{X: 1}, v3.Vec{X: 2}, v3.Vec{X: 2, Y: 1}, v3.Vec{X: 1, Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	if len(m.Groups) != 1 {
		t.Fatalf("expected merged group, got %d groups", len(m.Groups))
	}
	if m.Groups[0].Count != 12 {
		t.Errorf("merged group count %d, want 12", m.Groups[0].Count)
	}

	m.AddQuad(Cap, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	m.AddQuad(Cap, "stone", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	if len(m.Groups) != 3 {
		t.Fatalf("expected 3 groups after category/material change, got %d", len(m.Groups))
	}
}

func TestAppendRebasesIndicesAndGroups(t *testing.T) {
	a := &Mesh{}
	b := &Mesh{}
	n := v3.Vec{Z: 1}
	uv := quadUVs()
	a.AddQuad(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	b.AddQuad(Roof, "tile", v3.Vec{Z: 3}, v3.Vec{X: 1, Z: 3}, v3.Vec{X: 1, Y: 1, Z: 3}, v3.Vec{Y: 1, Z: 3}, n, uv[0], uv[1], uv[2], uv[3])

	a.Append(b)
	if a.TriangleCount() != 4 || a.VertexCount() != 12 {
		t.Fatalf("got %d triangles / %d vertices, want 4 / 12", a.TriangleCount(), a.VertexCount())
	}
	if len(a.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(a.Groups))
	}
	g := a.Groups[1]
	if g.Category != Roof || g.Start != 6 {
		t.Errorf("appended group %+v, want Roof starting at 6", g)
	}
	for _, i := range a.Indices {
		if int(i) >= a.VertexCount() {
			t.Fatalf("index %d out of range after append", i)
		}
	}
}

func TestTrianglesInFiltersByCategory(t *testing.T) {
	m := &Mesh{}
	n := v3.Vec{Z: 1}
	uv := quadUVs()
	m.AddQuad(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, n, uv[0], uv[1], uv[2], uv[3])
	m.AddTriangle(Roof, "tile", v3.Vec{Z: 3}, v3.Vec{X: 1, Z: 3}, v3.Vec{Y: 1, Z: 3}, n, uv[0], uv[1], uv[2])

	count := 0
	m.TrianglesIn(Roof, func(p0, p1, p2 v3.Vec) {
		count++
		if p0.Z != 3 || p1.Z != 3 || p2.Z != 3 {
			t.Errorf("roof triangle off the roof plane: %v %v %v", p0, p1, p2)
		}
	})
	if count != 1 {
		t.Errorf("visited %d roof triangles, want 1", count)
	}
}

func TestTrianglesFlattensForSTL(t *testing.T) {
	m := &Mesh{Name: "out"}
	uv := quadUVs()
	m.AddQuad(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, v3.Vec{Z: 1}, uv[0], uv[1], uv[2], uv[3])

	tris := Triangles(m)
	if len(tris) != m.TriangleCount() {
		t.Fatalf("flattened %d triangles, want %d", len(tris), m.TriangleCount())
	}
	// First triangle follows the p0-p2 diagonal split.
	if tris[0][0] != (v3.Vec{}) || tris[0][1] != (v3.Vec{X: 1}) || tris[0][2] != (v3.Vec{X: 1, Y: 1}) {
		t.Errorf("first triangle %v, want quad corners 0..2", *tris[0])
	}
}

func TestValidateAcceptsGoodMesh(t *testing.T) {
	m := &Mesh{Name: "ok"}
	uv := quadUVs()
	m.AddQuad(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}, v3.Vec{Z: 1}, uv[0], uv[1], uv[2], uv[3])
	if err := Validate(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNaN(t *testing.T) {
	m := &Mesh{Name: "bad"}
	uv := quadUVs()
	m.AddTriangle(Wall, "brick", v3.Vec{X: math.NaN()}, v3.Vec{X: 1}, v3.Vec{Y: 1}, v3.Vec{Z: 1}, uv[0], uv[1], uv[2])
	if err := Validate(m); err == nil {
		t.Fatal("expected error for NaN vertex")
	}
}

func TestValidateRejectsDegenerateTriangle(t *testing.T) {
	m := &Mesh{Name: "flat"}
	uv := quadUVs()
	m.AddTriangle(Wall, "brick", v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 2}, v3.Vec{Z: 1}, uv[0], uv[1], uv[2])
	if err := Validate(m); err == nil {
		t.Fatal("expected error for zero-area triangle")
	}
}

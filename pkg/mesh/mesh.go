// Package mesh holds the flat triangle-mesh buffers produced by the
// fabrication pipeline. All arrays are flat: vertices and normals carry 3
// floats per vertex, UVs carry 2, indices carry 3 uint32 per triangle.
// Triangles are grouped by surface category and material so a renderer
// can batch them as it sees fit.
package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Category classifies a generated surface.
type Category int

const (
	Wall        Category = iota // exterior wall quad
	Return                      // vertical quad bridging two extrusion depths
	Cap                         // horizontal top cap over an extruded bay
	Reveal                      // inward opening jamb/sill/header surface
	CornerPatch                 // stitched corner geometry
	Roof                        // roof triangles over the minimum perimeter
	Stitch                      // vertical band between stacked layers
)

func (c Category) String() string {
	switch c {
	case Wall:
		return "wall"
	case Return:
		return "return"
	case Cap:
		return "cap"
	case Reveal:
		return "reveal"
	case CornerPatch:
		return "corner-patch"
	case Roof:
		return "roof"
	case Stitch:
		return "stitch"
	default:
		return "unknown"
	}
}

// Group is a contiguous index range sharing a category and material.
type Group struct {
	Category Category `json:"category"`
	Material string   `json:"material"`
	Start    int      `json:"start"` // first index in Indices
	Count    int      `json:"count"` // number of indices
}

// Mesh is a triangle mesh suitable for rendering.
type Mesh struct {
	Name     string    `json:"name,omitempty"`
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Groups   []Group   `json:"groups"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// Vertex returns vertex i as a float64 vector.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[i*3]),
		Y: float64(m.Vertices[i*3+1]),
		Z: float64(m.Vertices[i*3+2]),
	}
}

// UV is a texture coordinate pair.
type UV struct {
	U, V float64
}

// AddTriangle appends one triangle with a shared face normal. Vertices
// are not shared across triangles; every surface owns its corners so that
// per-surface normals and UV seams stay exact.
func (m *Mesh) AddTriangle(cat Category, material string, p0, p1, p2 v3.Vec, n v3.Vec, t0, t1, t2 UV) {
	start := len(m.Indices)
	base := uint32(m.VertexCount())
	for _, p := range []v3.Vec{p0, p1, p2} {
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	for _, t := range []UV{t0, t1, t2} {
		m.UVs = append(m.UVs, float32(t.U), float32(t.V))
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
	m.extendGroup(cat, material, start, 3)
}

// AddQuad appends a quad as two triangles split on the p0-p2 diagonal.
// The split is fixed so mirrored inputs produce mirrored topology.
func (m *Mesh) AddQuad(cat Category, material string, p0, p1, p2, p3 v3.Vec, n v3.Vec, t0, t1, t2, t3 UV) {
	m.AddTriangle(cat, material, p0, p1, p2, n, t0, t1, t2)
	m.AddTriangle(cat, material, p0, p2, p3, n, t0, t2, t3)
}

// extendGroup grows the trailing group when category and material match,
// otherwise opens a new one.
func (m *Mesh) extendGroup(cat Category, material string, start, count int) {
	if len(m.Groups) > 0 {
		g := &m.Groups[len(m.Groups)-1]
		if g.Category == cat && g.Material == material && g.Start+g.Count == start {
			g.Count += count
			return
		}
	}
	m.Groups = append(m.Groups, Group{Category: cat, Material: material, Start: start, Count: count})
}

// Append merges another mesh into m, keeping its groups.
func (m *Mesh) Append(other *Mesh) {
	base := uint32(m.VertexCount())
	idxBase := len(m.Indices)
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Normals = append(m.Normals, other.Normals...)
	m.UVs = append(m.UVs, other.UVs...)
	for _, i := range other.Indices {
		m.Indices = append(m.Indices, i+base)
	}
	for _, g := range other.Groups {
		g.Start += idxBase
		m.Groups = append(m.Groups, g)
	}
}

// TrianglesIn calls fn for every triangle in the given category.
func (m *Mesh) TrianglesIn(cat Category, fn func(p0, p1, p2 v3.Vec)) {
	for _, g := range m.Groups {
		if g.Category != cat {
			continue
		}
		for i := g.Start; i < g.Start+g.Count; i += 3 {
			fn(m.Vertex(int(m.Indices[i])), m.Vertex(int(m.Indices[i+1])), m.Vertex(int(m.Indices[i+2])))
		}
	}
}

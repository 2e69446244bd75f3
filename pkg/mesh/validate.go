package mesh

import (
	"fmt"

	"github.com/chewxy/math32"
)

// DegenerateAreaTol is the minimum triangle area accepted by Validate.
const DegenerateAreaTol = 1e-10

// Validate rejects non-finite vertex data and zero-area triangles.
// The pipeline calls it once per finished layer; a failure there is a
// fatal build error for that layer.
func Validate(m *Mesh) error {
	for i, v := range m.Vertices {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("mesh %q: non-finite vertex component at %d", m.Name, i)
		}
	}
	for i, v := range m.Normals {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("mesh %q: non-finite normal component at %d", m.Name, i)
		}
	}
	nv := m.VertexCount()
	for i := 0; i < len(m.Indices); i += 3 {
		for j := 0; j < 3; j++ {
			if int(m.Indices[i+j]) >= nv {
				return fmt.Errorf("mesh %q: triangle %d index out of range", m.Name, i/3)
			}
		}
		if TriangleArea(m, i) < DegenerateAreaTol {
			return fmt.Errorf("mesh %q: triangle %d is degenerate", m.Name, i/3)
		}
	}
	return nil
}

// TriangleArea returns the area of the triangle starting at index offset
// i (a multiple of 3) in the index buffer.
func TriangleArea(m *Mesh, i int) float32 {
	a := m.Vertex(int(m.Indices[i]))
	b := m.Vertex(int(m.Indices[i+1]))
	c := m.Vertex(int(m.Indices[i+2]))
	ab := b.Sub(a)
	ac := c.Sub(a)
	cx := ab.Y*ac.Z - ab.Z*ac.Y
	cy := ab.Z*ac.X - ab.X*ac.Z
	cz := ab.X*ac.Y - ab.Y*ac.X
	return 0.5 * math32.Sqrt(float32(cx*cx+cy*cy+cz*cz))
}

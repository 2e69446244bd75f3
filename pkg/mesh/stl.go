package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// Triangles flattens the index buffer into sdfx triangles.
func Triangles(m *Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < len(m.Indices); i += 3 {
		t := sdf.Triangle3{
			m.Vertex(int(m.Indices[i])),
			m.Vertex(int(m.Indices[i+1])),
			m.Vertex(int(m.Indices[i+2])),
		}
		tris = append(tris, &t)
	}
	return tris
}

// SaveSTL writes the mesh as a binary STL file. Surface grouping and UV
// data do not survive STL; this is a geometry-inspection export, not the
// renderer hand-off.
func SaveSTL(path string, m *Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("mesh %q: nothing to export", m.Name)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("stl export: %w", err)
	}
	return nil
}

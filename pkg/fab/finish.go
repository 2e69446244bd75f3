package fab

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

// finishFace validates one face's geometry. A face that fails validation
// is replaced wholesale by a flat wall along its baseline, so a single
// bad bay can never sink the whole layer.
func finishFace(m *mesh.Mesh, frame outline.FaceFrame, base outline.Baseline, mat facade.MaterialSpec, z0, z1 float64, layerIdx int, warns *[]facade.Warning) *mesh.Mesh {
	if err := mesh.Validate(m); err == nil {
		return m
	}
	*warns = append(*warns, facade.Warning{
		Code:    "FALLBACK_FLAT_WALL",
		Layer:   layerIdx,
		Face:    frame.Face,
		Message: fmt.Sprintf("face %d geometry failed validation; rebuilt as a flat wall", frame.Face),
	})
	flat := &mesh.Mesh{Name: m.Name}
	d := base.End.Sub(base.Start)
	if d.Length() <= 1e-12 {
		return flat
	}
	s := uvScale(mat)
	addVerticalQuad(flat, mesh.Wall, mat.Name, base.Start, base.End, z0, z1,
		outward(d), base.U0*s, base.U1*s, z0*s, z1*s)
	return flat
}

// finishCorner validates one corner patch. On failure the patch collapses
// to a single quad across the corner gap, which is always well formed for
// distinct baseline endpoints, or to nothing when the gap itself is
// degenerate.
func finishCorner(m *mesh.Mesh, res outline.CornerResult, mat facade.MaterialSpec, z0, z1 float64, layerIdx int, warns *[]facade.Warning) *mesh.Mesh {
	if m.IsEmpty() {
		return m
	}
	if err := mesh.Validate(m); err == nil {
		return m
	}
	*warns = append(*warns, facade.Warning{
		Code:    "FALLBACK_CORNER_QUAD",
		Layer:   layerIdx,
		Corner:  res.Corner,
		Message: fmt.Sprintf("corner %d patch failed validation; rebuilt as a direct quad", res.Corner),
	})
	flat := &mesh.Mesh{Name: m.Name}
	d := res.NextStart.Sub(res.PrevEnd)
	l := d.Length()
	if l <= 1e-12 {
		return flat
	}
	s := uvScale(mat)
	addVerticalQuad(flat, mesh.CornerPatch, mat.Name, res.PrevEnd, res.NextStart, z0, z1,
		outward(d), 0, l*s, 0, (z1-z0)*s)
	return flat
}

// normalizeNormals renormalizes the normal buffer in place. Quads built
// from float64 geometry land in float32 buffers; renormalizing once at
// the end removes the accumulated rounding drift.
func normalizeNormals(m *mesh.Mesh) {
	for i := 0; i+2 < len(m.Normals); i += 3 {
		x, y, z := m.Normals[i], m.Normals[i+1], m.Normals[i+2]
		l := math32.Sqrt(x*x + y*y + z*z)
		if l <= 0 {
			continue
		}
		m.Normals[i] = x / l
		m.Normals[i+1] = y / l
		m.Normals[i+2] = z / l
	}
}

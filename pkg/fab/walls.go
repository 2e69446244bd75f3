package fab

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

// faceBuild emits one face's geometry: wall strips between breakpoints,
// return quads at extrusion steps, top caps over extruded segments, and
// opening cutouts with their reveal surfaces. Each face builds from its
// own breakpoints and the already-finalized perimeter baseline only; no
// cross-face state.
type faceBuild struct {
	frame            outline.FaceFrame
	prof             *outline.Profile
	base             outline.Baseline
	flow             facade.TextureFlow
	cutStart, cutEnd float64 // corner cutout trims at the face ends
	z0, z1           float64
	opts             Options
}

func (fb *faceBuild) build() *mesh.Mesh {
	m := &mesh.Mesh{Name: fmt.Sprintf("face-%d", fb.frame.Face)}
	tol := fb.opts.Tol

	u0 := fb.base.U0 + fb.cutStart
	u1 := fb.base.U1 - fb.cutEnd
	if u1-u0 <= tol {
		return m
	}

	xs := []float64{u0}
	for _, b := range fb.prof.Breaks {
		if b.U > u0+tol && b.U < u1-tol {
			xs = append(xs, b.U)
		}
	}
	xs = append(xs, u1)

	for i := 0; i+1 < len(xs); i++ {
		fb.emitInterval(m, xs[i], xs[i+1])
	}
	for i := 1; i+1 < len(xs); i++ {
		fb.emitReturn(m, xs[i])
	}
	fb.emitEndReturns(m, u0, u1)
	return m
}

// emitEndReturns closes the sides of extrusions that reach the face
// boundary: without them a bay extruded up to a corner or cut edge would
// leave its flank open.
func (fb *faceBuild) emitEndReturns(m *mesh.Mesh, u0, u1 float64) {
	tol := fb.opts.Tol
	if e := fb.eRight(u0); e > tol {
		seg := fb.prof.SegAt(clamp(u0+tol*2, 0, fb.frame.Length))
		fb.addEndReturn(m, seg, u0, e, fb.frame.Tangent.MulScalar(-1))
	}
	if e := fb.eLeft(u1); e > tol {
		seg := fb.prof.SegAt(clamp(u1-tol*2, 0, fb.frame.Length))
		fb.addEndReturn(m, seg, u1, e, fb.frame.Tangent)
	}
}

func (fb *faceBuild) addEndReturn(m *mesh.Mesh, seg *outline.Segment, u, e float64, nrm v2.Vec) {
	mat := facade.MaterialSpec{}
	if seg != nil {
		mat = seg.Material
	}
	qa := fb.frame.Offset(u, fb.base.DMin)
	qb := fb.frame.Offset(u, fb.base.DMin+e)
	s := uvScale(mat)
	addVerticalQuad(m, mesh.Return, mat.Name, qa, qb, fb.z0, fb.z1, nrm,
		0, e*s, 0, (fb.z1-fb.z0)*s)
}

// eRight samples extrusion right-continuously, clamped to the authored
// face range so mitered extensions reuse the end value.
func (fb *faceBuild) eRight(u float64) float64 {
	return fb.prof.EAt(clamp(u, 0, fb.frame.Length))
}

// eLeft is the left-continuous counterpart.
func (fb *faceBuild) eLeft(u float64) float64 {
	return fb.prof.ELeft(clamp(u, 0, fb.frame.Length))
}

// emitInterval produces the primary surfaces for one breakpoint interval:
// exactly one exterior wall strip (full height, or sill/header pieces
// around an opening) plus the interval's top cap.
func (fb *faceBuild) emitInterval(m *mesh.Mesh, ua, ub float64) {
	tol := fb.opts.Tol
	seg := fb.prof.SegAt(clamp((ua+ub)/2, 0, fb.frame.Length))
	if seg == nil {
		return
	}
	ea := fb.eRight(ua)
	eb := fb.eLeft(ub)

	o := seg.Opening
	inOpening := o != nil && ua >= o.UStart-tol && ub <= o.UEnd+tol
	if inOpening {
		if o.Sill > tol {
			fb.addWall(m, seg, ua, ub, ea, eb, fb.z0, fb.z0+o.Sill)
		}
		if o.Head < fb.z1-fb.z0-tol {
			fb.addWall(m, seg, ua, ub, ea, eb, fb.z0+o.Head, fb.z1)
		}
		fb.emitReveals(m, seg, o, ua, ub, ea, eb)
	} else {
		fb.addWall(m, seg, ua, ub, ea, eb, fb.z0, fb.z1)
	}

	fb.emitCap(m, seg, ua, ub, ea, eb)
}

// addWall emits one exterior wall quad between face positions ua..ub over
// the vertical band za..zb.
func (fb *faceBuild) addWall(m *mesh.Mesh, seg *outline.Segment, ua, ub, ea, eb, za, zb float64) {
	pa := fb.frame.Offset(ua, fb.base.DMin+ea)
	pb := fb.frame.Offset(ub, fb.base.DMin+eb)
	d := pb.Sub(pa)
	if d.Length() <= fb.opts.Tol {
		return
	}
	nrm := outward(d)
	uvA, uvB := fb.uvU(seg, ua), fb.uvU(seg, ub)
	s := uvScale(seg.Material)
	addVerticalQuad(m, mesh.Wall, seg.Material.Name, pa, pb, za, zb, nrm,
		uvA, uvB, (za-fb.z0)*s, (zb-fb.z0)*s)
}

// emitReturn bridges an extrusion step at an interior breakpoint with a
// vertical return quad. The surface faces the shallower side.
func (fb *faceBuild) emitReturn(m *mesh.Mesh, u float64) {
	tol := fb.opts.Tol
	eL := fb.eLeft(u)
	eR := fb.eRight(u)
	if abs(eL-eR) <= tol {
		return
	}
	lo, hi := min(eL, eR), max(eL, eR)
	qa := fb.frame.Offset(u, fb.base.DMin+lo)
	qb := fb.frame.Offset(u, fb.base.DMin+hi)

	// Facing and material come from the sides of the step: the surface is
	// exposed toward the shallower region and belongs to the deeper one.
	nrm := fb.frame.Tangent
	deep := fb.prof.SegAt(clamp(u-tol*2, 0, fb.frame.Length))
	if eR > eL {
		nrm = nrm.MulScalar(-1)
		deep = fb.prof.SegAt(clamp(u+tol*2, 0, fb.frame.Length))
	}
	mat := facade.MaterialSpec{}
	if deep != nil {
		mat = deep.Material
	}
	s := uvScale(mat)
	addVerticalQuad(m, mesh.Return, mat.Name, qa, qb, fb.z0, fb.z1, nrm,
		lo*s, hi*s, 0, (fb.z1-fb.z0)*s)
}

// emitCap closes an extruded interval at the roof plane: a quad when both
// ends are extruded, a triangular wedge cap when only one is. Cap corners
// sit on the minimum perimeter line and the extruded edge only.
func (fb *faceBuild) emitCap(m *mesh.Mesh, seg *outline.Segment, ua, ub, ea, eb float64) {
	tol := fb.opts.Tol
	if ea <= tol && eb <= tol {
		return
	}
	innerA := fb.frame.Offset(ua, fb.base.DMin)
	innerB := fb.frame.Offset(ub, fb.base.DMin)
	outerA := fb.frame.Offset(ua, fb.base.DMin+ea)
	outerB := fb.frame.Offset(ub, fb.base.DMin+eb)
	s := uvScale(seg.Material)
	uvA, uvB := fb.uvU(seg, ua), fb.uvU(seg, ub)

	switch {
	case ea > tol && eb > tol:
		addHorizontalQuad(m, mesh.Cap, seg.Material.Name, fb.z1, true,
			[4]v2.Vec{innerA, innerB, outerB, outerA},
			[4]mesh.UV{{U: uvA}, {U: uvB}, {U: uvB, V: eb * s}, {U: uvA, V: ea * s}})
	case ea > tol:
		addHorizontalTri(m, mesh.Cap, seg.Material.Name, fb.z1, true,
			[3]v2.Vec{innerA, innerB, outerA},
			[3]mesh.UV{{U: uvA}, {U: uvB}, {U: uvA, V: ea * s}})
	default:
		addHorizontalTri(m, mesh.Cap, seg.Material.Name, fb.z1, true,
			[3]v2.Vec{innerA, innerB, outerB},
			[3]mesh.UV{{U: uvA}, {U: uvB}, {U: uvB, V: eb * s}})
	}
}

// emitReveals produces the inward surfaces of an opening: jambs at the
// opening cutlines plus sill and header strips. The jamb's outer depth at
// a cutline shared by two wall regions belongs to the region with the
// greater outward depth, independent of emission order.
func (fb *faceBuild) emitReveals(m *mesh.Mesh, seg *outline.Segment, o *facade.Opening, ua, ub, ea, eb float64) {
	tol := fb.opts.Tol
	if o.Reveal <= tol {
		return
	}
	s := uvScale(seg.Material)
	zs := fb.z0 + o.Sill
	zh := fb.z0 + o.Head

	if abs(ua-o.UStart) <= tol {
		dOut := fb.base.DMin + max(fb.eLeft(ua), fb.eRight(ua))
		qOut := fb.frame.Offset(ua, dOut)
		qIn := fb.frame.Offset(ua, dOut-o.Reveal)
		addVerticalQuad(m, mesh.Reveal, seg.Material.Name, qOut, qIn, zs, zh,
			fb.frame.Tangent, 0, o.Reveal*s, 0, (zh-zs)*s)
	}
	if abs(ub-o.UEnd) <= tol {
		dOut := fb.base.DMin + max(fb.eLeft(ub), fb.eRight(ub))
		qOut := fb.frame.Offset(ub, dOut)
		qIn := fb.frame.Offset(ub, dOut-o.Reveal)
		addVerticalQuad(m, mesh.Reveal, seg.Material.Name, qOut, qIn, zs, zh,
			fb.frame.Tangent.MulScalar(-1), 0, o.Reveal*s, 0, (zh-zs)*s)
	}

	outA := fb.frame.Offset(ua, fb.base.DMin+ea)
	outB := fb.frame.Offset(ub, fb.base.DMin+eb)
	inA := fb.frame.Offset(ua, fb.base.DMin+ea-o.Reveal)
	inB := fb.frame.Offset(ub, fb.base.DMin+eb-o.Reveal)
	uvA, uvB := fb.uvU(seg, ua), fb.uvU(seg, ub)
	uvs := [4]mesh.UV{{U: uvA}, {U: uvB}, {U: uvB, V: o.Reveal * s}, {U: uvA, V: o.Reveal * s}}
	if o.Sill > tol {
		// Sill reveal faces up.
		addHorizontalQuad(m, mesh.Reveal, seg.Material.Name, zs, true,
			[4]v2.Vec{inA, inB, outB, outA}, uvs)
	}
	if o.Head < fb.z1-fb.z0-tol {
		// Header reveal faces down.
		addHorizontalQuad(m, mesh.Reveal, seg.Material.Name, zh, false,
			[4]v2.Vec{inA, inB, outB, outA}, uvs)
	}
}

// uvU maps a face position to a texture u coordinate honoring the face's
// texture flow.
func (fb *faceBuild) uvU(seg *outline.Segment, u float64) float64 {
	base := 0.0
	if fb.flow == facade.FlowPerBay && seg.BayID != "" {
		base = seg.BayU0
	}
	return (u - base) * uvScale(seg.Material)
}

func uvScale(m facade.MaterialSpec) float64 {
	if m.UVScale > 0 {
		return m.UVScale
	}
	return 1
}

// ---------------------------------------------------------------------------
// Shared emission helpers
// ---------------------------------------------------------------------------

// outward returns the outward plan normal of a loop-ordered edge
// direction (clockwise footprint convention).
func outward(d v2.Vec) v2.Vec {
	n := v2.Vec{X: -d.Y, Y: d.X}
	l := n.Length()
	if l == 0 {
		return n
	}
	return n.MulScalar(1 / l)
}

func vec3(p v2.Vec, z float64) v3.Vec { return v3.Vec{X: p.X, Y: p.Y, Z: z} }

// addVerticalQuad emits a vertical quad between plan points qa and qb
// spanning za..zb, wound so the triangles face nrm. uvA/uvB are the u
// texture coordinates of the qa/qb columns, va/vb of the za/zb rows.
func addVerticalQuad(m *mesh.Mesh, cat mesh.Category, material string, qa, qb v2.Vec, za, zb float64, nrm v2.Vec, uvA, uvB, va, vb float64) {
	d := qb.Sub(qa)
	n3 := v3.Vec{X: nrm.X, Y: nrm.Y}
	// Winding of (qa,qb,qb-top,qa-top) faces rotate-right of d.
	right := v2.Vec{X: d.Y, Y: -d.X}
	if right.Dot(nrm) > 0 {
		m.AddQuad(cat, material,
			vec3(qa, za), vec3(qb, za), vec3(qb, zb), vec3(qa, zb), n3,
			mesh.UV{U: uvA, V: va}, mesh.UV{U: uvB, V: va}, mesh.UV{U: uvB, V: vb}, mesh.UV{U: uvA, V: vb})
		return
	}
	m.AddQuad(cat, material,
		vec3(qb, za), vec3(qa, za), vec3(qa, zb), vec3(qb, zb), n3,
		mesh.UV{U: uvB, V: va}, mesh.UV{U: uvA, V: va}, mesh.UV{U: uvA, V: vb}, mesh.UV{U: uvB, V: vb})
}

// addHorizontalQuad emits a quad in a horizontal plane wound to face up
// or down. Points and UVs travel together when the order is reversed.
func addHorizontalQuad(m *mesh.Mesh, cat mesh.Category, material string, z float64, up bool, pts [4]v2.Vec, uvs [4]mesh.UV) {
	if shoelace4(pts) < 0 == up {
		pts[1], pts[3] = pts[3], pts[1]
		uvs[1], uvs[3] = uvs[3], uvs[1]
	}
	n := v3.Vec{Z: 1}
	if !up {
		n.Z = -1
	}
	m.AddQuad(cat, material,
		vec3(pts[0], z), vec3(pts[1], z), vec3(pts[2], z), vec3(pts[3], z), n,
		uvs[0], uvs[1], uvs[2], uvs[3])
}

// addHorizontalTri emits a triangle in a horizontal plane wound to face
// up or down.
func addHorizontalTri(m *mesh.Mesh, cat mesh.Category, material string, z float64, up bool, pts [3]v2.Vec, uvs [3]mesh.UV) {
	area := outline.Cross(pts[1].Sub(pts[0]), pts[2].Sub(pts[0]))
	if area < 0 == up {
		pts[1], pts[2] = pts[2], pts[1]
		uvs[1], uvs[2] = uvs[2], uvs[1]
	}
	n := v3.Vec{Z: 1}
	if !up {
		n.Z = -1
	}
	m.AddTriangle(cat, material, vec3(pts[0], z), vec3(pts[1], z), vec3(pts[2], z), n,
		uvs[0], uvs[1], uvs[2])
}

func shoelace4(p [4]v2.Vec) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		a, b := p[i], p[(i+1)%4]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

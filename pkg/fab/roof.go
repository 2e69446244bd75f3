package fab

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

// emitRoof triangulates the minimum perimeter loop at the roof plane.
// Roof triangles reference loop vertices exclusively; bay extrusion
// vertices never take part, which keeps the roof stable under any bay
// depth edit. Ear clipping always picks the lowest-index ear so repeated
// builds produce identical topology.
func emitRoof(m *mesh.Mesh, loop *outline.Loop, z float64, mat facade.MaterialSpec, layerIdx int, opts Options, warns *[]facade.Warning) {
	pts := loop.Points
	if len(pts) < 3 {
		return
	}
	tris, ok := earClip(pts, opts.Tol)
	if !ok {
		// Numerical dead end. Fall back to a fan so the layer still has a
		// roof, and record that the shape was not honored exactly.
		*warns = append(*warns, facade.Warning{
			Code:    "ROOF_FAN_FALLBACK",
			Layer:   layerIdx,
			Message: "perimeter loop defeated ear clipping; roof built as a fan",
		})
		tris = tris[:0]
		for i := 1; i+1 < len(pts); i++ {
			tris = append(tris, [3]int{0, i, i + 1})
		}
	}

	s := uvScale(mat)
	for _, t := range tris {
		p0, p1, p2 := pts[t[0]], pts[t[1]], pts[t[2]]
		addHorizontalTri(m, mesh.Roof, mat.Name, z, true,
			[3]v2.Vec{p0, p1, p2},
			[3]mesh.UV{
				{U: p0.X * s, V: p0.Y * s},
				{U: p1.X * s, V: p1.Y * s},
				{U: p2.X * s, V: p2.Y * s},
			})
	}
}

// earClip triangulates a clockwise simple polygon. It returns index
// triples into pts and reports failure instead of guessing when no ear
// can be found.
func earClip(pts []v2.Vec, tol float64) ([][3]int, bool) {
	n := len(pts)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var tris [][3]int

	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			ip := idx[(i-1+len(idx))%len(idx)]
			ic := idx[i]
			in := idx[(i+1)%len(idx)]
			a, b, c := pts[ip], pts[ic], pts[in]

			turn := outline.Cross(b.Sub(a), c.Sub(b))
			if turn > tol {
				// Reflex for a clockwise polygon.
				continue
			}
			if anyInsideTri(pts, idx, ip, ic, in, tol) {
				continue
			}
			if turn < -tol {
				tris = append(tris, [3]int{ip, ic, in})
			}
			// Collinear ears are removed without emitting a sliver.
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return tris, false
		}
	}
	if len(idx) == 3 {
		a, b, c := pts[idx[0]], pts[idx[1]], pts[idx[2]]
		if abs(outline.Cross(b.Sub(a), c.Sub(a))) > tol {
			tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
		}
	}
	return tris, true
}

func anyInsideTri(pts []v2.Vec, idx []int, ip, ic, in int, tol float64) bool {
	a, b, c := pts[ip], pts[ic], pts[in]
	for _, j := range idx {
		if j == ip || j == ic || j == in {
			continue
		}
		if pointInTri(pts[j], a, b, c, tol) {
			return true
		}
	}
	return false
}

// pointInTri is orientation-agnostic: all three edge tests must agree in
// sign for the point to be strictly inside.
func pointInTri(p, a, b, c v2.Vec, tol float64) bool {
	d1 := outline.Cross(b.Sub(a), p.Sub(a))
	d2 := outline.Cross(c.Sub(b), p.Sub(b))
	d3 := outline.Cross(a.Sub(c), p.Sub(c))
	neg := d1 < -tol || d2 < -tol || d3 < -tol
	pos := d1 > tol || d2 > tol || d3 > tol
	return !(neg && pos)
}

// emitStitch closes a vertical gap between two stacked layers with a
// band along the upper footprint. Contiguous layers (no gap) need no
// stitch; their shared boundary already matches exactly where footprints
// coincide.
func emitStitch(m *mesh.Mesh, upper *facade.Layer, fromZ, toZ float64, opts Options) {
	if toZ-fromZ <= opts.Tol {
		return
	}
	n := upper.CornerCount()
	mat := upper.Material
	s := uvScale(mat)
	var run float64
	for i := 0; i < n; i++ {
		a := upper.Footprint[i]
		b := upper.Footprint[(i+1)%n]
		qa := v2.Vec{X: a.X, Y: a.Y}
		qb := v2.Vec{X: b.X, Y: b.Y}
		d := qb.Sub(qa)
		l := d.Length()
		if l <= opts.Tol {
			continue
		}
		addVerticalQuad(m, mesh.Stitch, mat.Name, qa, qb, fromZ, toZ, outward(d),
			run*s, (run+l)*s, 0, (toZ-fromZ)*s)
		run += l
	}
}

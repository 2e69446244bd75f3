package fab

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

// cornerCuts holds the resolved tangent trims per corner. prev[c] trims
// the end of face c-1, next[c] trims the start of face c.
type cornerCuts struct {
	prev []float64
	next []float64
}

// computeCuts clamps authored cutout wants to feasibility. A cut may not
// shrink the corner-adjacent breakpoint interval below MinBayWidth; when
// a face's two cuts together still overrun, the cut at the corner where
// the face loses precedence is reduced first.
func computeCuts(l *facade.Layer, layerIdx int, profiles []*outline.Profile, opts Options) (cornerCuts, []facade.Warning) {
	n := l.CornerCount()
	cuts := cornerCuts{prev: make([]float64, n), next: make([]float64, n)}
	var warns []facade.Warning

	clampWant := func(c facade.CornerID, want, maxCut float64, side string) float64 {
		got := clamp(want, 0, max(maxCut, 0))
		if got != want {
			warns = append(warns, facade.Warning{
				Code:   "CUTOUT_CLAMPED",
				Layer:  layerIdx,
				Corner: c,
				Message: fmt.Sprintf("corner %d %s cut %.4f clamped to %.4f (min bay width %.4f)",
					c, side, want, got, opts.MinBayWidth),
			})
		}
		return got
	}

	for _, cut := range l.Cuts {
		c := int(cut.Corner)
		prevFace := (c - 1 + n) % n
		nextFace := c
		cuts.prev[c] = clampWant(cut.Corner, cut.WantPrev,
			lastIntervalLen(profiles[prevFace])-opts.MinBayWidth, "prev")
		cuts.next[c] = clampWant(cut.Corner, cut.WantNext,
			firstIntervalLen(profiles[nextFace])-opts.MinBayWidth, "next")
	}

	// Per-face total feasibility: both cuts on one face must leave at
	// least MinBayWidth of wall.
	for f := 0; f < n; f++ {
		startCorner := f
		endCorner := (f + 1) % n
		avail := profiles[f].Length - opts.MinBayWidth
		total := cuts.next[startCorner] + cuts.prev[endCorner]
		if total <= avail {
			continue
		}
		over := total - avail
		// Reduce first at the corner where this face loses.
		loseAtStart := outline.PrecedenceWinner(facade.FaceID((f-1+n)%n), facade.FaceID(f)) != facade.FaceID(f)
		order := []int{startCorner, endCorner}
		sides := []*[]float64{&cuts.next, &cuts.prev}
		if !loseAtStart {
			order = []int{endCorner, startCorner}
			sides = []*[]float64{&cuts.prev, &cuts.next}
		}
		for i := 0; i < 2 && over > 0; i++ {
			s := *sides[i]
			take := min(over, s[order[i]])
			s[order[i]] -= take
			over -= take
		}
		warns = append(warns, facade.Warning{
			Code:    "CUTOUT_REDUCED",
			Layer:   layerIdx,
			Face:    facade.FaceID(f),
			Message: fmt.Sprintf("face %d: corner cuts reduced to preserve %.4f of wall", f, opts.MinBayWidth),
		})
	}
	return cuts, warns
}

func firstIntervalLen(p *outline.Profile) float64 {
	if len(p.Breaks) < 2 {
		return p.Length
	}
	return p.Breaks[1].U - p.Breaks[0].U
}

func lastIntervalLen(p *outline.Profile) float64 {
	if len(p.Breaks) < 2 {
		return p.Length
	}
	return p.Breaks[len(p.Breaks)-1].U - p.Breaks[len(p.Breaks)-2].U
}

// applyCornerPrecedence resolves contested corners: when both adjacent
// faces carry positive extrusion at a shared corner, the losing face
// ramps to zero inside the corner zone so the two extrusions never
// overlap. Precedence is the same explicit order used everywhere.
func applyCornerPrecedence(profiles []*outline.Profile, layerIdx int, opts Options) []facade.Warning {
	var warns []facade.Warning
	n := len(profiles)
	for c := 0; c < n; c++ {
		p := (c - 1 + n) % n
		q := c
		ePrev := profiles[p].ELeft(profiles[p].Length)
		eNext := profiles[q].EAt(0)
		if ePrev <= opts.Tol || eNext <= opts.Tol {
			continue
		}
		winner := outline.PrecedenceWinner(facade.FaceID(p), facade.FaceID(q))
		if winner == facade.FaceID(p) {
			rampToZero(profiles[q], false, opts)
		} else {
			rampToZero(profiles[p], true, opts)
		}
		loser := facade.FaceID(p)
		if winner == loser {
			loser = facade.FaceID(q)
		}
		warns = append(warns, facade.Warning{
			Code:   "CORNER_PRECEDENCE",
			Layer:  layerIdx,
			Corner: facade.CornerID(c),
			Face:   loser,
			Message: fmt.Sprintf("corner %d: face %d extrusion clamped inside corner zone (face %d wins)",
				c, loser, winner),
		})
	}
	return warns
}

// rampToZero multiplies the extrusion profile by a linear falloff inside
// the corner zone at one end of the face, reaching exactly zero at the
// face boundary.
func rampToZero(p *outline.Profile, atEnd bool, opts Options) {
	zone := min(opts.CornerZone, p.Length/2)
	if zone <= opts.Tol {
		return
	}
	var uSplit float64
	if atEnd {
		uSplit = p.Length - zone
	} else {
		uSplit = zone
	}
	p.SplitAt(uSplit, outline.BreakRamp, opts.Tol)

	factor := func(u float64) float64 {
		if atEnd {
			return clamp((p.Length-u)/zone, 0, 1)
		}
		return clamp(u/zone, 0, 1)
	}
	for i := range p.Segs {
		s := &p.Segs[i]
		if atEnd && s.U0 < uSplit-opts.Tol {
			continue
		}
		if !atEnd && s.U1 > uSplit+opts.Tol {
			continue
		}
		s.E0 *= factor(s.U0)
		s.E1 *= factor(s.U1)
	}
}

// buildCornerPatch emits the vertical stitch geometry of one resolved
// corner: a wall strip along the chamfer chain between the two adjacent
// baselines. A mitered corner has no chain and produces no geometry —
// the two walls already share the corner vertex exactly.
func buildCornerPatch(res outline.CornerResult, mat facade.MaterialSpec, z0, z1 float64, opts Options) *mesh.Mesh {
	m := &mesh.Mesh{Name: fmt.Sprintf("corner-%d", res.Corner)}
	chain := append([]v2.Vec{res.PrevEnd}, res.Patch...)
	chain = append(chain, res.NextStart)

	s := uvScale(mat)
	var run float64
	for i := 0; i+1 < len(chain); i++ {
		qa, qb := chain[i], chain[i+1]
		d := qb.Sub(qa)
		l := d.Length()
		if l <= opts.Tol {
			continue
		}
		addVerticalQuad(m, mesh.CornerPatch, mat.Name, qa, qb, z0, z1, outward(d),
			run*s, (run+l)*s, 0, (z1-z0)*s)
		run += l
	}
	return m
}

// Package outline computes the plan-stage geometry of one facade layer:
// per-face local frames, breakpoint and depth profiles, and the minimum
// perimeter loop with pluggable corner resolution.
//
// Everything here is pure 2D computation over the footprint. No global
// axis alignment is assumed anywhere; all directions come from the
// per-face frames so that rotating a footprint rotates every result with
// it.
package outline

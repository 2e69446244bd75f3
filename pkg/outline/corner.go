package outline

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// CornerInput gathers everything a corner strategy may look at for one
// footprint corner: the original position, both adjacent face frames, and
// both candidate offset endpoints with their minimum depths.
type CornerInput struct {
	Corner    facade.CornerID
	Position  v2.Vec
	PrevFace  facade.FaceID
	NextFace  facade.FaceID
	PrevFrame FaceFrame
	NextFrame FaceFrame
	PrevDepth float64 // dMin of the face ending at this corner
	NextDepth float64 // dMin of the face starting at this corner
	PrevEnd   v2.Vec  // prev face's candidate offset endpoint
	NextStart v2.Vec  // next face's candidate offset endpoint
	Tol       float64
}

// CornerResult is the resolved output for one corner. PrevEnd and
// NextStart are the final baseline endpoints of the two adjacent faces;
// Patch lists any extra loop vertices between them (a bevel chamfer).
// Owner names the face whose extrusion may reach the corner; the other
// face yields inside the corner zone.
type CornerResult struct {
	Corner    facade.CornerID
	Owner     facade.FaceID
	PrevEnd   v2.Vec
	NextStart v2.Vec
	Patch     []v2.Vec
}

// Strategy resolves one corner. Implementations must be pure functions of
// the input: no hidden state and no dependence on iteration order, so that
// repeated builds are bit-identical.
type Strategy func(in CornerInput) (CornerResult, error)

// DefaultPolicy is the corner policy used when none is configured.
const DefaultPolicy = "odd-wins"

var strategies = map[string]Strategy{
	"odd-wins": resolveOddWins,
	"bevel":    resolveBevel,
}

// RegisterStrategy installs a corner strategy under a policy name,
// replacing any previous registration.
func RegisterStrategy(name string, s Strategy) {
	strategies[name] = s
}

// StrategyByName returns the registered strategy for a policy name.
func StrategyByName(name string) (Strategy, bool) {
	s, ok := strategies[name]
	return s, ok
}

// PrecedenceWinner returns the face that wins a tie between two adjacent
// faces. The order is total and explicit: odd-indexed faces beat
// even-indexed ones, and within the same parity the lower index wins.
// Floating-point values never participate in the decision.
func PrecedenceWinner(a, b facade.FaceID) facade.FaceID {
	aOdd := a%2 != 0
	bOdd := b%2 != 0
	switch {
	case aOdd && !bOdd:
		return a
	case bOdd && !aOdd:
		return b
	case a <= b:
		return a
	default:
		return b
	}
}

// resolveOddWins is the default strategy: miter the two offset lines at
// their intersection and award corner ownership by odd-face precedence.
// Near-parallel tangents degrade to a bevel chamfer between the two
// candidate endpoints.
func resolveOddWins(in CornerInput) (CornerResult, error) {
	res := CornerResult{
		Corner: in.Corner,
		Owner:  PrecedenceWinner(in.PrevFace, in.NextFace),
	}

	denom := Cross(in.PrevFrame.Tangent, in.NextFrame.Tangent)
	if abs(denom) > in.Tol {
		s := Cross(in.NextStart.Sub(in.PrevEnd), in.NextFrame.Tangent) / denom
		p := in.PrevEnd.Add(in.PrevFrame.Tangent.MulScalar(s))
		if !isFiniteVec(p) {
			return res, fmt.Errorf("corner %d: non-finite miter point", in.Corner)
		}
		res.PrevEnd = p
		res.NextStart = p
		return res, nil
	}

	// Collinear faces. Equal depths mean the candidates already agree;
	// otherwise keep both and let the chamfer edge bridge the step.
	if in.PrevEnd.Sub(in.NextStart).Length() <= in.Tol {
		mid := in.PrevEnd.Add(in.NextStart).MulScalar(0.5)
		res.PrevEnd = mid
		res.NextStart = mid
		return res, nil
	}
	res.PrevEnd = in.PrevEnd
	res.NextStart = in.NextStart
	return res, nil
}

// resolveBevel always chamfers: both candidate endpoints survive and the
// loop gets a straight bevel edge between them. Ownership still follows
// odd-face precedence so swapping strategies never changes extrusion
// tie-breaks.
func resolveBevel(in CornerInput) (CornerResult, error) {
	res := CornerResult{
		Corner:    in.Corner,
		Owner:     PrecedenceWinner(in.PrevFace, in.NextFace),
		PrevEnd:   in.PrevEnd,
		NextStart: in.NextStart,
	}
	if in.PrevEnd.Sub(in.NextStart).Length() <= in.Tol {
		mid := in.PrevEnd.Add(in.NextStart).MulScalar(0.5)
		res.PrevEnd = mid
		res.NextStart = mid
	}
	return res, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

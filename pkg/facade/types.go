package facade

// Vec2 is a ground-plane point or direction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// FaceID identifies a face by the index of its start corner.
type FaceID int

// CornerID identifies a footprint corner by index.
type CornerID int

// TextureFlow selects how wall UVs advance along a face.
type TextureFlow int

const (
	FlowContinuous TextureFlow = iota // u runs uninterrupted over the face
	FlowPerBay                        // u restarts at every bay boundary
)

func (f TextureFlow) String() string {
	switch f {
	case FlowContinuous:
		return "continuous"
	case FlowPerBay:
		return "per-bay"
	default:
		return "unknown"
	}
}

// MaterialSpec is the flattened effective material for a face or bay.
// Master/slave inheritance is resolved upstream; the pipeline only sees
// the final name and UV scale.
type MaterialSpec struct {
	Name    string  `json:"name"`
	UVScale float64 `json:"uv_scale,omitempty"` // texture units per metre, 0 = 1
}

// DepthSpec is an authored wall depth over a bay or override interval.
// Left and Right are the depths at the interval's start and end; a uniform
// depth has Left == Right, a wedge interpolates linearly between them.
type DepthSpec struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Uniform returns a constant DepthSpec.
func Uniform(d float64) DepthSpec { return DepthSpec{Left: d, Right: d} }

// Wedge returns a linearly varying DepthSpec.
func Wedge(left, right float64) DepthSpec { return DepthSpec{Left: left, Right: right} }

// At evaluates the depth at normalized position t in [0, 1].
func (d DepthSpec) At(t float64) float64 {
	return d.Left + (d.Right-d.Left)*t
}

// IsUniform reports whether the depth does not vary over the interval.
func (d DepthSpec) IsUniform() bool { return d.Left == d.Right }

// Opening is a rectangular window or door cut in a bay's wall.
// UStart/UEnd are face-local positions; Sill and Head are heights above
// the layer base. Reveal is the inward depth of the jamb surfaces.
type Opening struct {
	UStart float64 `json:"u_start"`
	UEnd   float64 `json:"u_end"`
	Sill   float64 `json:"sill"`
	Head   float64 `json:"head"`
	Reveal float64 `json:"reveal,omitempty"`
}

// Bay is an authored sub-interval of a face carrying depth and openings.
type Bay struct {
	ID       string       `json:"id,omitempty"`
	Face     FaceID       `json:"face"`
	UStart   float64      `json:"u_start"`
	UEnd     float64      `json:"u_end"`
	Depth    *DepthSpec   `json:"depth,omitempty"`    // nil = inherit face default
	Material MaterialSpec `json:"material,omitempty"` // zero = inherit
	Openings []Opening    `json:"openings,omitempty"`
}

// DepthOverride is a segment-level depth override. It is the strongest
// entry in the stacking order: face default, then bay, then override.
type DepthOverride struct {
	Face   FaceID    `json:"face"`
	UStart float64   `json:"u_start"`
	UEnd   float64   `json:"u_end"`
	Depth  DepthSpec `json:"depth"`
}

// FaceSpec holds per-face defaults.
type FaceSpec struct {
	Depth    float64      `json:"depth"` // default authored depth over the whole face
	Material MaterialSpec `json:"material,omitempty"`
	Flow     TextureFlow  `json:"flow,omitempty"`
}

// CornerCut is an authored tangent-only trim near a footprint corner.
// WantPrev trims the end of the face before the corner, WantNext trims
// the start of the face after it. Wants are clamped to feasibility at
// build time.
type CornerCut struct {
	Corner   CornerID `json:"corner"`
	WantPrev float64  `json:"want_prev"`
	WantNext float64  `json:"want_next"`
}

package facade

import "sort"

// Layer is one horizontal band of a building: a footprint polygon plus all
// authoring data for the faces derived from it. Faces are never authored
// directly; face i runs from corner i to corner (i+1) mod n.
type Layer struct {
	Name      string              `json:"name,omitempty"`
	Footprint []Vec2              `json:"footprint"` // clockwise, closed implicitly
	Base      float64             `json:"base"`      // elevation of the layer floor
	Height    float64             `json:"height"`
	Faces     map[FaceID]FaceSpec `json:"faces,omitempty"`
	Bays      []Bay               `json:"bays,omitempty"`
	Overrides []DepthOverride     `json:"overrides,omitempty"`
	Cuts      []CornerCut         `json:"cuts,omitempty"`
	Material  MaterialSpec        `json:"material,omitempty"` // layer-wide default
	Flow      TextureFlow         `json:"flow,omitempty"`
}

// CornerCount returns the number of footprint corners (= number of faces).
func (l *Layer) CornerCount() int { return len(l.Footprint) }

// Top returns the elevation of the layer's roof plane.
func (l *Layer) Top() float64 { return l.Base + l.Height }

// FaceSpecFor returns the effective spec for a face, falling back to the
// layer-wide defaults for unset fields.
func (l *Layer) FaceSpecFor(f FaceID) FaceSpec {
	spec, ok := l.Faces[f]
	if !ok {
		return FaceSpec{Material: l.Material, Flow: l.Flow}
	}
	if spec.Material.Name == "" {
		spec.Material = l.Material
	}
	return spec
}

// BaysOn returns the bays authored on a face, ordered by UStart.
// Later-authored bays keep their relative order on ties so that the
// declared stacking order stays deterministic.
func (l *Layer) BaysOn(f FaceID) []Bay {
	var bays []Bay
	for _, b := range l.Bays {
		if b.Face == f {
			bays = append(bays, b)
		}
	}
	sort.SliceStable(bays, func(i, j int) bool { return bays[i].UStart < bays[j].UStart })
	return bays
}

// OverridesOn returns the segment overrides authored on a face, in
// declaration order.
func (l *Layer) OverridesOn(f FaceID) []DepthOverride {
	var ovs []DepthOverride
	for _, o := range l.Overrides {
		if o.Face == f {
			ovs = append(ovs, o)
		}
	}
	return ovs
}

// CutFor returns the authored cutout wants for a corner, if any.
func (l *Layer) CutFor(c CornerID) (CornerCut, bool) {
	for _, cut := range l.Cuts {
		if cut.Corner == c {
			return cut, true
		}
	}
	return CornerCut{}, false
}

// Building is a stack of layers, bottom to top.
type Building struct {
	Name   string   `json:"name,omitempty"`
	Layers []*Layer `json:"layers"`
}

// New creates an empty Building.
func New(name string) *Building {
	return &Building{Name: name}
}

// AddLayer appends a layer. When base is left at zero and layers already
// exist, the new layer is placed on top of the previous one.
func (b *Building) AddLayer(l *Layer) {
	if l.Base == 0 && len(b.Layers) > 0 {
		l.Base = b.Layers[len(b.Layers)-1].Top()
	}
	b.Layers = append(b.Layers, l)
}

// Package snapshot captures the plan stage of a layer build — face
// frames, depth profiles and the resolved perimeter — as plain data, and
// renders it to a top-down plan image for debugging. Snapshots are pure
// records: nothing in the pipeline reads them back.
package snapshot

import (
	"github.com/rogelgarcia/buildfab/pkg/outline"
)

// Point is a plan-view coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Breakpoint is one profile breakpoint, in face-local arc length.
type Breakpoint struct {
	U      float64 `json:"u"`
	Reason string  `json:"reason"`
}

// Face records the frame and profile of one footprint face.
type Face struct {
	Face   int          `json:"face"`
	A      Point        `json:"a"`
	B      Point        `json:"b"`
	Normal Point        `json:"normal"`
	Length float64      `json:"length"`
	DMin   float64      `json:"d_min"`
	Breaks []Breakpoint `json:"breaks"`
}

// Corner records one resolved corner of the perimeter.
type Corner struct {
	Corner    int     `json:"corner"`
	Owner     int     `json:"owner"`
	PrevEnd   Point   `json:"prev_end"`
	NextStart Point   `json:"next_start"`
	Patch     []Point `json:"patch,omitempty"`
}

// Layer is the full plan-stage record of one layer.
type Layer struct {
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Footprint []Point  `json:"footprint"`
	Faces     []Face   `json:"faces"`
	Loop      []Point  `json:"loop"`
	Corners   []Corner `json:"corners"`
}

// Capture copies the plan-stage products into a snapshot. The inputs stay
// untouched; the snapshot owns its slices.
func Capture(index int, name string, frames []outline.FaceFrame, profiles []*outline.Profile, loop *outline.Loop) *Layer {
	l := &Layer{Index: index, Name: name}
	for _, f := range frames {
		l.Footprint = append(l.Footprint, Point{X: f.A.X, Y: f.A.Y})
	}
	for i, f := range frames {
		face := Face{
			Face:   int(f.Face),
			A:      Point{X: f.A.X, Y: f.A.Y},
			B:      Point{X: f.B.X, Y: f.B.Y},
			Normal: Point{X: f.Normal.X, Y: f.Normal.Y},
			Length: f.Length,
		}
		if i < len(profiles) && profiles[i] != nil {
			face.DMin = profiles[i].DMin
			for _, b := range profiles[i].Breaks {
				face.Breaks = append(face.Breaks, Breakpoint{U: b.U, Reason: b.Reason.String()})
			}
		}
		l.Faces = append(l.Faces, face)
	}
	if loop != nil {
		for _, p := range loop.Points {
			l.Loop = append(l.Loop, Point{X: p.X, Y: p.Y})
		}
		for _, c := range loop.Corners {
			sc := Corner{
				Corner:    int(c.Corner),
				Owner:     int(c.Owner),
				PrevEnd:   Point{X: c.PrevEnd.X, Y: c.PrevEnd.Y},
				NextStart: Point{X: c.NextStart.X, Y: c.NextStart.Y},
			}
			for _, p := range c.Patch {
				sc.Patch = append(sc.Patch, Point{X: p.X, Y: p.Y})
			}
			l.Corners = append(l.Corners, sc)
		}
	}
	return l
}

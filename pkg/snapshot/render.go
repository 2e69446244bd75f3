package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// Plan-view palette.
var (
	colFootprint = color.NRGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	colLoop      = color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
	colBreak     = color.NRGBA{R: 0xc6, G: 0x28, B: 0x28, A: 0xff}
	colNormal    = color.NRGBA{R: 0x15, G: 0x65, B: 0xc0, A: 0xff}
	colPatch     = color.NRGBA{R: 0xf9, G: 0xa8, B: 0x25, A: 0xff}
)

const (
	renderSupersample = 4
	renderMargin      = 0.08 // fraction of the longer side
	normalGlyphLen    = 0.35
	breakTickLen      = 0.12
)

// Render draws the snapshot as a top-down plan image of the given size.
// Lines are rasterized at 4x and downscaled with CatmullRom, which reads
// far better than single-sample lines at typical debug sizes.
func Render(l *Layer, size int) *image.NRGBA {
	if size <= 0 {
		size = 512
	}
	super := size * renderSupersample
	img := image.NewNRGBA(image.Rect(0, 0, super, super))

	tr := fitTransform(l, super)

	// Footprint first so the loop draws over it where they coincide.
	drawPoly(img, l.Footprint, true, tr, colFootprint)
	for _, f := range l.Faces {
		mid := Point{X: (f.A.X + f.B.X) / 2, Y: (f.A.Y + f.B.Y) / 2}
		tip := Point{X: mid.X + f.Normal.X*normalGlyphLen, Y: mid.Y + f.Normal.Y*normalGlyphLen}
		drawLine(img, mid, tip, tr, colNormal)
		drawBreakTicks(img, f, tr)
	}
	drawPoly(img, l.Loop, true, tr, colLoop)
	for _, c := range l.Corners {
		if len(c.Patch) == 0 {
			continue
		}
		chain := append([]Point{c.PrevEnd}, c.Patch...)
		chain = append(chain, c.NextStart)
		drawPoly(img, chain, false, tr, colPatch)
	}

	return downscale(img, size)
}

// WriteWebP renders the snapshot and encodes it as a lossless WebP.
func WriteWebP(w io.Writer, l *Layer, size int) error {
	if err := nativewebp.Encode(w, Render(l, size), nil); err != nil {
		return fmt.Errorf("snapshot %q: webp encode: %w", l.Name, err)
	}
	return nil
}

// SaveWebP writes the rendered snapshot to path.
func SaveWebP(path string, l *Layer, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", l.Name, err)
	}
	defer f.Close()
	if err := WriteWebP(f, l, size); err != nil {
		return err
	}
	return f.Close()
}

// transform maps plan coordinates to pixel coordinates. Y flips so north
// is up.
type transform struct {
	scale      float64
	ox, oy     float64
	px0, py0   float64
	pixelsHigh float64
}

func (t transform) apply(p Point) (float64, float64) {
	return t.px0 + (p.X-t.ox)*t.scale, t.pixelsHigh - (t.py0 + (p.Y-t.oy)*t.scale)
}

func fitTransform(l *Layer, pixels int) transform {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(pts []Point) {
		for _, p := range pts {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	grow(l.Footprint)
	grow(l.Loop)
	if minX > maxX {
		return transform{scale: 1, pixelsHigh: float64(pixels)}
	}
	w, h := maxX-minX, maxY-minY
	longer := math.Max(math.Max(w, h), 1e-9)
	margin := longer * renderMargin
	scale := float64(pixels) / (longer + 2*margin)
	return transform{
		scale:      scale,
		ox:         minX,
		oy:         minY,
		px0:        (float64(pixels) - w*scale) / 2,
		py0:        (float64(pixels) - h*scale) / 2,
		pixelsHigh: float64(pixels),
	}
}

func drawPoly(img *image.NRGBA, pts []Point, closed bool, tr transform, c color.NRGBA) {
	if len(pts) < 2 {
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		drawLine(img, pts[i], pts[i+1], tr, c)
	}
	if closed && len(pts) > 2 {
		drawLine(img, pts[len(pts)-1], pts[0], tr, c)
	}
}

func drawBreakTicks(img *image.NRGBA, f Face, tr transform) {
	if f.Length <= 0 {
		return
	}
	tx := (f.B.X - f.A.X) / f.Length
	ty := (f.B.Y - f.A.Y) / f.Length
	for _, b := range f.Breaks {
		// Face-end breakpoints coincide with corners; ticks there are noise.
		if b.Reason == "face-end" {
			continue
		}
		p := Point{X: f.A.X + tx*b.U, Y: f.A.Y + ty*b.U}
		q := Point{X: p.X + f.Normal.X*breakTickLen, Y: p.Y + f.Normal.Y*breakTickLen}
		drawLine(img, p, q, tr, colBreak)
	}
}

// drawLine rasterizes with a plain DDA. Supersampling does the
// anti-aliasing, so per-pixel coverage math is not needed here.
func drawLine(img *image.NRGBA, a, b Point, tr transform, c color.NRGBA) {
	x0, y0 := tr.apply(a)
	x1, y1 := tr.apply(b)
	dx, dy := x1-x0, y1-y0
	steps := int(math.Max(math.Abs(dx), math.Abs(dy))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		img.SetNRGBA(int(x0+dx*t+0.5), int(y0+dy*t+0.5), c)
	}
}

func downscale(img *image.NRGBA, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

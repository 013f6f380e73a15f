package timeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/gogpu/framegraph"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrNilProgram is returned when Render is given no program.
var ErrNilProgram = errors.New("timeline: nil program")

// Options controls the geometry of the diagram. Zero fields take the
// defaults below.
type Options struct {
	Column   int     // column width in pixels, default 120
	Lane     int     // lane height in pixels, default 48
	Margin   int     // outer margin in pixels, default 8
	Gutter   int     // width of the queue label gutter, default 80
	FontSize float64 // label size in points at 72 DPI, default 12

	// Flatten gives every compiled op its own column instead of folding
	// children into their top-level op.
	Flatten bool
}

func (o *Options) defaults() {
	if o.Column <= 0 {
		o.Column = 120
	}
	if o.Lane <= 0 {
		o.Lane = 48
	}
	if o.Margin <= 0 {
		o.Margin = 8
	}
	if o.Gutter <= 0 {
		o.Gutter = 80
	}
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
}

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	band       = color.RGBA{0xf2, 0xf2, 0xf2, 0xff}
	ink        = color.RGBA{0x20, 0x20, 0x20, 0xff}
	tick       = color.RGBA{0xc0, 0x30, 0x30, 0xff}
	handoff    = color.RGBA{0x30, 0x60, 0xc0, 0xff}
)

var kindColors = [...]color.RGBA{
	framegraph.KindCode:     {0x9c, 0xd3, 0xa8, 0xff},
	framegraph.KindSubgraph: {0xc8, 0xb6, 0xe2, 0xff},
	framegraph.KindPass:     {0xf6, 0xc8, 0x8f, 0xff},
	framegraph.KindSubpass:  {0xf9, 0xde, 0xb8, 0xff},
	framegraph.KindBlit:     {0x9f, 0xc6, 0xe8, 0xff},
	framegraph.KindCopy:     {0xd9, 0xd9, 0xa0, 0xff},
}

// KindColor returns the fill colour of boxes of kind k.
func KindColor(k framegraph.Kind) color.RGBA {
	if int(k) < len(kindColors) {
		return kindColors[k]
	}
	return band
}

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Render draws p.
func Render(p *framegraph.Program, opts Options) (*image.RGBA, error) {
	if p == nil {
		return nil, ErrNilProgram
	}
	opts.defaults()
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("timeline: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("timeline: font face: %w", err)
	}
	defer func() {
		_ = face.Close()
	}()

	l := NewLayout(p, opts.Flatten)
	queues := framegraph.AllQueues()
	r := &renderer{opts: opts, face: face}
	r.img = image.NewRGBA(r.bounds(l.Columns, len(queues)))
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for i, q := range queues {
		lane := r.lane(i)
		if i%2 == 1 {
			draw.Draw(r.img, lane, image.NewUniform(band), image.Point{}, draw.Src)
		}
		r.text(q.String(), opts.Margin, lane, opts.Gutter-opts.Margin)
	}
	for _, e := range l.Entries {
		r.entry(e)
	}
	for _, k := range l.Links {
		r.link(l.Entries[k.From], l.Entries[k.To])
	}
	framegraph.Logger().Debug("timeline: rendered", "program", p.Name(),
		"columns", l.Columns, "links", len(l.Links))
	return r.img, nil
}

// WritePNG renders p and encodes it to w as PNG.
func WritePNG(w io.Writer, p *framegraph.Program, opts Options) error {
	img, err := Render(p, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("timeline: encode: %w", err)
	}
	return nil
}

type renderer struct {
	opts Options
	face font.Face
	img  *image.RGBA
}

func (r *renderer) bounds(columns, lanes int) image.Rectangle {
	o := r.opts
	return image.Rect(0, 0, o.Gutter+max(columns, 1)*o.Column+2*o.Margin, lanes*o.Lane+2*o.Margin)
}

func (r *renderer) lane(i int) image.Rectangle {
	o := r.opts
	y := o.Margin + i*o.Lane
	return image.Rect(0, y, r.img.Bounds().Dx(), y+o.Lane)
}

// box returns the rectangle of e. Nested entries are inset so a pass and
// its subpasses stay distinguishable when flattened.
func (r *renderer) box(e Entry) image.Rectangle {
	o := r.opts
	x := o.Gutter + o.Margin + e.Column*o.Column
	y := o.Margin + int(e.Queue)*o.Lane
	inset := min(6+2*e.Depth, o.Lane/3)
	return image.Rect(x+2, y+inset, x+o.Column-2, y+o.Lane-inset)
}

func (r *renderer) entry(e Entry) {
	b := r.box(e)
	draw.Draw(r.img, b, image.NewUniform(KindColor(e.Kind)), image.Point{}, draw.Src)

	ticks := min(e.Barriers, (b.Dy()-2)/3)
	for i := range ticks {
		t := image.Rect(b.Min.X+1, b.Min.Y+2+3*i, b.Min.X+5, b.Min.Y+4+3*i)
		draw.Draw(r.img, t, image.NewUniform(tick), image.Point{}, draw.Src)
	}
	r.text(e.Name, b.Min.X+7, b, b.Dx()-10)
}

// text draws s, shortened to fit width, vertically centred in row.
func (r *renderer) text(s string, x int, row image.Rectangle, width int) {
	s = fit(r.face, s, width)
	if s == "" {
		return
	}
	m := r.face.Metrics()
	baseline := row.Min.Y + (row.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(ink),
		Face: r.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// fit shortens s with a trailing ellipsis until it is at most width
// pixels wide.
func fit(face font.Face, s string, width int) string {
	if width <= 0 {
		return ""
	}
	if font.MeasureString(face, s).Ceil() <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		t := string(runes[:n]) + ".."
		if font.MeasureString(face, t).Ceil() <= width {
			return t
		}
	}
	return ""
}

// link draws an arrow from the right edge of the signaling box to the
// left edge of the waiting box.
func (r *renderer) link(from, to Entry) {
	a, b := r.box(from), r.box(to)
	x0, y0 := float32(a.Max.X), float32(a.Min.Y+a.Dy()/2)
	x1, y1 := float32(b.Min.X), float32(b.Min.Y+b.Dy()/2)
	if to.Column <= from.Column {
		x1 = float32(b.Min.X + b.Dx()/2)
	}
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length < 1 {
		return
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	bounds := r.img.Bounds()
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	z.DrawOp = draw.Over

	const half, head, wing = 1, 7, 4
	tipX, tipY := x1-ux*head, y1-uy*head
	z.MoveTo(x0+nx*half, y0+ny*half)
	z.LineTo(tipX+nx*half, tipY+ny*half)
	z.LineTo(tipX-nx*half, tipY-ny*half)
	z.LineTo(x0-nx*half, y0-ny*half)
	z.ClosePath()

	z.MoveTo(x1, y1)
	z.LineTo(tipX+nx*wing, tipY+ny*wing)
	z.LineTo(tipX-nx*wing, tipY-ny*wing)
	z.ClosePath()

	z.Draw(r.img, bounds, image.NewUniform(handoff), image.Point{})
}

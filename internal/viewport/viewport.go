// Package viewport maps canvas-space gestures onto the image-space rectangle
// that the next render cuts out of the source images.
package viewport

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDegenerateBox = errors.New("zoom box has zero width or height")
	ErrNoImage       = errors.New("image dimensions unknown")
	ErrNoCanvas      = errors.New("canvas dimensions must be positive")
	ErrNonFinite     = errors.New("zoom box corners must be finite numbers")
)

type Size struct {
	Width  int
	Height int
}

type Point struct {
	X float64
	Y float64
}

// Viewport is the displayed region in image pixel coordinates
type Viewport struct {
	XMin int
	XMax int
	YMin int
	YMax int
}

func (v Viewport) Width() int  { return v.XMax - v.XMin }
func (v Viewport) Height() int { return v.YMax - v.YMin }

func (v Viewport) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", v.XMin, v.XMax, v.YMin, v.YMax)
}

// Input is the state a transform reads. Display is the size of the most
// recently rendered image and Factor the image pixels per canvas pixel.
type Input struct {
	Viewport Viewport
	Canvas   Size
	Image    Size
	Display  Size
	Factor   float64
	Pick     Point
}

// box is a canvas-space rectangle
type box struct {
	xmin, xmax, ymin, ymax float64
}

func (b box) width() float64  { return b.xmax - b.xmin }
func (b box) height() float64 { return b.ymax - b.ymin }

func (b box) shift(dx, dy float64) box {
	return box{b.xmin + dx, b.xmax + dx, b.ymin + dy, b.ymax + dy}
}

// Direction names a pan gesture
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	UpLeft
	UpRight
	DownLeft
	DownRight
)

var directionNames = map[string]Direction{
	"panUp":        Up,
	"panDown":      Down,
	"panLeft":      Left,
	"panRight":     Right,
	"panUpLeft":    UpLeft,
	"panUpRight":   UpRight,
	"panDownLeft":  DownLeft,
	"panDownRight": DownRight,
}

// ParseDirection maps a pan command name such as "panUpLeft" to its Direction
func ParseDirection(command string) (Direction, bool) {
	d, ok := directionNames[command]
	return d, ok
}

func (in Input) validate() error {
	if in.Canvas.Width <= 0 || in.Canvas.Height <= 0 {
		return ErrNoCanvas
	}
	if in.Image.Width <= 0 || in.Image.Height <= 0 {
		return ErrNoImage
	}
	return nil
}

// factor returns the stored factor, or the one the next render would compute
// when nothing has been rendered yet.
func (in Input) factor() float64 {
	if in.Factor > 0 {
		return in.Factor
	}
	vw, vh := in.Viewport.Width(), in.Viewport.Height()
	if vw <= 0 || vh <= 0 {
		vw, vh = in.Image.Width, in.Image.Height
	}
	return math.Max(float64(vw)/float64(in.Canvas.Width), float64(vh)/float64(in.Canvas.Height))
}

func (in Input) display() Size {
	d := in.Display
	if d.Width <= 0 {
		d.Width = in.Canvas.Width
	}
	if d.Height <= 0 {
		d.Height = in.Canvas.Height
	}
	return d
}

func (in Input) fullCanvas() box {
	return box{0, float64(in.Canvas.Width), 0, float64(in.Canvas.Height)}
}

// Box zooms to a client-drawn canvas rectangle. Corners may come in either order.
func Box(in Input, x1, x2, y1, y2 float64) (Viewport, error) {
	if err := in.validate(); err != nil {
		return Viewport{}, err
	}
	for _, c := range []float64{x1, x2, y1, y2} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Viewport{}, ErrNonFinite
		}
	}
	b := box{math.Min(x1, x2), math.Max(x1, x2), math.Min(y1, y2), math.Max(y1, y2)}
	if b.width() == 0 || b.height() == 0 {
		return Viewport{}, ErrDegenerateBox
	}
	return in.finish(b, true), nil
}

// ZoomIn halves the visible extent around the canvas center
func ZoomIn(in Input) (Viewport, error) {
	if err := in.validate(); err != nil {
		return Viewport{}, err
	}
	cw, ch := float64(in.Canvas.Width), float64(in.Canvas.Height)
	b := box{cw/2 - cw/4, cw/2 + cw/4, ch/2 - ch/4, ch/2 + ch/4}
	return in.finish(b, true), nil
}

// ZoomOut doubles the visible extent around the canvas center
func ZoomOut(in Input) (Viewport, error) {
	if err := in.validate(); err != nil {
		return Viewport{}, err
	}
	cw, ch := float64(in.Canvas.Width), float64(in.Canvas.Height)
	b := box{cw/2 - cw, cw/2 + cw, ch/2 - ch, ch/2 + ch}
	return in.finish(b, false), nil
}

// Pan moves the view a quarter canvas in the given direction. Up is toward
// larger image y, matching FITS row order.
func Pan(in Input, dir Direction) (Viewport, error) {
	if err := in.validate(); err != nil {
		return Viewport{}, err
	}
	cw, ch := float64(in.Canvas.Width), float64(in.Canvas.Height)
	straightX, straightY := cw/4, ch/4
	diagX, diagY := cw/(4*math.Sqrt2), ch/(4*math.Sqrt2)

	b := in.fullCanvas()
	switch dir {
	case Up:
		b = b.shift(0, straightY)
	case Down:
		b = b.shift(0, -straightY)
	case Left:
		b = b.shift(-straightX, 0)
	case Right:
		b = b.shift(straightX, 0)
	case UpLeft:
		b = b.shift(-diagX, diagY)
	case UpRight:
		b = b.shift(diagX, diagY)
	case DownLeft:
		b = b.shift(-diagX, -diagY)
	case DownRight:
		b = b.shift(diagX, -diagY)
	default:
		return Viewport{}, fmt.Errorf("unknown pan direction %d", dir)
	}
	return in.finish(b, false), nil
}

// Center recenters on the pick location, or on the image when no pick is set.
// The result keeps the canvas extent and is not clipped.
func Center(in Input) (Viewport, error) {
	if err := in.validate(); err != nil {
		return Viewport{}, err
	}
	f := in.factor()
	halfW := float64(in.Canvas.Width) * f / 2
	halfH := float64(in.Canvas.Height) * f / 2

	cx, cy := float64(in.Image.Width)/2, float64(in.Image.Height)/2
	if in.Pick.X != 0 && in.Pick.Y != 0 {
		cx, cy = in.Pick.X, in.Pick.Y
	}
	return Viewport{
		XMin: int(cx - halfW),
		XMax: int(cx + halfW),
		YMin: int(cy - halfH),
		YMax: int(cy + halfH),
	}, nil
}

// Reset shows the whole image
func Reset(in Input) Viewport {
	return Viewport{XMin: 0, XMax: in.Image.Width, YMin: 0, YMax: in.Image.Height}
}

// Resize returns the viewport to keep after a canvas change. Before the first
// render the whole image is shown; afterwards the viewport is kept and the
// next render recomputes the factor.
func Resize(in Input, canvas Size) (Viewport, error) {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return Viewport{}, ErrNoCanvas
	}
	if in.Factor == 0 {
		return Reset(in), nil
	}
	return in.Viewport, nil
}

// Pick maps a canvas point into image coordinates
func Pick(in Input, x, y float64) Point {
	f := in.factor()
	return Point{
		X: float64(in.Viewport.XMin) + x*f,
		Y: float64(in.Viewport.YMin) + y*f,
	}
}

// correctAspect stretches one axis of b about its center so that its
// height/width matches the canvas.
func correctAspect(b box, canvas Size) box {
	boxAspect := b.height() / b.width()
	canvasAspect := float64(canvas.Height) / float64(canvas.Width)
	ratio := boxAspect / canvasAspect

	if ratio > 1 {
		w := b.width() * ratio
		c := (b.xmax + b.xmin) / 2
		b.xmin, b.xmax = c-w/2, c+w/2
	} else {
		h := b.height() / ratio
		c := (b.ymax + b.ymin) / 2
		b.ymin, b.ymax = c-h/2, c+h/2
	}
	return b
}

// keepOnDisplay slides b, without resizing, back inside the displayed image
func keepOnDisplay(b box, disp Size) box {
	dw, dh := float64(disp.Width), float64(disp.Height)
	if b.xmax > dw {
		b = b.shift(dw-b.xmax, 0)
	}
	if b.xmin < 0 {
		b = b.shift(-b.xmin, 0)
	}
	if b.ymax > dh {
		b = b.shift(0, dh-b.ymax)
	}
	if b.ymin < 0 {
		b = b.shift(0, -b.ymin)
	}
	return b
}

func (in Input) finish(b box, shiftIntoDisplay bool) Viewport {
	b = correctAspect(b, in.Canvas)
	if shiftIntoDisplay {
		b = keepOnDisplay(b, in.display())
	}

	f := in.factor()
	ox, oy := float64(in.Viewport.XMin), float64(in.Viewport.YMin)
	xmin, xmax := clip(b.xmin*f+ox, b.xmax*f+ox, float64(in.Image.Width))
	ymin, ymax := clip(b.ymin*f+oy, b.ymax*f+oy, float64(in.Image.Height))

	return Viewport{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax}
}

// clip fits [lo, hi] inside [0, size] keeping its extent where possible and
// returns integer bounds with 0 <= lo < hi <= size.
func clip(lo, hi, size float64) (int, int) {
	extent := hi - lo
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > size {
		hi = size
		lo = hi - extent
	}
	if lo < 0 {
		lo = 0
	}

	ilo, ihi := int(lo), int(hi)
	if ihi <= ilo {
		ihi = ilo + 1
	}
	if ihi > int(size) {
		ihi = int(size)
		ilo = ihi - 1
	}
	return ilo, ihi
}

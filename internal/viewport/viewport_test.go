package viewport

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-9

func TestCorrectAspectWidensTallBox(t *testing.T) {
	canvas := Size{Width: 800, Height: 600}
	b := correctAspect(box{0, 400, 0, 400}, canvas)

	aspect := b.height() / b.width()
	if math.Abs(aspect-0.75) > tolerance {
		t.Errorf("Expected aspect 0.75, got %v", aspect)
	}
	if b.ymin != 0 || b.ymax != 400 {
		t.Errorf("Expected vertical extent unchanged, got %v..%v", b.ymin, b.ymax)
	}
	if c := (b.xmin + b.xmax) / 2; math.Abs(c-200) > tolerance {
		t.Errorf("Expected horizontal center 200, got %v", c)
	}
}

func TestCorrectAspectHeightensWideBox(t *testing.T) {
	canvas := Size{Width: 400, Height: 400}
	b := correctAspect(box{100, 300, 180, 220}, canvas)

	if math.Abs(b.height()-b.width()) > tolerance {
		t.Errorf("Expected square box, got %vx%v", b.width(), b.height())
	}
	if b.xmin != 100 || b.xmax != 300 {
		t.Errorf("Expected horizontal extent unchanged, got %v..%v", b.xmin, b.xmax)
	}
	if c := (b.ymin + b.ymax) / 2; math.Abs(c-200) > tolerance {
		t.Errorf("Expected vertical center 200, got %v", c)
	}
}

func TestPickMapping(t *testing.T) {
	in := Input{
		Viewport: Viewport{XMin: 100, XMax: 500, YMin: 50, YMax: 450},
		Canvas:   Size{400, 400},
		Image:    Size{1000, 1000},
		Factor:   1.0,
	}
	p := Pick(in, 50, 50)
	if p.X != 150 || p.Y != 100 {
		t.Errorf("Expected (150, 100), got (%v, %v)", p.X, p.Y)
	}
}

func TestResetIdempotent(t *testing.T) {
	in := Input{
		Viewport: Viewport{XMin: 10, XMax: 20, YMin: 30, YMax: 40},
		Canvas:   Size{500, 500},
		Image:    Size{2048, 1024},
		Factor:   0.5,
	}
	once := Reset(in)
	in.Viewport = once
	twice := Reset(in)

	expected := Viewport{0, 2048, 0, 1024}
	if once != expected || twice != expected {
		t.Errorf("Expected %v both times, got %v then %v", expected, once, twice)
	}
}

func TestResize(t *testing.T) {
	in := Input{
		Viewport: Viewport{XMin: 10, XMax: 20, YMin: 30, YMax: 40},
		Canvas:   Size{500, 500},
		Image:    Size{800, 600},
	}

	vp, err := Resize(in, Size{640, 480})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vp != (Viewport{0, 800, 0, 600}) {
		t.Errorf("Expected full image before first render, got %v", vp)
	}

	in.Factor = 1.5
	vp, err = Resize(in, Size{640, 480})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vp != in.Viewport {
		t.Errorf("Expected viewport kept after render, got %v", vp)
	}

	if _, err := Resize(in, Size{0, 480}); !errors.Is(err, ErrNoCanvas) {
		t.Errorf("Expected ErrNoCanvas, got %v", err)
	}
}

func TestZoomInHalvesExtent(t *testing.T) {
	in := Input{
		Viewport: Viewport{0, 1000, 0, 1000},
		Canvas:   Size{500, 500},
		Image:    Size{1000, 1000},
		Display:  Size{500, 500},
		Factor:   2,
	}
	vp, err := ZoomIn(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := Viewport{250, 750, 250, 750}
	if vp != expected {
		t.Errorf("Expected %v, got %v", expected, vp)
	}
}

func TestZoomOutClampsToImage(t *testing.T) {
	in := Input{
		Viewport: Viewport{250, 750, 250, 750},
		Canvas:   Size{500, 500},
		Image:    Size{1000, 1000},
		Display:  Size{500, 500},
		Factor:   1,
	}
	vp, err := ZoomOut(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := Viewport{0, 1000, 0, 1000}
	if vp != expected {
		t.Errorf("Expected %v, got %v", expected, vp)
	}
}

func TestPanDirections(t *testing.T) {
	base := Input{
		Viewport: Viewport{400, 600, 400, 600},
		Canvas:   Size{200, 200},
		Image:    Size{1000, 1000},
		Display:  Size{200, 200},
		Factor:   1,
	}

	tests := []struct {
		command  string
		expected Viewport
	}{
		{"panUp", Viewport{400, 600, 450, 650}},
		{"panDown", Viewport{400, 600, 350, 550}},
		{"panLeft", Viewport{350, 550, 400, 600}},
		{"panRight", Viewport{450, 650, 400, 600}},
		{"panUpRight", Viewport{435, 635, 435, 635}},
		{"panDownLeft", Viewport{364, 564, 364, 564}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			dir, ok := ParseDirection(tt.command)
			if !ok {
				t.Fatalf("Expected %s to parse", tt.command)
			}
			vp, err := Pan(base, dir)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if vp != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, vp)
			}
		})
	}

	if _, ok := ParseDirection("panSideways"); ok {
		t.Error("Expected unknown pan command to be rejected")
	}
}

func TestBoxNormalisesAndRejectsDegenerate(t *testing.T) {
	in := Input{
		Viewport: Viewport{0, 400, 0, 400},
		Canvas:   Size{400, 400},
		Image:    Size{400, 400},
		Display:  Size{400, 400},
		Factor:   1,
	}

	a, err := Box(in, 100, 200, 100, 200)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := Box(in, 200, 100, 200, 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("Expected reversed corners to give %v, got %v", a, b)
	}
	if a != (Viewport{100, 200, 100, 200}) {
		t.Errorf("Expected [100:200, 100:200], got %v", a)
	}

	if _, err := Box(in, 100, 100, 0, 50); !errors.Is(err, ErrDegenerateBox) {
		t.Errorf("Expected ErrDegenerateBox, got %v", err)
	}
}

func TestBoxRejectsNonFiniteCorners(t *testing.T) {
	in := Input{
		Viewport: Viewport{0, 400, 0, 400},
		Canvas:   Size{400, 400},
		Image:    Size{400, 400},
		Display:  Size{400, 400},
		Factor:   1,
	}

	tests := []struct {
		name           string
		x1, x2, y1, y2 float64
	}{
		{"nan corner", 0, math.NaN(), 0, 100},
		{"positive infinity", 0, 100, 0, math.Inf(1)},
		{"negative infinity", math.Inf(-1), 100, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp, err := Box(in, tt.x1, tt.x2, tt.y1, tt.y2)
			if !errors.Is(err, ErrNonFinite) {
				t.Errorf("Expected ErrNonFinite, got %v (viewport %v)", err, vp)
			}
		})
	}
}

func TestBoxShiftsIntoDisplay(t *testing.T) {
	in := Input{
		Viewport: Viewport{0, 1000, 0, 1000},
		Canvas:   Size{500, 500},
		Image:    Size{1000, 1000},
		Display:  Size{500, 500},
		Factor:   2,
	}
	// a box hanging off the right edge of the rendered image slides back
	vp, err := Box(in, 450, 550, 100, 200)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := Viewport{800, 1000, 200, 400}
	if vp != expected {
		t.Errorf("Expected %v, got %v", expected, vp)
	}
}

func TestCenter(t *testing.T) {
	in := Input{
		Viewport: Viewport{0, 100, 0, 100},
		Canvas:   Size{100, 100},
		Image:    Size{1000, 800},
		Factor:   2,
	}

	vp, err := Center(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vp != (Viewport{400, 600, 300, 500}) {
		t.Errorf("Expected image-centered viewport, got %v", vp)
	}

	in.Pick = Point{X: 250, Y: 150}
	vp, err = Center(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vp != (Viewport{150, 350, 50, 250}) {
		t.Errorf("Expected pick-centered viewport, got %v", vp)
	}

	// a pick on an axis counts as unset
	in.Pick = Point{X: 250, Y: 0}
	vp, _ = Center(in)
	if vp != (Viewport{400, 600, 300, 500}) {
		t.Errorf("Expected image-centered viewport for half-set pick, got %v", vp)
	}
}

func TestFactorFallback(t *testing.T) {
	in := Input{
		Canvas: Size{500, 250},
		Image:  Size{1000, 1000},
	}
	if f := in.factor(); f != 4 {
		t.Errorf("Expected fallback factor 4, got %v", f)
	}
}

func TestMissingDimensions(t *testing.T) {
	if _, err := ZoomIn(Input{Canvas: Size{100, 100}}); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
	if _, err := ZoomIn(Input{Image: Size{100, 100}}); !errors.Is(err, ErrNoCanvas) {
		t.Errorf("Expected ErrNoCanvas, got %v", err)
	}
}

func TestClippingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		img := Size{rng.Intn(4000) + 1, rng.Intn(4000) + 1}
		canvas := Size{rng.Intn(1500) + 50, rng.Intn(1500) + 50}
		x0 := rng.Intn(img.Width)
		y0 := rng.Intn(img.Height)
		in := Input{
			Viewport: Viewport{x0, x0 + rng.Intn(img.Width-x0) + 1, y0, y0 + rng.Intn(img.Height-y0) + 1},
			Canvas:   canvas,
			Image:    img,
			Display:  Size{rng.Intn(canvas.Width + 1), rng.Intn(canvas.Height + 1)},
			Factor:   rng.Float64() * 10,
		}

		var results []Viewport
		if vp, err := ZoomIn(in); err == nil {
			results = append(results, vp)
		}
		if vp, err := ZoomOut(in); err == nil {
			results = append(results, vp)
		}
		for d := Up; d <= DownRight; d++ {
			if vp, err := Pan(in, d); err == nil {
				results = append(results, vp)
			}
		}
		bx1 := rng.Float64() * float64(canvas.Width)
		by1 := rng.Float64() * float64(canvas.Height)
		if vp, err := Box(in, bx1, bx1+rng.Float64()*200+1, by1, by1+rng.Float64()*200+1); err == nil {
			results = append(results, vp)
		}

		for _, vp := range results {
			if vp.XMin < 0 || vp.XMin >= vp.XMax || vp.XMax > img.Width ||
				vp.YMin < 0 || vp.YMin >= vp.YMax || vp.YMax > img.Height {
				t.Fatalf("Viewport %v escapes image %dx%d for input %+v", vp, img.Width, img.Height, in)
			}
		}
	}
}

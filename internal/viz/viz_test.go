package viz

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/qwave/internal/dynamo"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestDivergingExtremes(t *testing.T) {
	tests := []struct {
		name    string
		v       float32
		r, g, b float32
	}{
		{"blue", -1, 0, 0, 1},
		{"white", 0, 1, 1, 1},
		{"red", 1, 1, 0, 0},
		{"saturates low", -5, 0, 0, 1},
		{"saturates high", 5, 1, 0, 0},
		{"half blue", -0.5, 0.5, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := Diverging(tt.v)
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("Diverging(%v) = (%v,%v,%v), want (%v,%v,%v)", tt.v, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestBlendModes(t *testing.T) {
	const wave, src, ratio = 0.8, 0.4, 0.25
	tests := []struct {
		mode int
		want float64
	}{
		{dynamo.BlendNormal, 0.8 + (0.4-0.8)*0.25},
		{dynamo.BlendAdditive, 0.4 + 0.8*0.75},
		{dynamo.BlendSubtractive, 0.4 - 0.8*0.75},
		{dynamo.BlendMultiply, 0.4 + (0.4*0.8-0.4)*0.75},
		{dynamo.BlendScreen, 0.4 + ((1-(1-0.4)*(1-0.8))-0.4)*0.75},
	}
	for _, tt := range tests {
		if got := Blend(tt.mode, wave, src, ratio); !near(float64(got), tt.want, 1e-6) {
			t.Errorf("mode %d: got %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func slotOf(re, im []float32) dynamo.Slot { return dynamo.Slot{Re: re, Im: im} }

func TestMapScalarModes(t *testing.T) {
	slot := slotOf([]float32{0.5, -1}, []float32{0.25, 2})
	p := dynamo.DefaultParams()
	p.AmplitudeScale = 2
	p.ProbScale = 3

	tests := []struct {
		mode int
		want [2]float64
	}{
		{dynamo.DisplayReal, [2]float64{1, -2}},
		{dynamo.DisplayProbability, [2]float64{(0.25 + 0.0625) * 3, 5 * 3}},
		{dynamo.DisplayPhase, [2]float64{PhaseValue(0.5, 0.25, 2), PhaseValue(-1, 2, 2)}},
		{dynamo.DisplayImaginary, [2]float64{0.5, 4}},
	}
	for _, tt := range tests {
		p.DisplayMode = tt.mode
		img := NewImage(2, 1)
		if err := Map(slot, 2, 1, p, img); err != nil {
			t.Fatal(err)
		}
		if img.Colored {
			t.Errorf("mode %d must be tagged scalar", tt.mode)
		}
		for i, want := range tt.want {
			r, g, b := img.RGB(i)
			if !near(float64(r), want, 1e-5) || r != g || g != b {
				t.Errorf("mode %d cell %d: got (%v,%v,%v), want %v replicated", tt.mode, i, r, g, b, want)
			}
		}
	}
}

func TestPhaseValueOnRealAxis(t *testing.T) {
	// φ = 0: cos φ + 0.5 sin φ = 1.
	if got := PhaseValue(2, 0, 1.5); !near(got, 3, 1e-12) {
		t.Errorf("PhaseValue = %v, want 3", got)
	}
}

func TestMapDirectColor(t *testing.T) {
	p := dynamo.DefaultParams()
	p.DisplayMode = dynamo.DisplayColor
	p.AmplitudeScale = 20
	p.Gamma = 1
	p.ProbScale = 0

	slot := slotOf([]float32{1, -1, 0}, []float32{0, 0, 0})
	img := NewImage(3, 1)
	if err := Map(slot, 3, 1, p, img); err != nil {
		t.Fatal(err)
	}
	if !img.Colored {
		t.Fatal("direct color must be tagged pre-colored")
	}

	// R·20·0.05 = 1, tone mapped: (1/2)^0.9.
	want := math.Pow(0.5, 0.9)
	r, g, b := img.RGB(0)
	if !near(float64(r), want, 1e-6) || g != 0 || b != 0 {
		t.Errorf("positive real = (%v,%v,%v), want (%v,0,0)", r, g, b, want)
	}
	r, g, b = img.RGB(1)
	if r != 0 || g != 0 || !near(float64(b), want, 1e-6) {
		t.Errorf("negative real = (%v,%v,%v), want (0,0,%v)", r, g, b, want)
	}
	r, g, b = img.RGB(2)
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("zero field should be black, got (%v,%v,%v)", r, g, b)
	}

	for _, c := range img.Pix {
		if c < 0 || c >= 1 {
			t.Fatalf("tone mapped channel out of [0,1): %v", c)
		}
	}
}

func TestMapShapeMismatch(t *testing.T) {
	slot := slotOf(make([]float32, 4), make([]float32, 4))
	if err := Map(slot, 2, 2, dynamo.DefaultParams(), NewImage(3, 2)); !errors.Is(err, dynamo.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if err := Map(slot, 3, 2, dynamo.DefaultParams(), NewImage(3, 2)); !errors.Is(err, dynamo.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for short slot, got %v", err)
	}
}

func TestCompositeNormalNoSource(t *testing.T) {
	vis := NewImage(2, 1)
	vis.setScalar(0, -1)
	vis.setScalar(1, 1)
	p := dynamo.DefaultParams()
	p.BlendMode = dynamo.BlendNormal
	p.MixRatio = 0

	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	if err := Composite(vis, nil, p, dst); err != nil {
		t.Fatal(err)
	}
	want := []uint8{0, 0, 255, 255, 255, 0, 0, 255}
	for i, v := range want {
		if dst.Pix[i] != v {
			t.Fatalf("pix %v, want %v", dst.Pix, want)
		}
	}
}

func TestCompositeMixWithSource(t *testing.T) {
	vis := NewImage(1, 1)
	vis.Colored = true
	vis.setRGB(0, 1, 1, 1)

	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Pix[0], src.Pix[1], src.Pix[2], src.Pix[3] = 0, 0, 0, 255

	p := dynamo.DefaultParams()
	p.BlendMode = dynamo.BlendNormal
	p.MixRatio = 1
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := Composite(vis, src, p, dst); err != nil {
		t.Fatal(err)
	}
	if dst.Pix[0] != 0 || dst.Pix[3] != 255 {
		t.Errorf("mixRatio 1 should show only the source, got %v", dst.Pix)
	}

	p.BlendMode = dynamo.BlendAdditive
	p.MixRatio = 0
	if err := Composite(vis, src, p, dst); err != nil {
		t.Fatal(err)
	}
	if dst.Pix[0] != 255 {
		t.Errorf("additive blend should saturate, got %v", dst.Pix)
	}

	if err := Composite(vis, image.NewRGBA(image.Rect(0, 0, 2, 2)), p, dst); !errors.Is(err, dynamo.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestCompositeSourceIgnoresAlpha(t *testing.T) {
	straight := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	straight.SetNRGBA(0, 0, color.NRGBA{200, 100, 50, 0})

	premul := image.NewRGBA(image.Rect(0, 0, 1, 1))
	premul.SetRGBA(0, 0, color.RGBA{100, 50, 25, 128})

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 128})

	tests := []struct {
		name    string
		src     image.Image
		r, g, b uint8
	}{
		{"straight transparent", straight, 200, 100, 50},
		{"premultiplied half alpha", premul, 199, 100, 50},
		{"generic opaque", gray, 128, 128, 128},
	}

	vis := NewImage(1, 1)
	vis.Colored = true
	p := dynamo.DefaultParams()
	p.BlendMode = dynamo.BlendNormal
	p.MixRatio = 1
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
			if err := Composite(vis, tt.src, p, dst); err != nil {
				t.Fatal(err)
			}
			got := [3]uint8{dst.Pix[0], dst.Pix[1], dst.Pix[2]}
			want := [3]uint8{tt.r, tt.g, tt.b}
			for i := range got {
				if d := int(got[i]) - int(want[i]); d < -1 || d > 1 {
					t.Fatalf("backdrop = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestHalfBlockAndCanvas(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 255, 255, 255, 255
	}

	out := HalfBlock(img, 4, 2)
	if strings.Count(out, "\n") != 2 || strings.Count(out, "▀") != 8 {
		t.Errorf("unexpected half block output %q", out)
	}

	c := NewCanvas(2, 1)
	c.Plot(img, 0.5)
	if c.Grid[0][0] != 0x28FF || c.Grid[0][1] != 0x28FF {
		t.Errorf("white image should fill every dot, got %U %U", c.Grid[0][0], c.Grid[0][1])
	}
	c.Plot(image.NewRGBA(image.Rect(0, 0, 8, 8)), 0.5)
	if c.Grid[0][0] != 0x2800 {
		t.Errorf("black image should clear the canvas, got %U", c.Grid[0][0])
	}
}

package imageprep

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// lined draws dark horizontal strokes slanted by deg on a white page
func lined(w, h int, deg float64) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = 240
	}
	t := math.Tan(deg * math.Pi / 180)
	for y0 := 40; y0 < h-40; y0 += 30 {
		for x := 20; x < w-20; x++ {
			y := int(math.Round(float64(y0) + float64(x-w/2)*t))
			for d := 0; d < 3; d++ {
				if yy := y + d; yy >= 0 && yy < h {
					g.SetGray(x, yy, color.Gray{Y: 20})
				}
			}
		}
	}
	return g
}

func TestEstimateSkew_FindsAngle(t *testing.T) {
	t.Parallel()

	for _, want := range []float64{-4, 0, 3} {
		g := lined(400, 300, want)
		got := EstimateSkew(g, otsu(g), 15, 0.25)
		if math.Abs(got-want) > 0.5 {
			t.Errorf("EstimateSkew for %v deg = %v", want, got)
		}
	}
}

func TestEstimateSkew_BlankPage(t *testing.T) {
	t.Parallel()

	g := image.NewGray(image.Rect(0, 0, 50, 50))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	if a := EstimateSkew(g, 128, 15, 0.25); a != 0 {
		t.Fatalf("blank page skew = %v", a)
	}
}

func TestNormalize_BilevelAndSameSize(t *testing.T) {
	t.Parallel()

	src := lined(320, 240, 5)
	out := Normalize(src)

	if out.Rect.Dx() != 320 || out.Rect.Dy() != 240 {
		t.Fatalf("size changed: %v", out.Rect)
	}
	var dark int
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("non bilevel pixel %d", v)
		}
		if v == 0 {
			dark++
		}
	}
	if dark == 0 {
		t.Fatalf("text strokes lost")
	}

	// after deskew the residual angle is close to level
	if a := EstimateSkew(out, 128, 15, 0.25); math.Abs(a) > 0.75 {
		t.Fatalf("residual skew %v", a)
	}
}

func TestOtsu_SplitsTwoLevels(t *testing.T) {
	t.Parallel()

	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 30
		} else {
			g.Pix[i] = 220
		}
	}
	thr := otsu(g)
	if thr < 30 || thr >= 220 {
		t.Fatalf("threshold %d outside (30, 220)", thr)
	}
}

func TestDecodeBytes_PNGToGray(t *testing.T) {
	t.Parallel()

	rgba := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2], rgba.Pix[i+3] = 200, 10, 10, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	g := toGray(img)
	if g.Rect.Dx() != 8 || g.Rect.Dy() != 4 {
		t.Fatalf("bounds %v", g.Rect)
	}
}

func TestDecodeBytes_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

package imageprep

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// sampled dark pixels are capped so large scans stay fast
const maxSamplePoints = 250_000

// EstimateSkew returns the text line angle in degrees using a projection profile.
// For each candidate angle dark pixels are projected onto y - x*tan(a); level lines
// pile into few bins, so the angle with the largest sum of squared bin counts wins.
func EstimateSkew(g *image.Gray, thr uint8, maxDeg, stepDeg float64) float64 {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	if w == 0 || h == 0 || stepDeg <= 0 {
		return 0
	}

	stride := 1
	if w > 800 {
		stride = w / 800
	}
	var xs, ys []float64
	for {
		xs, ys = xs[:0], ys[:0]
		for y := 0; y < h; y += stride {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			for x := 0; x < w; x += stride {
				if row[x] <= thr {
					xs = append(xs, float64(x))
					ys = append(ys, float64(y))
				}
			}
		}
		if len(xs) <= maxSamplePoints {
			break
		}
		stride++
	}
	if len(xs) == 0 {
		return 0
	}

	offset := float64(w)*math.Tan(maxDeg*math.Pi/180) + 1
	nbins := int(float64(h)+2*offset) + 1
	bins := make([]int, nbins)

	best, bestScore := 0.0, -1.0
	steps := int(math.Round(maxDeg / stepDeg))
	for i := -steps; i <= steps; i++ {
		a := float64(i) * stepDeg
		t := math.Tan(a * math.Pi / 180)
		clear(bins)
		for k := range xs {
			b := int(math.Round(ys[k]-xs[k]*t+offset)) / stride
			if b >= 0 && b < nbins {
				bins[b]++
			}
		}
		var score float64
		for _, c := range bins {
			score += float64(c) * float64(c)
		}
		// prefer the smaller rotation on ties
		if score > bestScore || (score == bestScore && abs(a) < abs(best)) {
			best, bestScore = a, score
		}
	}
	return best
}

// rotate turns g by deg degrees around its center onto a white canvas of the same size
func rotate(g *image.Gray, deg float64) *image.Gray {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(g.Rect.Dx()) / 2
	cy := float64(g.Rect.Dy()) / 2

	dst := image.NewGray(image.Rect(0, 0, g.Rect.Dx(), g.Rect.Dy()))
	draw.Draw(dst, dst.Rect, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, m, g, g.Rect, draw.Src, nil)
	return dst
}

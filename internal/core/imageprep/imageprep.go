// Package imageprep turns an uploaded photo or rendered page into a clean bilevel image for OCR.
// Normalize runs grayscale, deskew and Otsu binarization; EXIF orientation is fixed at Decode.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	// extra decoders for formats phones and scanners produce
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options tunes Normalize
type Options struct {
	// MaxSkewDeg bounds the skew search on either side of level
	MaxSkewDeg float64
	// StepDeg is the search resolution
	StepDeg float64
	// MinSkewDeg below this the image is left unrotated
	MinSkewDeg float64
}

// DefaultOptions matches what scanned documents need in practice
var DefaultOptions = Options{MaxSkewDeg: 15, StepDeg: 0.25, MinSkewDeg: 0.1}

// Decode reads an image and applies its EXIF orientation
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory buffer
func DecodeBytes(b []byte) (image.Image, error) { return Decode(bytes.NewReader(b)) }

// Open decodes the image file at path
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Normalize returns a deskewed black on white *image.Gray with pixels at 0 or 255
func Normalize(img image.Image) *image.Gray {
	return NormalizeWith(img, DefaultOptions)
}

// NormalizeWith is Normalize with explicit options
func NormalizeWith(img image.Image, o Options) *image.Gray {
	g := toGray(img)
	if g.Rect.Empty() {
		return g
	}
	thr := otsu(g)
	if o.StepDeg > 0 && o.MaxSkewDeg > 0 {
		if a := EstimateSkew(g, thr, o.MaxSkewDeg, o.StepDeg); abs(a) >= o.MinSkewDeg {
			g = rotate(g, -a)
			thr = otsu(g)
		}
	}
	binarize(g, thr)
	return g
}

// toGray converts through imaging so palette and CMYK sources get the same luma weights
func toGray(img image.Image) *image.Gray {
	n := imaging.Grayscale(img)
	b := n.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := n.Pix[y*n.Stride : y*n.Stride+b.Dx()*4]
		dst := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return g
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

package imageprep

import "image"

// otsu returns the threshold that maximizes between-class variance
func otsu(g *image.Gray) uint8 {
	var hist [256]int
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			hist[v]++
		}
	}
	total := w * h
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var (
		sumB     float64
		wB       int
		best     float64
		thr      int
		anySplit bool
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if !anySplit || between > best {
			best, thr, anySplit = between, t, true
		}
	}
	if !anySplit {
		// uniform image
		return 128
	}
	return uint8(thr)
}

// binarize maps v <= thr to 0 and everything else to 255 in place
func binarize(g *image.Gray, thr uint8) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			if v <= thr {
				row[x] = 0
			} else {
				row[x] = 255
			}
		}
	}
}

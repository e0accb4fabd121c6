package images

// Integral holds summed-area tables over a plane's per-pixel channel sums
// and squared sums. They give O(1) window sum and variance queries, which
// keeps the per-offset scoring loop linear in the template area instead of
// quadratic.
type Integral struct {
	Sum   []float64
	SumSq []float64
	W, H  int
}

// NewIntegral builds the summed-area tables for a plane. Multi-channel
// planes are folded per pixel: the tables track the sum over all channel
// samples of the pixel, which is exactly what window statistics over an
// interleaved raster need.
func NewIntegral(p Plane) *Integral {
	in := &Integral{
		Sum:   make([]float64, p.W*p.H),
		SumSq: make([]float64, p.W*p.H),
		W:     p.W,
		H:     p.H,
	}

	for y := 0; y < p.H; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < p.W; x++ {
			off := (y*p.W + x) * p.C
			for c := 0; c < p.C; c++ {
				v := float64(p.Data[off+c])
				rowSum += v
				rowSum2 += v * v
			}
			idx := y*p.W + x
			if y == 0 {
				in.Sum[idx] = rowSum
				in.SumSq[idx] = rowSum2
			} else {
				in.Sum[idx] = in.Sum[idx-p.W] + rowSum
				in.SumSq[idx] = in.SumSq[idx-p.W] + rowSum2
			}
		}
	}
	return in
}

// WindowStats returns the sample sum and squared sum over the inclusive
// pixel rectangle [x0..x1] x [y0..y1].
func (in *Integral) WindowStats(x0, y0, x1, y1 int) (sum, sumSq float64) {
	return windowSum(in.Sum, in.W, x0, y0, x1, y1),
		windowSum(in.SumSq, in.W, x0, y0, x1, y1)
}

func windowSum(table []float64, w, x0, y0, x1, y1 int) float64 {
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return table[y*w+x]
	}
	return at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
}

package scoring

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/mvlab-ai/go-mtm/images"
)

// denominators below this are treated as zero variance
const varianceEpsilon = 1e-12

// native is the built-in provider. Window sums and variances come from
// summed-area tables, so each placement costs one dot product over the
// template plus O(1) statistics lookups.
type native struct {
	method Method
}

// Score computes the dense score map for tpl over img.
func (n *native) Score(tpl, img images.Plane) (*tensor.Dense, error) {
	if !tpl.SameLayout(img) {
		return nil, errors.Errorf(
			"plane layout mismatch: template %dch/%d-bit vs image %dch/%d-bit",
			tpl.C, tpl.Depth, img.C, img.Depth)
	}
	outW := img.W - tpl.W + 1
	outH := img.H - tpl.H + 1
	if outW <= 0 || outH <= 0 {
		return nil, errors.Errorf(
			"template %dx%d exceeds image %dx%d", tpl.W, tpl.H, img.W, img.H)
	}

	var sumT, sumT2 float64
	for _, v := range tpl.Data {
		f := float64(v)
		sumT += f
		sumT2 += f * f
	}
	samples := float64(len(tpl.Data))
	meanT := sumT / samples
	varT := sumT2 - sumT*sumT/samples

	integ := images.NewIntegral(img)
	data := make([]float32, outW*outH)

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			sumF, sumF2 := integ.WindowStats(x, y, x+tpl.W-1, y+tpl.H-1)
			dot := windowDot(img, tpl, x, y)

			var score float32
			switch n.method {
			case MethodCCorrNormed:
				denom := sumF2 * sumT2
				if denom > varianceEpsilon {
					score = float32(dot) / math32.Sqrt(float32(denom))
				}
			case MethodSqDiffNormed:
				denom := sumF2 * sumT2
				if denom > varianceEpsilon {
					diff := sumF2 - 2*dot + sumT2
					if diff < 0 {
						diff = 0
					}
					score = 1 - float32(diff)/math32.Sqrt(float32(denom))
				}
			default: // MethodCCoeffNormed
				varF := sumF2 - sumF*sumF/samples
				denom := varF * varT
				if denom > varianceEpsilon {
					score = float32(dot-meanT*sumF) / math32.Sqrt(float32(denom))
				}
			}
			data[y*outW+x] = score
		}
	}

	return tensor.New(tensor.WithShape(outH, outW), tensor.WithBacking(data)), nil
}

// windowDot computes the dot product between the template and the image
// window anchored at (x, y). Rows of an interleaved raster are contiguous,
// so the inner loop runs over tpl.W*tpl.C adjacent samples.
func windowDot(img, tpl images.Plane, x, y int) float64 {
	rowLen := tpl.W * tpl.C
	var dot float64
	for ty := 0; ty < tpl.H; ty++ {
		io := ((y+ty)*img.W + x) * img.C
		to := ty * rowLen
		for i := 0; i < rowLen; i++ {
			dot += float64(img.Data[io+i]) * float64(tpl.Data[to+i])
		}
	}
	return dot
}

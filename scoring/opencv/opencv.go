// Package opencv - OpenCV-backed score map provider.
//
// Wraps gocv.MatchTemplate as an alternative backend to the pure-Go
// provider. Useful when OpenCV is already on the box and the SIMD
// correlation kernels pay off on large images.
package opencv

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
	"github.com/mvlab-ai/go-mtm/scoring"
)

// Provider scores template placements with gocv.MatchTemplate. It
// satisfies scoring.Provider and reports scores on the same
// higher-is-better convention as the built-in provider.
type Provider struct {
	method scoring.Method
	mode   gocv.TemplateMatchMode
}

// New creates an OpenCV-backed provider for the given scoring method.
func New(method scoring.Method) (*Provider, error) {
	switch method {
	case "", scoring.MethodCCoeffNormed:
		return &Provider{method: scoring.MethodCCoeffNormed, mode: gocv.TmCcoeffNormed}, nil
	case scoring.MethodCCorrNormed:
		return &Provider{method: method, mode: gocv.TmCcorrNormed}, nil
	case scoring.MethodSqDiffNormed:
		return &Provider{method: method, mode: gocv.TmSqdiffNormed}, nil
	default:
		return nil, common.Configf("unsupported scoring method: %q", string(method))
	}
}

// Score computes the dense score map for tpl over img via OpenCV.
func (p *Provider) Score(tpl, img images.Plane) (*tensor.Dense, error) {
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

	imgMat, err := planeToMat(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert image plane")
	}
	defer imgMat.Close()

	tplMat, err := planeToMat(tpl)
	if err != nil {
		return nil, errors.Wrap(err, "convert template plane")
	}
	defer tplMat.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(imgMat, tplMat, &result, p.mode, mask)

	raw, err := result.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read score map")
	}
	if len(raw) != outW*outH {
		return nil, errors.Errorf("score map is %d cells, want %d", len(raw), outW*outH)
	}

	// Copy out of the Mat's backing store before Close, inverting
	// squared-difference scores to higher-is-better.
	data := make([]float32, len(raw))
	if p.method == scoring.MethodSqDiffNormed {
		for i, v := range raw {
			data[i] = 1 - v
		}
	} else {
		copy(data, raw)
	}

	return tensor.New(tensor.WithShape(outH, outW), tensor.WithBacking(data)), nil
}

func planeToMat(p images.Plane) (gocv.Mat, error) {
	mt := gocv.MatTypeCV32F
	if p.C == 3 {
		mt = gocv.MatTypeCV32FC3
	}
	buf := make([]byte, len(p.Data)*4)
	for i, v := range p.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return gocv.NewMatFromBytes(p.H, p.W, mt, buf)
}

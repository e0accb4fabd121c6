package scoring

import (
	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
	"gorgonia.org/tensor"
)

// Provider computes a dense score map for one template against one image.
//
// The returned tensor has shape (img.H-tpl.H+1, img.W-tpl.W+1), one
// float32 score per valid template placement, higher-is-better. Providers
// only borrow the planes for the duration of the call; a fresh map is
// produced per invocation.
type Provider interface {
	Score(tpl, img images.Plane) (*tensor.Dense, error)
}

// NewProvider creates the built-in pure-Go provider for a scoring method.
//
// Arguments:
//   - method: One of the supported Method constants.
//
// Returns:
//   - Provider: An integral-image accelerated provider.
//   - error: A ConfigError if the method is outside the supported set.
func NewProvider(method Method) (Provider, error) {
	switch method {
	case "", MethodCCoeffNormed:
		return &native{method: MethodCCoeffNormed}, nil
	case MethodCCorrNormed, MethodSqDiffNormed:
		return &native{method: method}, nil
	default:
		return nil, common.Configf("unsupported scoring method: %q", string(method))
	}
}

// Package scoring - similarity score surfaces for template placements.
//
// A Provider maps a (template, image) pair to a dense 2D score map with
// one cell per valid top-left anchor. All providers report scores on a
// single higher-is-better convention: squared-difference scores are
// inverted at the provider boundary, so downstream extraction and
// suppression never branch on the scoring method.
package scoring

import "github.com/mvlab-ai/go-mtm/common"

// Method identifies a similarity scoring function. The set is closed:
// unknown names fail at the call boundary instead of falling through to
// a runtime lookup.
type Method string

const (
	// MethodCCoeffNormed is zero-mean normalized cross-correlation, the
	// default. Scores fall in [-1,1] with 1 at a perfect match.
	MethodCCoeffNormed Method = "ccoeff_normed"
	// MethodCCorrNormed is normalized cross-correlation without mean
	// removal. Scores fall in [0,1] for non-negative rasters.
	MethodCCorrNormed Method = "ccorr_normed"
	// MethodSqDiffNormed is normalized squared difference, inverted to
	// higher-is-better: a perfect match scores 1.
	MethodSqDiffNormed Method = "sqdiff_normed"
)

// ParseMethod resolves a configuration string to a Method.
//
// Returns:
//   - Method: The resolved method; an empty string resolves to the default.
//   - error: A ConfigError for names outside the supported set.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "":
		return MethodCCoeffNormed, nil
	case MethodCCoeffNormed, MethodCCorrNormed, MethodSqDiffNormed:
		return Method(s), nil
	default:
		return "", common.Configf("unsupported scoring method: %q", s)
	}
}

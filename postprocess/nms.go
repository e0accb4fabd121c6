package postprocess

import (
	"sort"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
)

// Config defines parameters for Non-Maximum Suppression.
type Config struct {
	// MaxOverlap is the IoU at or above which the lower-scoring of two
	// boxes is suppressed. Must lie in (0,1].
	MaxOverlap float32
	// ExpectedCount caps the number of accepted detections. Zero means
	// no cap.
	ExpectedCount int
}

// Resolve filters overlapping candidates with greedy cross-template
// Non-Maximum Suppression.
//
// Candidates are ordered by descending score with a deterministic
// tie-break (template index, then raster position), then accepted
// greedily: a candidate whose IoU against any already-accepted box
// reaches cfg.MaxOverlap is a duplicate of a higher-scoring detection
// and is discarded, regardless of which template produced it. Templates
// compete for the same region; the same physical object must not be
// reported twice under different labels.
//
// Arguments:
//   - candidates: Raw candidates from any number of templates, in any order.
//   - cfg: Suppression configuration.
//
// Returns:
//   - The accepted detections in descending-score order. No pair overlaps
//     at or above cfg.MaxOverlap, and the count never exceeds
//     cfg.ExpectedCount when that is set. Zero candidates in yields an
//     empty set, not an error.
//   - error: A ConfigError if cfg.MaxOverlap lies outside (0,1].
func Resolve(candidates []Result, cfg *Config) ([]Result, error) {
	if cfg.MaxOverlap <= 0 || cfg.MaxOverlap > 1 {
		return nil, common.Configf("overlap threshold %v outside (0,1]", cfg.MaxOverlap)
	}

	n := len(candidates)
	if n == 0 {
		return []Result{}, nil
	}

	sorted := make([]Result, n)
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Template != b.Template {
			return a.Template < b.Template
		}
		if a.Box.Y1 != b.Box.Y1 {
			return a.Box.Y1 < b.Box.Y1
		}
		return a.Box.X1 < b.Box.X1
	})

	accepted := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		suppressed := false
		for j := range accepted {
			if images.CalculateIoU(sorted[i].Box, accepted[j].Box) >= cfg.MaxOverlap {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		accepted = append(accepted, sorted[i])
		if cfg.ExpectedCount > 0 && len(accepted) == cfg.ExpectedCount {
			break
		}
	}

	return accepted, nil
}

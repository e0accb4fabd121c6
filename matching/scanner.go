package matching

import (
	"image"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
	"github.com/mvlab-ai/go-mtm/postprocess"
	"github.com/mvlab-ai/go-mtm/scoring"
)

// DefaultMaxOverlap is the IoU cutoff used when Options.MaxOverlap is
// left at zero.
const DefaultMaxOverlap = 0.25

// Options controls a detection run.
type Options struct {
	// ScoreThresholds holds the minimum normalized score per template: a
	// single value applies to every template, otherwise the list must
	// align 1:1 with the templates. Nil switches candidate extraction to
	// top-k selection driven by ExpectedCount.
	ScoreThresholds []float32 `yaml:"score_thresholds"`
	// ExpectedCount caps the detections surviving suppression and sizes
	// top-k selection when no threshold is given. Zero means unlimited.
	ExpectedCount int `yaml:"expected_count"`
	// MaxOverlap is the IoU cutoff for suppression. Zero selects
	// DefaultMaxOverlap.
	MaxOverlap float32 `yaml:"max_overlap"`
	// Method selects the scoring function.
	Method scoring.Method `yaml:"method"`
	// Workers bounds the per-template scoring pool. Zero means NumCPU.
	Workers int `yaml:"workers"`
	// SearchRegion restricts the scan to a rectangle of the target image.
	// Candidate boxes are still reported in full-image coordinates.
	SearchRegion *images.Rect `yaml:"-"`
	// Downscale in (0,1) scans a resized copy of the inputs and maps the
	// resulting boxes back to native coordinates. Zero disables.
	Downscale float64 `yaml:"downscale"`
	// Provider overrides the built-in scoring backend.
	Provider scoring.Provider `yaml:"-"`
}

func (o *Options) validate(templates int) error {
	if o.ScoreThresholds == nil && o.ExpectedCount <= 0 {
		return common.Configf("either a score threshold or an expected count is required")
	}
	if len(o.ScoreThresholds) > 1 && len(o.ScoreThresholds) != templates {
		return common.Configf("%d thresholds for %d templates", len(o.ScoreThresholds), templates)
	}
	if o.ExpectedCount < 0 {
		return common.Configf("expected count %d is negative", o.ExpectedCount)
	}
	if o.Downscale < 0 || o.Downscale > 1 {
		return common.Configf("downscale ratio %v outside (0,1]", o.Downscale)
	}
	return nil
}

func (o *Options) thresholdFor(i int) (float32, bool) {
	switch len(o.ScoreThresholds) {
	case 0:
		return 0, false
	case 1:
		return o.ScoreThresholds[0], true
	default:
		return o.ScoreThresholds[i], true
	}
}

func (o *Options) maxOverlap() float32 {
	if o.MaxOverlap == 0 {
		return DefaultMaxOverlap
	}
	return o.MaxOverlap
}

// Scan scores every template against the image and merges the raw
// candidates into one global list.
//
// Every template is validated against the image before any scoring
// starts: channel count and bit depth must agree, and the template must
// fit inside the search area. Scoring then runs one task per template on
// a bounded worker pool: the image plane is shared read-only, outputs
// are independent, and the merge concatenates per-template results in
// template order so the outcome is invocation-order independent.
//
// Candidates come back tagged with their template identity and are not
// deduplicated; overlapping detections are the resolver's concern.
func Scan(img image.Image, templates []Template, opts Options) ([]postprocess.Result, error) {
	if len(templates) == 0 {
		return nil, common.ErrNoTemplates
	}
	if err := opts.validate(len(templates)); err != nil {
		return nil, err
	}

	provider := opts.Provider
	if provider == nil {
		var err error
		provider, err = scoring.NewProvider(opts.Method)
		if err != nil {
			return nil, err
		}
	}

	target := images.FromImage(img)
	offX, offY := 0, 0
	if opts.SearchRegion != nil {
		r := *opts.SearchRegion
		if r.X1 < 0 || r.Y1 < 0 || r.X2 > target.W || r.Y2 > target.H || r.Area() == 0 {
			return nil, common.Configf("search region %v outside image %dx%d", r, target.W, target.H)
		}
		target = target.Crop(r)
		offX, offY = r.X1, r.Y1
	}

	planes := make([]images.Plane, len(templates))
	for i, t := range templates {
		p := images.FromImage(t.Image)
		if !p.SameLayout(target) {
			return nil, common.Mismatchf(t.Name,
				"%d channels / %d-bit does not match image %d channels / %d-bit",
				p.C, p.Depth, target.C, target.Depth)
		}
		if p.W > target.W || p.H > target.H {
			return nil, common.Mismatchf(t.Name,
				"size %dx%d exceeds search area %dx%d", p.W, p.H, target.W, target.H)
		}
		planes[i] = p
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(templates) {
		workers = len(templates)
	}

	results := make([][]postprocess.Result, len(templates))
	errs := make([]error, len(templates))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range templates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			scores, err := provider.Score(planes[i], target)
			if err != nil {
				errs[i] = errors.Wrapf(err, "score template %q", templates[i].Name)
				return
			}

			threshold, useThreshold := opts.thresholdFor(i)
			cands, err := Extract(scores, TemplateInfo{
				Index:   i,
				Name:    templates[i].Name,
				Width:   planes[i].W,
				Height:  planes[i].H,
				OffsetX: offX,
				OffsetY: offY,
			}, ExtractOptions{
				Threshold:     threshold,
				UseThreshold:  useThreshold,
				MaxCandidates: opts.ExpectedCount,
			})
			if err != nil {
				errs[i] = errors.Wrapf(err, "extract candidates for template %q", templates[i].Name)
				return
			}
			results[i] = cands
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var merged []postprocess.Result
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

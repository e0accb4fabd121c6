package matching

import (
	"image"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
	"github.com/mvlab-ai/go-mtm/postprocess"
)

// Detect locates every template in the image and returns the final
// detection set: scored bounding boxes in descending-score order, with
// overlapping duplicates suppressed across templates and the count capped
// at opts.ExpectedCount when that is set.
//
// The computation is deterministic and side-effect free: repeated calls
// on the same inputs return identical sets.
func Detect(img image.Image, templates []Template, opts Options) ([]postprocess.Result, error) {
	if len(templates) == 0 {
		return nil, common.ErrNoTemplates
	}
	if err := opts.validate(len(templates)); err != nil {
		return nil, err
	}

	ratio := opts.Downscale
	downscaled := ratio > 0 && ratio < 1

	scanImg := img
	scanTemplates := templates
	scanOpts := opts
	if downscaled {
		scanImg = images.Downscale(img, ratio)
		scanTemplates = make([]Template, len(templates))
		for i, t := range templates {
			scanTemplates[i] = Template{Name: t.Name, Image: images.Downscale(t.Image, ratio)}
		}
		if opts.SearchRegion != nil {
			r := images.Rect{
				X1: int(float64(opts.SearchRegion.X1) * ratio),
				Y1: int(float64(opts.SearchRegion.Y1) * ratio),
				X2: int(float64(opts.SearchRegion.X2) * ratio),
				Y2: int(float64(opts.SearchRegion.Y2) * ratio),
			}
			scanOpts.SearchRegion = &r
		}
	}

	candidates, err := Scan(scanImg, scanTemplates, scanOpts)
	if err != nil {
		return nil, err
	}

	detections, err := postprocess.Resolve(candidates, &postprocess.Config{
		MaxOverlap:    opts.maxOverlap(),
		ExpectedCount: opts.ExpectedCount,
	})
	if err != nil {
		return nil, err
	}

	if downscaled {
		for i := range detections {
			detections[i].Box = images.UpscaleRect(detections[i].Box, ratio)
		}
	}
	return detections, nil
}

// Package config - YAML job descriptions for the CLI.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/matching"
	"github.com/mvlab-ai/go-mtm/scoring"
)

// Job describes one detection run: the target image, the templates to
// search for, and the matching options.
type Job struct {
	// Image is the path of the target image.
	Image string `yaml:"image"`
	// Templates lists individual template image files.
	Templates []string `yaml:"templates"`
	// TemplateDir loads every image in a directory as a template.
	TemplateDir string `yaml:"template_dir"`

	// ScoreThresholds is a single threshold for all templates or one per
	// template, aligned to the sorted template order. Empty selects
	// top-k extraction via ExpectedCount.
	ScoreThresholds []float32 `yaml:"score_thresholds"`
	// ExpectedCount caps the reported detections; 0 means unlimited.
	ExpectedCount int `yaml:"expected_count"`
	// MaxOverlap is the IoU suppression cutoff; 0 selects the default.
	MaxOverlap float32 `yaml:"max_overlap"`
	// Method names the scoring function (ccoeff_normed, ccorr_normed,
	// sqdiff_normed).
	Method string `yaml:"method"`
	// Backend selects the scoring backend: "native" (default) or "opencv".
	Backend string `yaml:"backend"`
	// Downscale in (0,1) scans a resized copy for speed.
	Downscale float64 `yaml:"downscale"`
	// Workers bounds the scoring pool; 0 means NumCPU.
	Workers int `yaml:"workers"`

	// Output is the path of the JSON result file; empty writes to stdout.
	Output string `yaml:"output"`
}

// Load reads and validates a job file.
func Load(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the fields that can be rejected before any image is
// loaded. Option-level constraints (threshold list alignment, overlap
// range) are enforced again by the matcher itself.
func (j *Job) Validate() error {
	if j.Image == "" {
		return common.Configf("no target image configured")
	}
	if len(j.Templates) == 0 && j.TemplateDir == "" {
		return common.ErrNoTemplates
	}
	if len(j.ScoreThresholds) == 0 && j.ExpectedCount <= 0 {
		return common.Configf("either score_thresholds or expected_count is required")
	}
	if _, err := scoring.ParseMethod(j.Method); err != nil {
		return err
	}
	switch j.Backend {
	case "", "native", "opencv":
	default:
		return common.Configf("unsupported backend: %q", j.Backend)
	}
	return nil
}

// Options converts the job into matcher options. The scoring backend is
// wired in by the caller, which owns the provider choice.
func (j *Job) Options() (matching.Options, error) {
	method, err := scoring.ParseMethod(j.Method)
	if err != nil {
		return matching.Options{}, err
	}
	return matching.Options{
		ScoreThresholds: j.ScoreThresholds,
		ExpectedCount:   j.ExpectedCount,
		MaxOverlap:      j.MaxOverlap,
		Method:          method,
		Workers:         j.Workers,
		Downscale:       j.Downscale,
	}, nil
}

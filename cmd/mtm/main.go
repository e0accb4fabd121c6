// Command mtm locates template images inside a target image and prints
// the resulting detections as JSON.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/mvlab-ai/go-mtm/config"
	"github.com/mvlab-ai/go-mtm/matching"
	"github.com/mvlab-ai/go-mtm/postprocess"
	"github.com/mvlab-ai/go-mtm/profiler"
	"github.com/mvlab-ai/go-mtm/scoring/opencv"
	"github.com/mvlab-ai/go-mtm/util"
)

// record is the JSON shape of one detection.
type record struct {
	Template string  `json:"template"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Score    float32 `json:"score"`
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML job file (overrides the other flags)")
		imagePath   = flag.String("image", "", "target image path")
		templateDir = flag.String("templates", "", "directory of template images")
		templates   = flag.String("template", "", "comma-separated template image files")
		threshold   = flag.Float64("threshold", -1, "minimum normalized score (unset: top-k by -count)")
		count       = flag.Int("count", 0, "expected object count (0: unlimited)")
		overlap     = flag.Float64("overlap", 0, "IoU suppression cutoff (0: default 0.25)")
		method      = flag.String("method", "", "scoring method: ccoeff_normed, ccorr_normed, sqdiff_normed")
		backend     = flag.String("backend", "", "scoring backend: native (default) or opencv")
		downscale   = flag.Float64("downscale", 0, "downscale ratio in (0,1) for faster scans")
		output      = flag.String("output", "", "result file (default stdout)")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	var job *config.Job
	var err error
	if *configPath != "" {
		job, err = config.Load(*configPath)
	} else {
		job = &config.Job{
			Image:         *imagePath,
			TemplateDir:   *templateDir,
			ExpectedCount: *count,
			MaxOverlap:    float32(*overlap),
			Method:        *method,
			Backend:       *backend,
			Downscale:     *downscale,
			Output:        *output,
		}
		if *templates != "" {
			job.Templates = strings.Split(*templates, ",")
		}
		if *threshold >= 0 {
			job.ScoreThresholds = []float32{float32(*threshold)}
		}
		err = job.Validate()
	}
	if err != nil {
		logger.Fatal("invalid job", zap.Error(err))
	}

	logger.Info("starting scan",
		zap.String("image", job.Image),
		zap.String("method", job.Method),
		zap.String("backend", job.Backend))

	watch := profiler.NewStopwatch()
	detections, err := run(job, watch)
	if err != nil {
		logger.Fatal("detection failed", zap.Error(err))
	}
	logger.Info("scan complete",
		zap.Int("detections", len(detections)),
		zap.Duration("elapsed", watch.Elapsed()))
	for _, op := range watch.Operations() {
		logger.Debug("stage timing",
			zap.String("stage", op.Name),
			zap.Duration("avg", op.Avg()),
			zap.Int64("count", op.Count))
	}

	if err := write(job.Output, detections); err != nil {
		logger.Fatal("write results", zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		os.Exit(1)
	}
	return logger
}

func run(job *config.Job, watch *profiler.Stopwatch) ([]postprocess.Result, error) {
	doneLoad := watch.StartOperation("load")
	img, err := imaging.Open(job.Image)
	if err != nil {
		return nil, err
	}

	var tpls []matching.Template
	if job.TemplateDir != "" {
		tpls, err = util.LoadTemplateDir(job.TemplateDir)
		if err != nil {
			return nil, err
		}
	}
	for _, path := range job.Templates {
		t, err := util.LoadTemplate(path)
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, t)
	}
	doneLoad()

	opts, err := job.Options()
	if err != nil {
		return nil, err
	}
	if job.Backend == "opencv" {
		provider, err := opencv.New(opts.Method)
		if err != nil {
			return nil, err
		}
		opts.Provider = provider
	}

	doneDetect := watch.StartOperation("detect")
	detections, err := matching.Detect(img, tpls, opts)
	doneDetect()
	if err != nil {
		return nil, err
	}
	return detections, nil
}

func write(path string, detections []postprocess.Result) error {
	records := make([]record, len(detections))
	for i, d := range detections {
		records[i] = record{
			Template: d.Label,
			X:        d.Box.X1,
			Y:        d.Box.Y1,
			Width:    d.Box.W(),
			Height:   d.Box.H(),
			Score:    d.Score,
		}
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if path == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

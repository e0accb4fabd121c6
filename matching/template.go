// Package matching - multi-template scanning and the detection entry point.
//
// The pipeline is a pure, synchronous computation per invocation:
// templates and the target image go in, score maps and raw candidates are
// transient, and the only output is a freshly built detection set. Scoring
// across templates is embarrassingly parallel and runs on a bounded worker
// pool; nothing is cached between calls.
package matching

import "image"

// Template is a small reference image searched for within the target
// image. The pixel data is owned by the caller and only borrowed while a
// scan runs; it must not be mutated during that time.
type Template struct {
	// Name labels detections produced by this template.
	Name string
	// Image holds the template pixels. Bit depth and channel count must
	// agree with the target image.
	Image image.Image
}

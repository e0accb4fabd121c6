// Package postprocess - resolves raw candidates into the final detection set.
package postprocess

import "github.com/mvlab-ai/go-mtm/images"

// Result represents a single detection.
type Result struct {
	// The bounding box of the detection.
	Box images.Rect
	// The normalized similarity score, higher is better.
	Score float32
	// The index of the originating template.
	Template int
	// The label of the originating template.
	Label string
}

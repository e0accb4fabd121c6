package matching

import (
	"container/heap"
	"sort"

	"gorgonia.org/tensor"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
	"github.com/mvlab-ai/go-mtm/postprocess"
)

// ExtractOptions selects candidates from one template's score map.
// At least one of the two criteria must be active.
type ExtractOptions struct {
	// Threshold keeps every cell scoring at or above it (inclusive, so
	// ties at the boundary are kept).
	Threshold float32
	// UseThreshold enables threshold extraction. When false, top-k
	// selection over MaxCandidates is used instead.
	UseThreshold bool
	// MaxCandidates bounds top-k selection when no threshold is given.
	MaxCandidates int
}

// TemplateInfo carries the identity and geometry a score map cell needs
// to become a candidate box.
type TemplateInfo struct {
	Index  int
	Name   string
	Width  int
	Height int
	// Offsets translate score map coordinates back to full-image
	// coordinates when scanning a search region.
	OffsetX int
	OffsetY int
}

// Extract scans a score map and emits raw candidates for one template.
//
// With a threshold, every cell at or above it becomes a candidate. With
// only MaxCandidates set, the k highest-scoring cells are selected with a
// bounded min-heap rather than a full sort; equal scores are resolved in
// raster order (row-major, then column) so the selection is
// deterministic. Candidates carry boxes of the template's size anchored
// at the cell position.
//
// Returns:
//   - Raw candidates, unsorted and undeduplicated; suppression is the
//     resolver's job.
//   - error: A ConfigError when neither selection criterion is active.
func Extract(scores *tensor.Dense, tpl TemplateInfo, opts ExtractOptions) ([]postprocess.Result, error) {
	if !opts.UseThreshold && opts.MaxCandidates <= 0 {
		return nil, common.Configf("either a score threshold or a candidate count is required")
	}

	shape := scores.Shape()
	rows, cols := shape[0], shape[1]
	data := mapData(scores)

	candidate := func(idx int, score float32) postprocess.Result {
		x := idx % cols
		y := idx / cols
		return postprocess.Result{
			Box:      images.RectXYWH(tpl.OffsetX+x, tpl.OffsetY+y, tpl.Width, tpl.Height),
			Score:    score,
			Template: tpl.Index,
			Label:    tpl.Name,
		}
	}

	if opts.UseThreshold {
		var out []postprocess.Result
		for idx := 0; idx < rows*cols; idx++ {
			if data[idx] >= opts.Threshold {
				out = append(out, candidate(idx, data[idx]))
			}
		}
		return out, nil
	}

	// Partial top-k selection: a min-heap of size k whose root is the
	// worst kept cell. A cell displaces the root only if it scores
	// strictly higher, or ties with an earlier raster position.
	k := opts.MaxCandidates
	h := make(cellHeap, 0, k)
	for idx := 0; idx < rows*cols; idx++ {
		score := data[idx]
		if len(h) < k {
			heap.Push(&h, cell{score: score, idx: idx})
			continue
		}
		root := h[0]
		if score > root.score || (score == root.score && idx < root.idx) {
			h[0] = cell{score: score, idx: idx}
			heap.Fix(&h, 0)
		}
	}

	sort.Slice(h, func(i, j int) bool {
		if h[i].score != h[j].score {
			return h[i].score > h[j].score
		}
		return h[i].idx < h[j].idx
	})

	out := make([]postprocess.Result, len(h))
	for i, c := range h {
		out[i] = candidate(c.idx, c.score)
	}
	return out, nil
}

// mapData exposes a score map's backing slice. A 1x1 map (template the
// same size as the image) comes back from the tensor as a bare scalar.
func mapData(t *tensor.Dense) []float32 {
	switch v := t.Data().(type) {
	case []float32:
		return v
	case float32:
		return []float32{v}
	default:
		return nil
	}
}

type cell struct {
	score float32
	idx   int
}

// cellHeap is a min-heap by score; among equal scores the later raster
// position sits nearer the root so it is displaced first.
type cellHeap []cell

func (h cellHeap) Len() int { return len(h) }

func (h cellHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].idx > h[j].idx
}

func (h cellHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cellHeap) Push(x interface{}) { *h = append(*h, x.(cell)) }

func (h *cellHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

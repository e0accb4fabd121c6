// Package images - rasters and geometry shared by the matching pipeline.
package images

// Rect is a lightweight bounding box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// RectXYWH builds a Rect from a top-left anchor and a size.
func RectXYWH(x, y, w, h int) Rect {
	return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// W returns the width of the rectangle.
func (r Rect) W() int { return r.X2 - r.X1 }

// H returns the height of the rectangle.
func (r Rect) H() int { return r.Y2 - r.Y1 }

// Area returns the area of the rectangle, zero for degenerate rectangles.
func (r Rect) Area() int {
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return 0
	}
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Translate returns a copy of the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// CalculateIoU computes the Intersection-over-Union of two rectangles.
//
// IoU = intersection area / union area, where the union follows the
// principle of inclusion-exclusion: Area(A) + Area(B) - Area(A∩B).
//
// Returns:
//   - float32: 0.0 for disjoint rectangles, 1.0 for identical ones.
func CalculateIoU(r, o Rect) float32 {
	// Intersection corners: maximum of the starts, minimum of the ends.
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	union := r.Area() + o.Area() - interArea
	if union <= 0 {
		return 0.0
	}

	return float32(interArea) / float32(union)
}

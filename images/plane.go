package images

import (
	"image"
	"image/color"
)

// Plane is a read-only float32 raster used by the scoring loops. Pixel
// values are normalized to [0,1]; channels are interleaved row-major, so
// sample (x, y, c) lives at Data[(y*W+x)*C+c]. Depth records the source
// bit depth (8 or 16) and only participates in template/image
// compatibility checks, never in scoring.
type Plane struct {
	Data  []float32
	W, H  int
	C     int
	Depth int
}

// SameLayout reports whether two planes agree on channel count and bit
// depth. Templates must match the target image on both before scanning.
func (p Plane) SameLayout(o Plane) bool {
	return p.C == o.C && p.Depth == o.Depth
}

// Crop returns a copy of the sub-raster covered by r. The caller must
// ensure r lies within the plane bounds.
func (p Plane) Crop(r Rect) Plane {
	w, h := r.W(), r.H()
	out := Plane{
		Data:  make([]float32, w*h*p.C),
		W:     w,
		H:     h,
		C:     p.C,
		Depth: p.Depth,
	}
	rowLen := w * p.C
	for y := 0; y < h; y++ {
		src := ((r.Y1+y)*p.W + r.X1) * p.C
		copy(out.Data[y*rowLen:(y+1)*rowLen], p.Data[src:src+rowLen])
	}
	return out
}

// FromImage converts a decoded image into a scoring plane. Grayscale
// sources become single-channel planes, everything else three-channel
// RGB; 16-bit color models keep Depth=16 so mixed-depth inputs are
// rejected by the scanner instead of silently truncated.
func FromImage(img image.Image) Plane {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray, depth := describe(img)
	channels := 3
	if gray {
		channels = 1
	}

	p := Plane{
		Data:  make([]float32, w*h*channels),
		W:     w,
		H:     h,
		C:     channels,
		Depth: depth,
	}

	// Fast path for 8-bit grayscale, the common microscopy case.
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			for x, v := range row {
				p.Data[y*w+x] = float32(v) / 255
			}
		}
		return p
	}

	const scale = 1.0 / 65535
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if gray {
				p.Data[y*w+x] = float32(r) * scale
				continue
			}
			off := (y*w + x) * 3
			p.Data[off] = float32(r) * scale
			p.Data[off+1] = float32(g) * scale
			p.Data[off+2] = float32(bb) * scale
		}
	}
	return p
}

// describe reports whether the image is grayscale and its bit depth.
func describe(img image.Image) (gray bool, depth int) {
	switch img.ColorModel() {
	case color.GrayModel:
		return true, 8
	case color.Gray16Model:
		return true, 16
	case color.RGBA64Model, color.NRGBA64Model:
		return false, 16
	default:
		return false, 8
	}
}

package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Downscale resizes an image by ratio (0 < ratio < 1) with bilinear
// interpolation. Scanning a downscaled image trades localization accuracy
// for speed; UpscaleRect maps the resulting boxes back to native
// coordinates.
func Downscale(img image.Image, ratio float64) image.Image {
	b := img.Bounds()
	w := uint(float64(b.Dx())*ratio + 0.5)
	h := uint(float64(b.Dy())*ratio + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return resize.Resize(w, h, img, resize.Bilinear)
}

// UpscaleRect maps a box found on a downscaled image back to full-scale
// coordinates by dividing each coordinate by the downscale ratio.
func UpscaleRect(r Rect, ratio float64) Rect {
	return Rect{
		X1: int(float64(r.X1)/ratio + 0.5),
		Y1: int(float64(r.Y1)/ratio + 0.5),
		X2: int(float64(r.X2)/ratio + 0.5),
		Y2: int(float64(r.Y2)/ratio + 0.5),
	}
}

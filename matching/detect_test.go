package matching

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvlab-ai/go-mtm/common"
	"github.com/mvlab-ai/go-mtm/images"
)

// patternImage builds a pseudorandom grayscale patch whose autocorrelation
// at any misalignment is near zero, so detections land only where the
// patch actually sits.
func patternImage(w, h int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func paste(dst, src *image.Gray, x, y int) {
	b := src.Bounds()
	for sy := 0; sy < b.Dy(); sy++ {
		for sx := 0; sx < b.Dx(); sx++ {
			dst.SetGray(x+sx, y+sy, src.GrayAt(sx, sy))
		}
	}
}

// scene builds a flat background with the pattern pasted at each position.
func scene(w, h int, pattern *image.Gray, positions ...image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	for _, p := range positions {
		paste(img, pattern, p.X, p.Y)
	}
	return img
}

func TestDetectFindsEveryInstance(t *testing.T) {
	pattern := patternImage(16, 16, 7)
	img := scene(128, 128, pattern, image.Pt(5, 5), image.Pt(80, 80))
	templates := []Template{{Name: "pat", Image: pattern}}

	out, err := Detect(img, templates, Options{ScoreThresholds: []float32{0.9}})
	require.NoError(t, err)
	require.Len(t, out, 2, "both placements must be detected")

	boxes := []images.Rect{out[0].Box, out[1].Box}
	assert.Contains(t, boxes, images.RectXYWH(5, 5, 16, 16))
	assert.Contains(t, boxes, images.RectXYWH(80, 80, 16, 16))
	for _, d := range out {
		assert.InDelta(t, 1.0, float64(d.Score), 1e-3, "exact placements score a perfect match")
		assert.Equal(t, "pat", d.Label)
	}
}

func TestDetectDeduplicatesAcrossTemplates(t *testing.T) {
	// A second template differing in a handful of pixels fires on the
	// same placements; suppression must still report each object once.
	pattern := patternImage(16, 16, 7)
	variant := patternImage(16, 16, 7)
	for i := 0; i < 5; i++ {
		variant.Pix[i*37] ^= 0x10
	}
	img := scene(128, 128, pattern, image.Pt(5, 5), image.Pt(80, 80))
	templates := []Template{
		{Name: "pat", Image: pattern},
		{Name: "pat-variant", Image: variant},
	}

	out, err := Detect(img, templates, Options{ScoreThresholds: []float32{0.9}})
	require.NoError(t, err)
	require.Len(t, out, 2, "near-duplicate templates must not double-report an object")
	for _, d := range out {
		assert.Equal(t, "pat", d.Label, "the exact template outscores the variant")
	}
}

func TestDetectExpectedCountSelectsBestPlacement(t *testing.T) {
	pattern := patternImage(16, 16, 7)
	degraded := patternImage(16, 16, 7)
	for i := 0; i < 40; i++ {
		degraded.Pix[i*6] ^= 0x20
	}
	img := scene(128, 128, pattern, image.Pt(5, 5))
	paste(img, degraded, 80, 80)
	templates := []Template{{Name: "pat", Image: pattern}}

	out, err := Detect(img, templates, Options{ExpectedCount: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, images.RectXYWH(5, 5, 16, 16), out[0].Box, "the exact placement outranks the degraded one")
}

func TestDetectIsDeterministic(t *testing.T) {
	pattern := patternImage(16, 16, 3)
	img := scene(96, 96, pattern, image.Pt(10, 12), image.Pt(60, 40))
	templates := []Template{
		{Name: "a", Image: pattern},
		{Name: "b", Image: patternImage(16, 16, 4)},
	}
	opts := Options{ScoreThresholds: []float32{0.8}, Workers: 2}

	first, err := Detect(img, templates, opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Detect(img, templates, opts)
		require.NoError(t, err)
		assert.Equal(t, first, again, "repeated runs must return identical detections")
	}
}

func TestDetectPerTemplateThresholds(t *testing.T) {
	// An unreachable threshold for the second template silences it
	// without affecting the first.
	pattern := patternImage(16, 16, 7)
	other := patternImage(16, 16, 8)
	img := scene(128, 128, pattern, image.Pt(5, 5))
	paste(img, other, 80, 80)
	templates := []Template{
		{Name: "pat", Image: pattern},
		{Name: "other", Image: other},
	}

	out, err := Detect(img, templates, Options{ScoreThresholds: []float32{0.9, 2.0}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "pat", out[0].Label)
}

func TestScanSearchRegionReportsFullImageCoordinates(t *testing.T) {
	pattern := patternImage(16, 16, 7)
	img := scene(128, 128, pattern, image.Pt(5, 5), image.Pt(80, 80))
	templates := []Template{{Name: "pat", Image: pattern}}
	region := images.RectXYWH(64, 64, 64, 64)

	out, err := Scan(img, templates, Options{
		ScoreThresholds: []float32{0.9},
		SearchRegion:    &region,
	})
	require.NoError(t, err)
	require.Len(t, out, 1, "only the placement inside the region is scanned")
	assert.Equal(t, images.RectXYWH(80, 80, 16, 16), out[0].Box,
		"candidates are anchored in full-image coordinates")
}

func TestDetectRescanOfDetectedRegionFindsSameBox(t *testing.T) {
	pattern := patternImage(16, 16, 7)
	img := scene(128, 128, pattern, image.Pt(5, 5), image.Pt(80, 80))
	templates := []Template{{Name: "pat", Image: pattern}}
	opts := Options{ScoreThresholds: []float32{0.9}}

	first, err := Detect(img, templates, opts)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Narrowing the scan to a detected box must reproduce exactly that
	// detection.
	region := first[0].Box
	opts.SearchRegion = &region
	again, err := Detect(img, templates, opts)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].Box, again[0].Box)
	assert.Equal(t, first[0].Label, again[0].Label)
	// Window statistics are accumulated over the crop rather than the
	// full raster, so the score can differ in the last bits.
	assert.InDelta(t, float64(first[0].Score), float64(again[0].Score), 1e-5)
}

func TestScanRejectsRegionOutsideImage(t *testing.T) {
	pattern := patternImage(8, 8, 1)
	img := scene(64, 64, pattern, image.Pt(2, 2))
	region := images.RectXYWH(40, 40, 64, 64)

	_, err := Scan(img, []Template{{Name: "pat", Image: pattern}}, Options{
		ScoreThresholds: []float32{0.5},
		SearchRegion:    &region,
	})
	require.Error(t, err)
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestScanMergesInTemplateOrder(t *testing.T) {
	a := patternImage(16, 16, 1)
	b := patternImage(16, 16, 2)
	img := scene(128, 128, a, image.Pt(5, 5))
	paste(img, b, 80, 80)
	templates := []Template{
		{Name: "a", Image: a},
		{Name: "b", Image: b},
	}

	out, err := Scan(img, templates, Options{ScoreThresholds: []float32{0.9}, Workers: 2})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Template, "first template's candidates come first")
	assert.Equal(t, 1, out[1].Template)
}

func TestScanErrors(t *testing.T) {
	pattern := patternImage(16, 16, 7)
	img := scene(64, 64, pattern, image.Pt(5, 5))

	t.Run("no templates", func(t *testing.T) {
		_, err := Scan(img, nil, Options{ScoreThresholds: []float32{0.5}})
		assert.ErrorIs(t, err, common.ErrNoTemplates)
	})

	t.Run("no selection criterion", func(t *testing.T) {
		_, err := Scan(img, []Template{{Name: "pat", Image: pattern}}, Options{})
		var cfgErr *common.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("threshold list length mismatch", func(t *testing.T) {
		_, err := Scan(img, []Template{{Name: "pat", Image: pattern}},
			Options{ScoreThresholds: []float32{0.5, 0.6, 0.7}})
		var cfgErr *common.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("template larger than image", func(t *testing.T) {
		big := patternImage(100, 100, 2)
		_, err := Scan(img, []Template{{Name: "big", Image: big}},
			Options{ScoreThresholds: []float32{0.5}})
		var mErr *common.MismatchError
		require.ErrorAs(t, err, &mErr)
		assert.Equal(t, "big", mErr.Template)
	})

	t.Run("layout mismatch", func(t *testing.T) {
		rgba := image.NewRGBA(image.Rect(0, 0, 8, 8))
		_, err := Scan(img, []Template{{Name: "color", Image: rgba}},
			Options{ScoreThresholds: []float32{0.5}})
		var mErr *common.MismatchError
		require.ErrorAs(t, err, &mErr)
		assert.Equal(t, "color", mErr.Template)
	})
}

func TestDetectDownscaleMapsBoxesBack(t *testing.T) {
	pattern := patternImage(32, 32, 9)
	img := scene(128, 128, pattern, image.Pt(8, 16))
	templates := []Template{{Name: "pat", Image: pattern}}

	out, err := Detect(img, templates, Options{ExpectedCount: 1, Downscale: 0.5})
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Resampling can shift the peak by a cell; the reported box must
	// still land on the placement within that tolerance.
	box := out[0].Box
	assert.InDelta(t, 8, box.X1, 2)
	assert.InDelta(t, 16, box.Y1, 2)
	assert.InDelta(t, 32, box.W(), 2)
	assert.InDelta(t, 32, box.H(), 2)
}

func TestDetectRejectsBadDownscale(t *testing.T) {
	pattern := patternImage(8, 8, 1)
	img := scene(64, 64, pattern, image.Pt(2, 2))

	_, err := Detect(img, []Template{{Name: "pat", Image: pattern}},
		Options{ScoreThresholds: []float32{0.5}, Downscale: 1.5})
	require.Error(t, err)
	var cfgErr *common.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestDetectNoMatchesIsEmptyNotError(t *testing.T) {
	img := scene(64, 64, patternImage(8, 8, 1))
	unrelated := patternImage(8, 8, 99)

	out, err := Detect(img, []Template{{Name: "none", Image: unrelated}},
		Options{ScoreThresholds: []float32{0.95}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

package compose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

func ramp(width, height int) [][]float64 {
	band := make([][]float64, height)
	for y := range band {
		band[y] = make([]float64, width)
		for x := range band[y] {
			band[y][x] = float64(y*width + x)
		}
	}
	return band
}

func constant(width, height int, v float64) [][]float64 {
	band := make([][]float64, height)
	for y := range band {
		band[y] = make([]float64, width)
		for x := range band[y] {
			band[y][x] = v
		}
	}
	return band
}

func TestSafeNormalizeRange(t *testing.T) {
	norm := SafeNormalize(ramp(16, 16))
	require.Len(t, norm, 16)

	for _, row := range norm {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSafeNormalizeMonotonic(t *testing.T) {
	norm := SafeNormalize(ramp(16, 16))

	prev := -1.0
	for _, row := range norm {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, prev, "normalization must preserve input ordering")
			prev = v
		}
	}
	// Percentile clipping pins the extremes
	assert.Equal(t, 0.0, norm[0][0])
	assert.Equal(t, 1.0, norm[15][15])
}

func TestSafeNormalizeConstantBand(t *testing.T) {
	norm := SafeNormalize(constant(8, 8, 42.5))
	require.Len(t, norm, 8)

	for _, row := range norm {
		for _, v := range row {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "degenerate band must not produce NaN/Inf")
			assert.Equal(t, 0.0, v, "constant band renders black")
		}
	}
}

func TestSafeNormalizeNonFinite(t *testing.T) {
	band := ramp(4, 4)
	band[0][0] = math.NaN()
	band[1][1] = math.Inf(1)
	band[2][2] = math.Inf(-1)

	norm := SafeNormalize(band)
	for _, row := range norm {
		for _, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSafeNormalizeNil(t *testing.T) {
	assert.Nil(t, SafeNormalize(nil))
}

func TestComposeMissingBand(t *testing.T) {
	band := ramp(4, 4)

	cases := []struct {
		name    string
		r, g, b [][]float64
	}{
		{"missing red", nil, band, band},
		{"missing green", band, nil, band},
		{"missing blue", band, band, nil},
		{"all missing", nil, nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, opts := range []Options{{0.5, 10}, {2, 1}, {0, 0}, {0.1, 20}} {
				img, err := Compose(tc.r, tc.g, tc.b, opts)
				assert.Nil(t, img)
				assert.ErrorIs(t, err, ErrMissingBand)
			}
		})
	}
}

func TestComposeDimensions(t *testing.T) {
	img, err := Compose(ramp(7, 5), ramp(7, 5), ramp(7, 5), Options{Stretch: 0.5, Q: 10})
	require.NoError(t, err)
	require.NotNil(t, img)

	assert.Equal(t, 7, img.Width)
	assert.Equal(t, 5, img.Height)
	assert.Len(t, img.Pix, 7*5*3)
}

func TestComposeMismatchedBands(t *testing.T) {
	img, err := Compose(ramp(4, 4), ramp(4, 4), ramp(5, 4), Options{Stretch: 0.5, Q: 10})
	assert.Nil(t, img)
	assert.ErrorIs(t, err, pipeline.ErrCompositionFailed)

	img, err = Compose(ramp(4, 4), ramp(4, 3), ramp(4, 4), Options{Stretch: 0.5, Q: 10})
	assert.Nil(t, img)
	assert.ErrorIs(t, err, pipeline.ErrCompositionFailed)
}

func TestComposeStretchZeroBlack(t *testing.T) {
	img, err := Compose(ramp(8, 8), ramp(8, 8), ramp(8, 8), Options{Stretch: 0, Q: 10})
	require.NoError(t, err)
	require.NotNil(t, img)

	for _, p := range img.Pix {
		assert.Equal(t, uint8(0), p, "degenerate stretch produces a black image")
	}
}

func TestComposeQZeroLinear(t *testing.T) {
	band := ramp(16, 1)
	img, err := Compose(band, band, band, Options{Stretch: 0.5, Q: 0})
	require.NoError(t, err)

	// Identity map after normalization: gray ramp from 0 to 255
	r0, g0, b0 := img.At(0, 0)
	assert.Equal(t, uint8(0), r0)
	assert.Equal(t, uint8(0), g0)
	assert.Equal(t, uint8(0), b0)

	rMax, gMax, bMax := img.At(15, 0)
	assert.Equal(t, uint8(255), rMax)
	assert.Equal(t, uint8(255), gMax)
	assert.Equal(t, uint8(255), bMax)

	prev := -1
	for x := 0; x < 16; x++ {
		r, g, b := img.At(x, 0)
		assert.Equal(t, r, g)
		assert.Equal(t, g, b)
		assert.GreaterOrEqual(t, int(r), prev)
		prev = int(r)
	}
}

func TestComposeQMonotoneNearSaturation(t *testing.T) {
	band := ramp(64, 1)

	low, err := Compose(band, band, band, Options{Stretch: 0.5, Q: 5})
	require.NoError(t, err)
	high, err := Compose(band, band, band, Options{Stretch: 0.5, Q: 15})
	require.NoError(t, err)

	// Saturated pixels must not dim as Q increases
	for x := 60; x < 64; x++ {
		rLow, _, _ := low.At(x, 0)
		rHigh, _, _ := high.At(x, 0)
		assert.GreaterOrEqual(t, rHigh, rLow,
			"increasing Q must not decrease brightness near saturation (x=%d)", x)
	}
}

func TestComposeBrightCompression(t *testing.T) {
	band := ramp(64, 1)
	img, err := Compose(band, band, band, Options{Stretch: 0.5, Q: 10})
	require.NoError(t, err)

	// asinh stretch lifts midtones above the linear map
	rMid, _, _ := img.At(32, 0)
	linear, err := Compose(band, band, band, Options{Stretch: 0.5, Q: 0})
	require.NoError(t, err)
	rLin, _, _ := linear.At(32, 0)
	assert.Greater(t, rMid, rLin)
}

func TestDemoBandsCompose(t *testing.T) {
	r, g, b := DemoBands(64, 1)
	img, err := Compose(r, g, b, Options{Stretch: 0.5, Q: 10})
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 64, img.Height)

	encoded, err := img.EncodePNG()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}

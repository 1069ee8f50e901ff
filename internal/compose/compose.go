// Package compose turns three normalized monochrome bands into a single RGB
// image using percentile-clipped normalization and a Lupton-style asinh
// stretch.
package compose

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// ErrMissingBand is returned when composition is attempted without all three
// bands present
var ErrMissingBand = errors.New("missing band")

// Options parameterize the asinh stretch. Stretch is the softening scale
// (larger brightens faint features); Q is the nonlinearity factor (larger
// compresses bright regions harder).
type Options struct {
	Stretch float64
	Q       float64
}

// CompositeImage is a height×width×3 byte-depth RGB image. Read-only once
// produced.
type CompositeImage struct {
	Width  int
	Height int
	Pix    []uint8 // RGB triplets, row-major
}

// At returns the RGB triple at (x, y)
func (c *CompositeImage) At(x, y int) (r, g, b uint8) {
	i := (y*c.Width + x) * 3
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}

// SafeNormalize rescales a band to [0, 1] using outlier-robust percentile
// clipping: non-finite values become 0, values are clipped to the 1st/99th
// percentile and rescaled linearly. A degenerate band with no value range
// (p1 == p99) normalizes to all zeros and renders black, never NaN. Returns
// nil for a nil band.
func SafeNormalize(data [][]float64) [][]float64 {
	if data == nil {
		return nil
	}

	var flat []float64
	for _, row := range data {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			flat = append(flat, v)
		}
	}
	if len(flat) == 0 {
		return [][]float64{}
	}

	sorted := make([]float64, len(flat))
	copy(sorted, flat)
	sort.Float64s(sorted)

	pLow := stat.Quantile(0.01, stat.LinInterp, sorted, nil)
	pHigh := stat.Quantile(0.99, stat.LinInterp, sorted, nil)
	span := pHigh - pLow

	out := make([][]float64, len(data))
	i := 0
	for y, row := range data {
		out[y] = make([]float64, len(row))
		for x := range row {
			if span <= 0 {
				i++
				continue
			}
			v := flat[i]
			i++
			if v < pLow {
				v = pLow
			} else if v > pHigh {
				v = pHigh
			}
			out[y][x] = (v - pLow) / span
		}
	}
	return out
}

// Compose normalizes each band independently and combines them with the
// asinh stretch. A missing band yields a nil image with ErrMissingBand; any
// internal fault is recovered and reported as a composition failure, never
// raised past this boundary.
func Compose(r, g, b [][]float64, opts Options) (img *CompositeImage, err error) {
	if r == nil || g == nil || b == nil {
		return nil, ErrMissingBand
	}

	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("%w: %v", pipeline.ErrCompositionFailed, rec)
		}
	}()

	rn := SafeNormalize(r)
	gn := SafeNormalize(g)
	bn := SafeNormalize(b)

	height := len(rn)
	if len(gn) != height || len(bn) != height {
		return nil, fmt.Errorf("%w: band heights differ (%d/%d/%d)",
			pipeline.ErrCompositionFailed, len(rn), len(gn), len(bn))
	}
	if height == 0 {
		return nil, fmt.Errorf("%w: empty bands", pipeline.ErrCompositionFailed)
	}
	width := len(rn[0])
	if width == 0 || len(gn[0]) != width || len(bn[0]) != width {
		return nil, fmt.Errorf("%w: band widths differ", pipeline.ErrCompositionFailed)
	}

	img = &CompositeImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pr, pg, pb := stretchPixel(rn[y][x], gn[y][x], bn[y][x], opts)
			i := (y*width + x) * 3
			img.Pix[i] = toByte(pr)
			img.Pix[i+1] = toByte(pg)
			img.Pix[i+2] = toByte(pb)
		}
	}
	return img, nil
}

// stretchPixel applies the Lupton asinh mapping to one pixel. The intensity
// I = (r+g+b)/3 is remapped through
//
//	F(I) = asinh(Q·stretch·I) / asinh(Q·stretch)
//
// and each channel is scaled by F(I)/I, which keeps faint pixels linear and
// compresses bright ones logarithmically. Degenerate cases are defined:
// stretch <= 0 produces black and Q <= 0 degrades to the identity (linear)
// map. Channels pushed past 1 are rescaled together to preserve hue.
func stretchPixel(r, g, b float64, opts Options) (float64, float64, float64) {
	if opts.Stretch <= 0 {
		return 0, 0, 0
	}

	intensity := (r + g + b) / 3
	if intensity <= 0 {
		return 0, 0, 0
	}

	factor := 1.0
	if soften := opts.Q * opts.Stretch; soften > 0 {
		factor = math.Asinh(soften*intensity) / (math.Asinh(soften) * intensity)
	}

	r *= factor
	g *= factor
	b *= factor

	if max := math.Max(r, math.Max(g, b)); max > 1 {
		r /= max
		g /= max
		b /= max
	}
	return r, g, b
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

package bands

import (
	"errors"
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
)

// ErrNoImageData marks a FITS file with no extension carrying non-empty
// 2-D+ image data. This is a content problem, not a transient one, so the
// loader does not retry it.
var ErrNoImageData = errors.New("no image data in any extension")

// headerKeys are the scalar cards copied into BandImage.Header when present
var headerKeys = []string{"TELESCOP", "INSTRUME", "FILTER", "EXPTIME", "DATE-OBS", "TARGNAME", "BUNIT"}

// DecodeFile opens a FITS file and returns the first extension whose data is
// non-empty with at least two dimensions. Higher-dimensional data yields its
// first 2-D plane.
func DecodeFile(path string) (*BandImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FITS container: %w", err)
	}
	defer fits.Close()

	for _, hdu := range fits.HDUs() {
		img, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}

		hdr := img.Header()
		axes := hdr.Axes()
		if len(axes) < 2 || axes[0] <= 0 || axes[1] <= 0 {
			continue
		}

		pixels, err := readPlane(img, hdr.Bitpix(), axes[0], axes[1])
		if err != nil {
			return nil, err
		}

		return &BandImage{
			Pixels: pixels,
			Header: extractHeader(hdr, axes),
		}, nil
	}

	return nil, ErrNoImageData
}

// readPlane reads the first width×height plane of an image HDU as float64
func readPlane(img fitsio.Image, bitpix, width, height int) ([][]float64, error) {
	n := width * height
	flat := make([]float64, n)

	switch bitpix {
	case 8:
		var raw []int8
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		for i := 0; i < n && i < len(raw); i++ {
			flat[i] = float64(raw[i])
		}
	case 16:
		var raw []int16
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		for i := 0; i < n && i < len(raw); i++ {
			flat[i] = float64(raw[i])
		}
	case 32:
		var raw []int32
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		for i := 0; i < n && i < len(raw); i++ {
			flat[i] = float64(raw[i])
		}
	case 64:
		var raw []int64
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		for i := 0; i < n && i < len(raw); i++ {
			flat[i] = float64(raw[i])
		}
	case -32:
		var raw []float32
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		for i := 0; i < n && i < len(raw); i++ {
			flat[i] = float64(raw[i])
		}
	case -64:
		var raw []float64
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		copy(flat, raw)
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	pixels := make([][]float64, height)
	for y := 0; y < height; y++ {
		pixels[y] = flat[y*width : (y+1)*width]
	}
	return pixels, nil
}

func extractHeader(hdr *fitsio.Header, axes []int) map[string]interface{} {
	meta := map[string]interface{}{
		"BITPIX": hdr.Bitpix(),
		"NAXIS":  len(axes),
		"NAXIS1": axes[0],
		"NAXIS2": axes[1],
	}
	for _, key := range headerKeys {
		if card := hdr.Get(key); card != nil {
			meta[key] = card.Value
		}
	}
	return meta
}

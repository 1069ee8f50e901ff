// Package bands acquires the per-channel monochrome images that feed the
// compositor: download with bounded retry into a local cache, then FITS
// decode of the first usable image extension.
package bands

// BandImage is one color channel's worth of raw image data plus the scalar
// metadata extracted from its FITS header. A BandImage belongs to the
// pipeline run that loaded it and is never shared across runs.
type BandImage struct {
	Pixels [][]float64
	Header map[string]interface{}
}

// Width returns the number of columns, 0 for an empty band
func (b *BandImage) Width() int {
	if len(b.Pixels) == 0 {
		return 0
	}
	return len(b.Pixels[0])
}

// Height returns the number of rows
func (b *BandImage) Height() int {
	return len(b.Pixels)
}

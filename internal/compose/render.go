package compose

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// NRGBA converts the composite to a standard image. FITS stores rows
// bottom-up, so the result is flipped vertically to display north-up.
func (c *CompositeImage) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			r, g, b := c.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 0xff
		}
	}
	return imaging.FlipV(img)
}

// EncodePNG renders the composite to PNG bytes
func (c *CompositeImage) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, c.NRGBA(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("PNG encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview returns a copy bounded to maxDim on the longer side, preserving
// aspect ratio
func (c *CompositeImage) Preview(maxDim int) *image.NRGBA {
	return imaging.Fit(c.NRGBA(), maxDim, maxDim, imaging.Lanczos)
}

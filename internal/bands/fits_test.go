package bands

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fitsBlockSize = 2880

// fitsCard renders one 80-byte fixed-format header card. String values are
// left-justified after the value indicator, everything else right-justified
// to column 30.
func fitsCard(keyword, value string) []byte {
	var s string
	switch {
	case value == "":
		s = keyword
	case strings.HasPrefix(value, "'"):
		s = fmt.Sprintf("%-8s= %-20s", keyword, value)
	default:
		s = fmt.Sprintf("%-8s= %20s", keyword, value)
	}
	card := bytes.Repeat([]byte{' '}, 80)
	copy(card, s)
	return card
}

func padBlock(b []byte, fill byte) []byte {
	if rem := len(b) % fitsBlockSize; rem != 0 {
		b = append(b, bytes.Repeat([]byte{fill}, fitsBlockSize-rem)...)
	}
	return b
}

// primaryImageHDU builds a primary HDU carrying big-endian float32 data in
// row-major order
func primaryImageHDU(width, height int, values []float32) []byte {
	var hdr []byte
	hdr = append(hdr, fitsCard("SIMPLE", "T")...)
	hdr = append(hdr, fitsCard("BITPIX", "-32")...)
	hdr = append(hdr, fitsCard("NAXIS", "2")...)
	hdr = append(hdr, fitsCard("NAXIS1", fmt.Sprintf("%d", width))...)
	hdr = append(hdr, fitsCard("NAXIS2", fmt.Sprintf("%d", height))...)
	hdr = append(hdr, fitsCard("TELESCOP", "'HST     '")...)
	hdr = append(hdr, fitsCard("FILTER", "'F814W   '")...)
	hdr = append(hdr, fitsCard("END", "")...)
	hdr = padBlock(hdr, ' ')

	var data bytes.Buffer
	binary.Write(&data, binary.BigEndian, values)
	return append(hdr, padBlock(data.Bytes(), 0)...)
}

// emptyPrimaryHDU builds a headers-only primary HDU (NAXIS=0)
func emptyPrimaryHDU() []byte {
	var hdr []byte
	hdr = append(hdr, fitsCard("SIMPLE", "T")...)
	hdr = append(hdr, fitsCard("BITPIX", "8")...)
	hdr = append(hdr, fitsCard("NAXIS", "0")...)
	hdr = append(hdr, fitsCard("EXTEND", "T")...)
	hdr = append(hdr, fitsCard("END", "")...)
	return padBlock(hdr, ' ')
}

// imageExtensionHDU builds an IMAGE extension with float32 data
func imageExtensionHDU(width, height int, values []float32) []byte {
	var hdr []byte
	hdr = append(hdr, fitsCard("XTENSION", "'IMAGE   '")...)
	hdr = append(hdr, fitsCard("BITPIX", "-32")...)
	hdr = append(hdr, fitsCard("NAXIS", "2")...)
	hdr = append(hdr, fitsCard("NAXIS1", fmt.Sprintf("%d", width))...)
	hdr = append(hdr, fitsCard("NAXIS2", fmt.Sprintf("%d", height))...)
	hdr = append(hdr, fitsCard("PCOUNT", "0")...)
	hdr = append(hdr, fitsCard("GCOUNT", "1")...)
	hdr = append(hdr, fitsCard("END", "")...)
	hdr = padBlock(hdr, ' ')

	var data bytes.Buffer
	binary.Write(&data, binary.BigEndian, values)
	return append(hdr, padBlock(data.Bytes(), 0)...)
}

func writeFITS(t *testing.T, hdus ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fits")
	require.NoError(t, os.WriteFile(path, bytes.Join(hdus, nil), 0644))
	return path
}

func TestDecodeFilePrimaryImage(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	path := writeFITS(t, primaryImageHDU(3, 2, values))

	band, err := DecodeFile(path)
	require.NoError(t, err)
	require.NotNil(t, band)

	assert.Equal(t, 3, band.Width())
	assert.Equal(t, 2, band.Height())
	assert.Equal(t, 1.0, band.Pixels[0][0])
	assert.Equal(t, 3.0, band.Pixels[0][2])
	assert.Equal(t, 4.0, band.Pixels[1][0])
	assert.Equal(t, 6.0, band.Pixels[1][2])
}

func TestDecodeFileHeaderExtraction(t *testing.T) {
	path := writeFITS(t, primaryImageHDU(3, 2, make([]float32, 6)))

	band, err := DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, -32, band.Header["BITPIX"])
	assert.Equal(t, 2, band.Header["NAXIS"])
	assert.Equal(t, 3, band.Header["NAXIS1"])
	assert.Equal(t, 2, band.Header["NAXIS2"])
	assert.Equal(t, "HST", strings.TrimSpace(fmt.Sprint(band.Header["TELESCOP"])))
	assert.Equal(t, "F814W", strings.TrimSpace(fmt.Sprint(band.Header["FILTER"])))
}

func TestDecodeFileSkipsEmptyPrimary(t *testing.T) {
	values := []float32{10, 20, 30, 40}
	path := writeFITS(t, emptyPrimaryHDU(), imageExtensionHDU(2, 2, values))

	band, err := DecodeFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, band.Width())
	assert.Equal(t, 2, band.Height())
	assert.Equal(t, 10.0, band.Pixels[0][0])
	assert.Equal(t, 40.0, band.Pixels[1][1])
}

func TestDecodeFileNoImageData(t *testing.T) {
	path := writeFITS(t, emptyPrimaryHDU())

	band, err := DecodeFile(path)
	assert.Nil(t, band)
	assert.ErrorIs(t, err, ErrNoImageData)
}

func TestDecodeFileNotFITS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.fits")
	require.NoError(t, os.WriteFile(path, []byte("this is not a FITS file"), 0644))

	band, err := DecodeFile(path)
	assert.Nil(t, band)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoImageData)
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "absent.fits"))
	assert.Error(t, err)
}

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePathStable(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	uri := "mast:HST/product/x_flt.fits"
	assert.Equal(t, cache.Path(uri), cache.Path(uri))
	assert.NotEqual(t, cache.Path(uri), cache.Path("mast:HST/product/y_flt.fits"))
	assert.True(t, strings.HasSuffix(cache.Path(uri), ".fits"))
}

func TestCachePutAndHas(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	uri := "mast:HST/product/x_flt.fits"
	assert.False(t, cache.Has(uri))

	path, err := cache.Put(uri, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, cache.Path(uri), path)
	assert.True(t, cache.Has(uri))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestCachePutIdempotent(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	uri := "mast:HST/product/x_flt.fits"
	_, err = cache.Put(uri, bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	path, err := cache.Put(uri, bytes.NewReader([]byte("second")))
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got, "repeated puts replace atomically")

	entries, err := os.ReadDir(cache.baseDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriterPutAndHas(t *testing.T) {
	writer, err := NewFilesystemWriter(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	has, err := writer.HasComposite(ctx, "NGC 1300", "rgb_composite", 1)
	require.NoError(t, err)
	assert.False(t, has)

	meta := map[string]string{"target": "NGC 1300", "width": "512"}
	path, err := writer.PutComposite(ctx, "NGC 1300", "rgb_composite", 1, bytes.NewReader([]byte("png-bytes")), meta)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(path, "ngc_1300/rgb_composite_v1.png"))

	has, err = writer.HasComposite(ctx, "NGC 1300", "rgb_composite", 1)
	require.NoError(t, err)
	assert.True(t, has)

	// Versions are independent artifacts
	has, err = writer.HasComposite(ctx, "NGC 1300", "rgb_composite", 2)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestWriterMetadataSidecar(t *testing.T) {
	writer, err := NewFilesystemWriter(t.TempDir())
	require.NoError(t, err)

	meta := map[string]string{"stretch": "0.5", "q": "10"}
	path, err := writer.PutComposite(context.Background(), "M51", "rgb_composite", 1, bytes.NewReader([]byte("png")), meta)
	require.NoError(t, err)

	raw, err := os.ReadFile(path + ".json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, meta, got)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "ngc_1300", slug("NGC 1300"))
	assert.Equal(t, "m51", slug(" M51 "))
	assert.Equal(t, "unnamed", slug(""))
	assert.Equal(t, "crab_nebula", slug("Crab Nebula"))
}

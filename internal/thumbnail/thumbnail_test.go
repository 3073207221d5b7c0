package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/filesmanager/internal/storage"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenditionLocation(t *testing.T) {
	assert.Equal(t, "/tmp/files_manager/abc_500", RenditionLocation("/tmp/files_manager/abc", 500))
	assert.True(t, ValidWidth(250))
	assert.False(t, ValidWidth(300))
	assert.False(t, ValidWidth(0))
}

func TestRenderKeepsAspectAndFormat(t *testing.T) {
	out, err := Render(testPNG(t, 800, 400))
	require.NoError(t, err)
	require.Len(t, out, len(Widths))

	for _, w := range Widths {
		img, format, err := image.Decode(bytes.NewReader(out[w]))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, w, img.Bounds().Dx())
		assert.Equal(t, w/2, img.Bounds().Dy())
	}
}

func TestRenderRejectsNonImage(t *testing.T) {
	_, err := Render([]byte("Hello"))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStorage(afero.NewMemMapFs(), "/data")
	loc := store.Location("img")
	require.NoError(t, store.Save(ctx, loc, bytes.NewReader(testPNG(t, 600, 600))))

	require.NoError(t, Generate(ctx, store, loc))
	// Running twice overwrites the same renditions
	require.NoError(t, Generate(ctx, store, loc))

	for _, w := range Widths {
		data, err := storage.ReadAll(ctx, store, RenditionLocation(loc, w))
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, w, cfg.Width)
	}
}

func TestGenerateWritesNothingOnBadImage(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store := storage.NewLocalStorage(fsys, "/data")
	loc := store.Location("broken")
	require.NoError(t, store.Save(ctx, loc, bytes.NewBufferString("not an image")))

	assert.Error(t, Generate(ctx, store, loc))

	for _, w := range Widths {
		ok, err := afero.Exists(fsys, RenditionLocation(loc, w))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	assert.ErrorIs(t, Generate(ctx, store, store.Location("missing")), storage.ErrObjectNotFound)
}

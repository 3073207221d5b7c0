package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/templui/filesmanager/internal/storage"
)

// Quality used when a rendition is encoded as JPEG.
const Quality = 80

// Widths are the rendition widths produced for every image, largest first.
var Widths = []int{500, 250, 100}

// ValidWidth reports whether w is one of the rendered widths.
func ValidWidth(w int) bool {
	for _, width := range Widths {
		if w == width {
			return true
		}
	}
	return false
}

// RenditionLocation returns where the width-w rendition of the object at location lives.
func RenditionLocation(location string, w int) string {
	return fmt.Sprintf("%s_%d", location, w)
}

// Render decodes an image and returns one resized copy per width, keyed by width.
// Renditions keep the aspect ratio and the source encoding; formats imaging
// cannot write back fall back to JPEG.
func Render(data []byte) (map[int][]byte, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		format = imaging.JPEG
	}

	out := make(map[int][]byte, len(Widths))
	for _, w := range Widths {
		resized := imaging.Resize(img, w, 0, imaging.Lanczos)

		var buf bytes.Buffer
		err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(Quality))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %dpx rendition: %w", w, err)
		}
		out[w] = buf.Bytes()
	}

	return out, nil
}

// Generate renders every width for the image stored at location and saves
// each next to it. Nothing is written unless all renditions render.
func Generate(ctx context.Context, store storage.Storage, location string) error {
	data, err := storage.ReadAll(ctx, store, location)
	if err != nil {
		return fmt.Errorf("failed to read original: %w", err)
	}

	renditions, err := Render(data)
	if err != nil {
		return err
	}

	for _, w := range Widths {
		err := store.Save(ctx, RenditionLocation(location, w), bytes.NewReader(renditions[w]))
		if err != nil {
			return fmt.Errorf("failed to save %dpx rendition: %w", w, err)
		}
	}

	return nil
}

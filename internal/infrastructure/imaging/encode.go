package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

const jpegQuality = 90

// EncodeJPEG serializes a raster for storage or transport to an engine.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Package docdecode turns uploaded files into rasters. JPEG and PNG decode
// locally; PDFs get their embedded text layer read locally and their first
// page rendered through the rasterizer sidecar.
package docdecode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

// PageRasterizer renders the first page of a PDF. Optional: without one, PDF
// uploads are rejected as undecodable.
type PageRasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdfData []byte) (image.Image, error)
}

type Decoder struct {
	rasterizer PageRasterizer
}

func New(rasterizer PageRasterizer) *Decoder {
	return &Decoder{rasterizer: rasterizer}
}

func (d *Decoder) Decode(ctx context.Context, filename string, data []byte) (*domain.Raster, error) {
	if len(data) < 8 {
		return nil, domain.WrapError(domain.ErrDecode, "decode upload",
			fmt.Errorf("file %s is empty or truncated", filename))
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return d.decodePDF(ctx, filename, data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrDecode, "decode upload",
			fmt.Errorf("file %s is not a supported image: %w", filename, err))
	}
	return &domain.Raster{Image: img}, nil
}

func (d *Decoder) decodePDF(ctx context.Context, filename string, data []byte) (*domain.Raster, error) {
	if d.rasterizer == nil {
		return nil, domain.WrapError(domain.ErrDecode, "decode upload",
			fmt.Errorf("pdf upload %s rejected: no rasterizer configured", filename))
	}

	text, err := pdfText(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDecode, "decode upload",
			fmt.Errorf("read pdf %s: %w", filename, err))
	}

	img, err := d.rasterizer.RasterizeFirstPage(ctx, data)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrDecode, "decode upload",
			fmt.Errorf("rasterize pdf %s: %w", filename, err))
	}
	return &domain.Raster{Image: img, TextLayer: text}, nil
}

// pdfText extracts the embedded text layer. The pdf library panics on some
// malformed inputs, so the recover turns that into a plain decode error. A
// scanned PDF with no text layer yields an empty string, which sends the
// raster through OCR instead.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", nil
	}
	buf, err := io.ReadAll(plain)
	if err != nil {
		return "", nil
	}
	return string(buf), nil
}

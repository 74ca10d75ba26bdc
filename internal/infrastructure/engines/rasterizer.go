package engines

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // sidecar answers with jpeg or png
	_ "image/png"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/resilience"
)

const opRasterize = "pdf rasterize"

// Rasterizer renders the first page of a PDF to an image through the
// rasterizer sidecar. Text extraction from PDFs happens locally; only the
// pixel rendering needs the external service.
type Rasterizer struct {
	client *client
	exec   *resilience.Executor
}

func NewRasterizer(baseURL string, timeout time.Duration, exec *resilience.Executor) *Rasterizer {
	return &Rasterizer{client: newClient(baseURL, timeout), exec: exec}
}

func (r *Rasterizer) RasterizeFirstPage(ctx context.Context, pdfData []byte) (image.Image, error) {
	var payload []byte
	err := r.exec.Execute(ctx, opRasterize, func(ctx context.Context) error {
		data, err := r.client.postRaw(ctx, "/v1/rasterize", opRasterize, "application/pdf", pdfData)
		if err != nil {
			return err
		}
		payload = data
		return nil
	}, classifyEngineError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded(opRasterize, err)
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode rasterized page: %w", err)
	}
	return img, nil
}

// Package engines holds the HTTP adapters for the external verification
// services: the OCR engine, the biometric face-comparison engine, and the PDF
// rasterizer sidecar. Every call goes through the shared resilience executor.
package engines

import (
	"context"
	"image"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/imaging"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/resilience"
)

const opOCRExtract = "ocr extract"

type OCRClient struct {
	client *client
	exec   *resilience.Executor
}

func NewOCRClient(baseURL string, timeout time.Duration, exec *resilience.Executor) *OCRClient {
	return &OCRClient{client: newClient(baseURL, timeout), exec: exec}
}

// ExtractText sends the normalized raster to the OCR engine and returns the
// recognized plain text. An empty string is a valid answer.
func (c *OCRClient) ExtractText(ctx context.Context, img image.Image) (string, error) {
	encoded, err := imaging.EncodeJPEG(img)
	if err != nil {
		return "", err
	}

	var response struct {
		Text string `json:"text"`
	}
	err = c.exec.Execute(ctx, opOCRExtract, func(ctx context.Context) error {
		return c.client.postMultipart(ctx, "/v1/ocr", opOCRExtract,
			[]filePart{{field: "image", name: "document.jpg", data: encoded}},
			&response)
	}, classifyEngineError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(opOCRExtract, err)
	}
	return response.Text, nil
}

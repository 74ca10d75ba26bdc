package engines

import (
	"context"
	"image"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/imaging"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/resilience"
)

const opFaceCompare = "face compare"

type FaceClient struct {
	client *client
	exec   *resilience.Executor
}

func NewFaceClient(baseURL string, timeout time.Duration, exec *resilience.Executor) *FaceClient {
	return &FaceClient{client: newClient(baseURL, timeout), exec: exec}
}

// Compare submits the document portrait and the live photo to the biometric
// engine. A no-face or below-threshold answer comes back as an unmatched
// result with a note; only transport and engine failures are errors.
func (c *FaceClient) Compare(ctx context.Context, document, live image.Image) (domain.FaceMatchResult, error) {
	docJPEG, err := imaging.EncodeJPEG(document)
	if err != nil {
		return domain.FaceMatchResult{}, err
	}
	liveJPEG, err := imaging.EncodeJPEG(live)
	if err != nil {
		return domain.FaceMatchResult{}, err
	}

	var response struct {
		Matched bool    `json:"matched"`
		Score   float64 `json:"score"`
		Note    string  `json:"note"`
	}
	err = c.exec.Execute(ctx, opFaceCompare, func(ctx context.Context) error {
		return c.client.postMultipart(ctx, "/v1/compare", opFaceCompare,
			[]filePart{
				{field: "document", name: "document.jpg", data: docJPEG},
				{field: "live", name: "live.jpg", data: liveJPEG},
			},
			&response)
	}, classifyEngineError)
	if err != nil {
		return domain.FaceMatchResult{}, wrapTemporaryIfNeeded(opFaceCompare, err)
	}

	return domain.FaceMatchResult{
		Matched: response.Matched,
		Score:   response.Score,
		Note:    response.Note,
	}, nil
}

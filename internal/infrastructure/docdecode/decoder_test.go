package docdecode

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
)

func encodedImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 180, G: 180, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

type stubRasterizer struct {
	img image.Image
	err error
}

func (s *stubRasterizer) RasterizeFirstPage(context.Context, []byte) (image.Image, error) {
	return s.img, s.err
}

func TestDecodeJPEG(t *testing.T) {
	data := encodedImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})

	raster, err := New(nil).Decode(context.Background(), "card.jpg", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raster.Image.Bounds().Dx() != 16 {
		t.Fatalf("unexpected bounds %v", raster.Image.Bounds())
	}
	if raster.TextLayer != "" {
		t.Fatalf("images have no text layer, got %q", raster.TextLayer)
	}
}

func TestDecodePNG(t *testing.T) {
	data := encodedImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})

	raster, err := New(nil).Decode(context.Background(), "card.png", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raster.Image == nil {
		t.Fatal("expected decoded raster")
	}
}

func TestDecodeGarbageIsDecodeError(t *testing.T) {
	_, err := New(nil).Decode(context.Background(), "card.jpg", []byte("not an image at all"))
	if !domain.IsKind(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeTruncatedUpload(t *testing.T) {
	_, err := New(nil).Decode(context.Background(), "card.jpg", []byte{0xFF, 0xD8})
	if !domain.IsKind(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodePDFWithoutRasterizer(t *testing.T) {
	_, err := New(nil).Decode(context.Background(), "card.pdf", []byte("%PDF-1.4 minimal"))
	if !domain.IsKind(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDecodeMalformedPDFIsDecodeError(t *testing.T) {
	stub := &stubRasterizer{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}

	_, err := New(stub).Decode(context.Background(), "card.pdf", []byte("%PDF-1.4 not really a pdf body"))
	if !domain.IsKind(err, domain.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

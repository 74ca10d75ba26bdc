package engines

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	return img
}

func TestOCRClientExtractText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ocr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"AADHAAR 2345 6789 0124"}`))
	}))
	defer server.Close()

	ocr := NewOCRClient(server.URL, time.Second, testExecutor())
	text, err := ocr.ExtractText(context.Background(), sampleImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "AADHAAR 2345 6789 0124" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOCRClientRetriesThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	ocr := NewOCRClient(server.URL, time.Second, exec)
	text, err := ocr.ExtractText(context.Background(), sampleImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" || calls != 2 {
		t.Fatalf("expected one retry, got text %q after %d calls", text, calls)
	}
}

func TestOCRClientMarksOutageTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ocr := NewOCRClient(server.URL, time.Second, testExecutor())
	_, err := ocr.ExtractText(context.Background(), sampleImage())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary failure, got %v", err)
	}
}

func TestOCRClientPermanentRejectionIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unsupported image", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	ocr := NewOCRClient(server.URL, time.Second, testExecutor())
	_, err := ocr.ExtractText(context.Background(), sampleImage())
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("422 must not be temporary, got %v", err)
	}
}

func TestFaceClientCompare(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/compare" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for _, field := range []string{"document", "live"} {
			if _, _, err := r.FormFile(field); err != nil {
				t.Errorf("missing %s part: %v", field, err)
			}
		}
		w.Write([]byte(`{"matched":true,"score":87.5,"note":""}`))
	}))
	defer server.Close()

	faces := NewFaceClient(server.URL, time.Second, testExecutor())
	result, err := faces.Compare(context.Background(), sampleImage(), sampleImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Matched || result.Score != 87.5 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFaceClientSoftFailurePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"matched":false,"score":0,"note":"no face detected in live photo"}`))
	}))
	defer server.Close()

	faces := NewFaceClient(server.URL, time.Second, testExecutor())
	result, err := faces.Compare(context.Background(), sampleImage(), sampleImage())
	if err != nil {
		t.Fatalf("soft failure must not be an error: %v", err)
	}
	if result.Matched || result.Note != "no face detected in live photo" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRasterizerDecodesPage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage()); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/pdf" {
			t.Errorf("unexpected content type %s", got)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	rasterizer := NewRasterizer(server.URL, time.Second, testExecutor())
	img, err := rasterizer.RasterizeFirstPage(context.Background(), []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Fatalf("unexpected raster %v", img.Bounds())
	}
}

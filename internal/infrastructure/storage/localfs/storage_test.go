package localfs

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestStorageRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "sessions/s1/aadhaar.jpg", bytes.NewReader([]byte("raster"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := store.Open(ctx, "sessions/s1/aadhaar.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "raster" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "sessions/s1/aadhaar.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Open(ctx, "sessions/s1/aadhaar.jpg"); err == nil {
		t.Fatal("expected open to fail after delete")
	}
}

func TestStorageDeleteMissingKeyIsNoop(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Delete(context.Background(), "sessions/s1/gone.jpg"); err != nil {
		t.Fatalf("Delete() of missing key must be a no-op, got %v", err)
	}
}

func TestStorageRejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"../outside", "/etc/passwd", "."} {
		if err := store.Save(context.Background(), key, bytes.NewReader(nil)); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

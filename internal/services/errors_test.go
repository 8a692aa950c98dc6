package services_test

import (
	"errors"
	"fmt"
	"testing"

	"lectern/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("connection reset")
	err := services.Wrap(services.ErrTransfer, "videohost", "upload bytes", "remote closed stream", base)

	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransfer(t *testing.T) {
	err := services.Wrap(nil, "uploader", "transfer", "", nil)
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("nil marker should default to ErrTransfer, got %v", err)
	}
}

func TestWrapBuildsDetail(t *testing.T) {
	err := services.Wrap(services.ErrParse, "filename", "parse", "missing teacher code", nil)
	want := "parse failure: filename: parse: missing teacher code"
	if err.Error() != want {
		t.Fatalf("detail = %q, want %q", err.Error(), want)
	}
}

func TestIsAbort(t *testing.T) {
	abort := services.Wrap(services.ErrAborted, "uploader", "transfer", "paused by user", nil)
	if !services.IsAbort(abort) {
		t.Fatal("expected IsAbort to report true for wrapped ErrAborted")
	}
	if services.IsAbort(services.ErrTransfer) {
		t.Fatal("ErrTransfer must not classify as abort")
	}
}

package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrTransient, "collect", "fetch", "source 4", base)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "transient failure: collect: fetch: source 4: connection refused"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected default transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(Wrap(ErrTransient, "score", "oracle", "", nil)) {
		t.Fatal("transient errors must not be fatal")
	}
	if !IsFatal(Wrap(ErrUnavailable, "score", "load batch", "", nil)) {
		t.Fatal("store unavailable must be fatal")
	}
}

package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"resume-analyzer/internal/shared/storage/object"
)

func TestPutOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "owner/1/page-1.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("png-bytes")) {
		t.Fatalf("unexpected size %d", n)
	}

	rc, err := store.Open(ctx, "owner/1/page-1.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "png-bytes" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	_, err := New(t.TempDir()).Open(context.Background(), "owner/9/page-1.png")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../escape.png", "/abs/path.png", ""} {
		if _, err := store.Put(context.Background(), key, "image/png", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

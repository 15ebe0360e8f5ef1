package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"picture-analysis/internal/shared/storage/object"
)

func TestPutExistsOpen(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	ctx := context.Background()

	if ok, err := store.Exists(ctx, "snap-1/pic.png"); err != nil || ok {
		t.Fatalf("Exists before put = %v, %v", ok, err)
	}

	n, err := store.Put(ctx, object.Object{Key: "snap-1/pic.png", ContentType: "image/png"}, strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}
	if ok, err := store.Exists(ctx, "snap-1/pic.png"); err != nil || !ok {
		t.Fatalf("Exists after put = %v, %v", ok, err)
	}

	rc, err := store.Open(ctx, "snap-1/pic.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "pixels" {
		t.Fatalf("unexpected content %q", data)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "snap-1"))
	if len(entries) != 1 {
		t.Fatalf("expected only the archived file, found %d entries", len(entries))
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	_, err := New(t.TempDir()).Open(context.Background(), "nope.png")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsEscapingKeys(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../escape.png", "/abs/path.png", "", "a/../../b.png"} {
		if _, err := store.Put(context.Background(), object.Object{Key: key}, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

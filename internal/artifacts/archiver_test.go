package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"picture-analysis/internal/pictures"
	localstore "picture-analysis/internal/shared/storage/object/local"
)

func TestArchiveCopiesFileUnderSnapKey(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out-1.png")
	if err := os.WriteFile(src, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := localstore.New(filepath.Join(dir, "archive"))
	a := NewArchiver(store)
	source := "src-1"
	pic := pictures.Picture{ID: "out-1", Filename: "out-1.png", URI: src, SnapID: "snap-9", SourceImageID: &source}
	if err := a.Archive(context.Background(), pic); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	rc, err := store.Open(context.Background(), "snap-9/out-1.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "png-bytes" {
		t.Fatalf("unexpected archived content %q", got)
	}
}

func TestArchiveSkipsExistingKey(t *testing.T) {
	dir := t.TempDir()
	store := localstore.New(filepath.Join(dir, "archive"))
	a := NewArchiver(store)

	src := filepath.Join(dir, "a.png")
	if err := os.WriteFile(src, []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pic := pictures.Picture{ID: "a", Filename: "a.png", URI: src}
	if err := a.Archive(context.Background(), pic); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := os.WriteFile(src, []byte("second"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := a.Archive(context.Background(), pic); err != nil {
		t.Fatalf("second Archive: %v", err)
	}

	rc, err := store.Open(context.Background(), "unsnapped/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if got, _ := io.ReadAll(rc); string(got) != "first" {
		t.Fatalf("archive was overwritten: %q", got)
	}
}

func TestArchiveMissingFile(t *testing.T) {
	a := NewArchiver(localstore.New(t.TempDir()))
	err := a.Archive(context.Background(), pictures.Picture{ID: "x", Filename: "x.png", URI: "/does/not/exist.png"})
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestKeyDefaultsSnap(t *testing.T) {
	if got := Key(pictures.Picture{Filename: "a.png"}); got != "unsnapped/a.png" {
		t.Fatalf("unexpected key %q", got)
	}
}

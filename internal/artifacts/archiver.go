// Package artifacts mirrors derived picture files into the configured object store.
package artifacts

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"picture-analysis/internal/pictures"
	"picture-analysis/internal/shared/storage/object"
	"picture-analysis/internal/shared/telemetry"
)

type Archiver struct {
	Store object.Store
}

func NewArchiver(store object.Store) *Archiver {
	return &Archiver{Store: store}
}

// Key returns the object key for pic: snapID/filename.
func Key(pic pictures.Picture) string {
	snap := pic.SnapID
	if snap == "" {
		snap = "unsnapped"
	}
	return path.Join(snap, pic.Filename)
}

// Archive uploads the file at pic.URI under Key(pic). Pictures are immutable
// once saved, so a key that already exists is left alone.
func (a *Archiver) Archive(ctx context.Context, pic pictures.Picture) error {
	key := Key(pic)
	exists, err := a.Store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	if exists {
		telemetry.Debug("artifact.already_archived", map[string]any{"picture_id": pic.ID, "key": key})
		return nil
	}

	f, err := os.Open(pic.URI)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", pic.URI, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(pic.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	meta := map[string]string{"picture-id": pic.ID}
	if pic.GroupID != "" {
		meta["group-id"] = pic.GroupID
	}
	if pic.IsDerived() {
		meta["source-image-id"] = *pic.SourceImageID
	}

	size, err := a.Store.Put(ctx, object.Object{Key: key, ContentType: contentType, Metadata: meta}, f)
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	telemetry.Debug("artifact.archived", map[string]any{
		"picture_id": pic.ID,
		"key":        key,
		"size_bytes": size,
	})
	return nil
}

package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"picture-analysis/internal/shared/util"
)

// hashMark separates a sanitized prefix from the id digest. Plain ids never
// contain it, so an escaped name cannot equal a plain one.
const hashMark = "~"

// digestBytes of sha256 are kept in an escaped name.
const digestBytes = 8

const prefixBytes = util.MaxFileNameBytes - len(hashMark) - 2*digestBytes

// Builder derives output file names and paths for pictures.
type Builder struct {
	Dir string
	Ext string
}

// New returns a Builder rooted at dir using ext for every file.
func New(dir, ext string) Builder {
	if ext == "" {
		ext = ".png"
	}
	return Builder{Dir: dir, Ext: ext}
}

// BuildName returns the file name for a picture id. Distinct ids always get
// distinct names.
func (b Builder) BuildName(id string) (string, error) {
	name, err := element(id)
	if err != nil {
		return "", fmt.Errorf("build name for %q: %w", id, err)
	}
	return name + b.Ext, nil
}

// BuildPath returns Dir/snapID/filename and makes sure the snap directory exists.
func (b Builder) BuildPath(filename, snapID string) (string, error) {
	snapDir := "unsnapped"
	if snapID != "" {
		clean, err := element(snapID)
		if err != nil {
			return "", fmt.Errorf("build path for snap %q: %w", snapID, err)
		}
		snapDir = clean
	}
	dir := filepath.Join(b.Dir, snapDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return filepath.Join(dir, filename), nil
}

// StagePath returns a fresh hidden sibling of final with the same extension.
// Engines write there and the file is renamed to final once its document is saved.
func (b Builder) StagePath(final string) string {
	dir, base := filepath.Split(final)
	return filepath.Join(dir, ".stage-"+uuid.NewString()+"-"+base)
}

// element maps id to a single path element. Ids that are already safe are
// used as they are; anything sanitizing would alter gets a digest suffix.
func element(id string) (string, error) {
	clean, err := util.SanitizeFileName(id)
	if err != nil {
		return "", err
	}
	if clean == id && !strings.Contains(id, hashMark) {
		return id, nil
	}
	prefix := strings.ReplaceAll(clean, hashMark, "_")
	if len(prefix) > prefixBytes {
		prefix = strings.ToValidUTF8(prefix[:prefixBytes], "")
	}
	sum := sha256.Sum256([]byte(id))
	return prefix + hashMark + hex.EncodeToString(sum[:digestBytes]), nil
}

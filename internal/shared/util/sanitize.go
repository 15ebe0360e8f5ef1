package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxFileNameBytes caps a sanitized name; longer names are cut before the extension.
const MaxFileNameBytes = 128

var errBadFileName = errors.New("invalid file name")

// SanitizeFileName turns an id or upload name into a single path element.
// Separators become underscores and control characters are dropped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errBadFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" || s == "." {
		return "", errBadFileName
	}
	if len(s) > MaxFileNameBytes {
		ext := filepath.Ext(s)
		if len(ext) >= MaxFileNameBytes {
			ext = ""
		}
		s = strings.ToValidUTF8(s[:MaxFileNameBytes-len(ext)], "") + ext
	}
	return s, nil
}

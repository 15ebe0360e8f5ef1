package imaging

import (
	"path/filepath"
	"strings"
)

var decodable = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// SupportedFile reports whether name has an extension the codec reads.
func SupportedFile(name string) bool {
	_, ok := decodable[strings.ToLower(filepath.Ext(name))]
	return ok
}

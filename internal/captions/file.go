package captions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clicktrack/internal/fileutil"
)

// WriteFile writes captions to path, choosing SRT or ASS from the extension.
// Nothing is left at path when writing fails.
func WriteFile(path string, caps []Caption, header Header, layout Layout, totalMs float64) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt", ".ass", ".ssa":
	default:
		return fmt.Errorf("unsupported caption format %q", filepath.Ext(path))
	}
	return fileutil.WriteAtomic(path, func(f *os.File) error {
		if ext == ".srt" {
			return WriteSRT(f, caps)
		}
		return WriteASS(f, caps, header, layout, totalMs)
	})
}

package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Writer persists generated fragments.
type Writer struct {
	dirMode  os.FileMode
	fileMode os.FileMode
}

func NewWriter() *Writer {
	return &Writer{dirMode: 0755, fileMode: 0644}
}

// Write stores html at path, creating parent directories. The content is
// written to a temporary sibling first and renamed into place.
func (w *Writer) Write(path, html string) error {
	if !utf8.ValidString(html) {
		return fmt.Errorf("write %s: content is not valid UTF-8", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirMode); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, w.fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"script-translator/internal/config"
	"script-translator/internal/textutil"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// OutputExt is the extension of every generated fragment.
const OutputExt = ".html"

// Walker discovers script sources and maps them to destination paths.
type Walker struct {
	pattern string
	filter  *regexp.Regexp
	force   bool
}

// Options configures a Walker.
type Options struct {
	// Pattern is a doublestar pattern matched against the path relative to the source root.
	Pattern string
	// Filter, when set, is a regular expression that must match the source path.
	Filter string
	// Force disables the modification-time skip check.
	Force bool
}

// NewWalker creates a Walker. An invalid pattern or filter is reported here.
func NewWalker(opts Options) (*Walker, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = config.DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid source pattern: %q", pattern)
	}

	w := &Walker{pattern: pattern, force: opts.Force}
	if opts.Filter != "" {
		re, err := regexp.Compile(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("compile filter: %w", err)
		}
		w.filter = re
	}
	return w, nil
}

// FileEntry represents a discovered script ready for translation.
type FileEntry struct {
	Path string
	// Rel is the source path relative to the source root, slash separated.
	Rel  string
	Dest string
	// Skip is set when the destination is newer than the source.
	Skip bool
}

// Walk discovers all matching scripts under src and computes their
// destinations under dest, mirroring the directory layout.
func (w *Walker) Walk(src, dest string) ([]FileEntry, error) {
	root, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		entry, ok, err := w.Entry(root, path, dest)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping file")
			return nil
		}
		if ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered scripts")
	return entries, nil
}

// Entry builds the FileEntry for a single source file below root. The
// boolean is false when the file does not match the pattern or filter.
func (w *Walker) Entry(root, path, dest string) (FileEntry, bool, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return FileEntry{}, false, fmt.Errorf("compute relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)

	matched, err := doublestar.Match(w.pattern, rel)
	if err != nil || !matched {
		return FileEntry{}, false, err
	}
	if w.filter != nil && !w.filter.MatchString(path) {
		return FileEntry{}, false, nil
	}

	entry := FileEntry{
		Path: path,
		Rel:  rel,
		Dest: DestPath(dest, rel),
	}
	entry.Skip = !w.force && upToDate(path, entry.Dest)
	return entry, true, nil
}

// DestPath maps a slash-separated relative source path to its fragment path.
func DestPath(dest, rel string) string {
	dir, name := filepath.Split(filepath.FromSlash(rel))
	return filepath.Join(dest, dir, textutil.StripExt(name)+OutputExt)
}

// upToDate reports whether dest exists and is strictly newer than src.
func upToDate(src, dest string) bool {
	destInfo, err := os.Stat(dest)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	return destInfo.ModTime().After(srcInfo.ModTime())
}

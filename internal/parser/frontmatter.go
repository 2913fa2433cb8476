package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	frontMatterDelimiter = "---"
	episodePrefix        = "episode"
)

var episodeNumberPattern = regexp.MustCompile(`\d+`)

// frontMatter is what the header of a script yields besides its passthrough lines.
type frontMatter struct {
	EpisodeID string
	Meta      map[string]any
}

// readFrontMatter consumes the front matter block. Delimiter lines are
// dropped; every other header line is copied to out unchanged, including
// the episode declaration.
func readFrontMatter(src lineSource, out *strings.Builder, hint string) (*frontMatter, error) {
	if !skipUntil(src, isDelimiter) {
		return nil, fmt.Errorf("%w: front matter delimiter not found", ErrMalformedInput)
	}

	var header []string
	copyLine := func(line string) {
		header = append(header, line)
		out.WriteString(line)
		out.WriteByte('\n')
	}

	episodeLine, ok := copyUntil(src, isEpisodeLine, copyLine)
	if !ok {
		return nil, fmt.Errorf("%w: episode declaration not found", ErrMalformedInput)
	}
	copyLine(episodeLine)

	if _, ok := copyUntil(src, isDelimiter, copyLine); !ok {
		return nil, fmt.Errorf("%w: front matter is not closed", ErrMalformedInput)
	}

	id := episodeNumberPattern.FindString(episodeLine)
	if id == "" {
		id = strings.TrimSpace(hint)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: episode declaration %q has no number", ErrMalformedInput, episodeLine)
	}

	return &frontMatter{
		EpisodeID: id,
		Meta:      decodeMeta(header),
	}, nil
}

// decodeMeta reads the header as YAML. Script headers are only loosely
// YAML, so a decode failure is not an error.
func decodeMeta(lines []string) map[string]any {
	if len(lines) == 0 {
		return nil
	}
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &meta); err != nil {
		return nil
	}
	return meta
}

func isDelimiter(line string) bool { return strings.HasPrefix(line, frontMatterDelimiter) }

func isEpisodeLine(line string) bool { return strings.HasPrefix(line, episodePrefix) }

// skipUntil discards lines up to and including the first one matching stop.
func skipUntil(src lineSource, stop func(string) bool) bool {
	for {
		line, ok := src.Next()
		if !ok {
			return false
		}
		if stop(line) {
			return true
		}
	}
}

// copyUntil hands every line to emit until one matches stop, which is
// returned without being emitted.
func copyUntil(src lineSource, stop func(string) bool, emit func(string)) (string, bool) {
	for {
		line, ok := src.Next()
		if !ok {
			return "", false
		}
		if stop(line) {
			return line, true
		}
		emit(line)
	}
}

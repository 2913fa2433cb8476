package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestReadFrontMatter(t *testing.T) {
	src := &sliceSource{lines: []string{
		"junk before",
		"---",
		"title: The Harbor",
		"episode: 12 (part 3)",
		"layout: script",
		"---",
		"Alice: body",
	}}

	var out strings.Builder
	fm, err := readFrontMatter(src, &out, "")
	if err != nil {
		t.Fatalf("readFrontMatter: %v", err)
	}
	if fm.EpisodeID != "12" {
		t.Fatalf("EpisodeID = %q, want 12", fm.EpisodeID)
	}

	want := "title: The Harbor\nepisode: 12 (part 3)\nlayout: script\n"
	if out.String() != want {
		t.Fatalf("passthrough = %q, want %q", out.String(), want)
	}
	if strings.Contains(out.String(), "---") || strings.Contains(out.String(), "junk") {
		t.Fatalf("delimiter or preamble leaked: %q", out.String())
	}

	if fm.Meta["title"] != "The Harbor" || fm.Meta["layout"] != "script" {
		t.Fatalf("Meta = %v", fm.Meta)
	}

	next, ok := src.Next()
	if !ok || next != "Alice: body" {
		t.Fatalf("body not left for the main loop, got %q", next)
	}
}

func TestReadFrontMatterEpisodeDigits(t *testing.T) {
	tests := []struct {
		line string
		hint string
		want string
	}{
		{"episode: 7", "", "7"},
		{"episode_42_final 9", "", "42"},
		{"episode: 003", "", "003"},
		{"episode: none", "5", "5"},
		{"episode: 8", "5", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			src := &sliceSource{lines: []string{"---", tt.line, "---"}}
			var out strings.Builder
			fm, err := readFrontMatter(src, &out, tt.hint)
			if err != nil {
				t.Fatalf("readFrontMatter: %v", err)
			}
			if fm.EpisodeID != tt.want {
				t.Fatalf("EpisodeID = %q, want %q", fm.EpisodeID, tt.want)
			}
		})
	}
}

func TestReadFrontMatterMalformed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"empty", nil},
		{"no delimiter", []string{"title: x", "episode: 1"}},
		{"no episode", []string{"---", "title: x", "---", "Alice: hi"}},
		{"unclosed", []string{"---", "episode: 1", "title: x"}},
		{"episode without number", []string{"---", "episode: pilot", "---"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			_, err := readFrontMatter(&sliceSource{lines: tt.lines}, &out, "")
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("err = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestDecodeMetaToleratesNonYAML(t *testing.T) {
	if meta := decodeMeta([]string{"episode: [1", "title: x"}); meta != nil {
		t.Fatalf("decodeMeta = %v, want nil for invalid YAML", meta)
	}
	if meta := decodeMeta(nil); meta != nil {
		t.Fatalf("decodeMeta(nil) = %v, want nil", meta)
	}
}

package parser

import (
	"errors"
	"fmt"
)

// ErrMalformedInput reports that the front matter is missing, unterminated,
// or carries no usable episode id. The document produces no output.
var ErrMalformedInput = errors.New("malformed input")

// Kind is the category assigned to a single script line.
type Kind int

const (
	KindBlank Kind = iota
	KindModeToggle
	KindVerbatim
	KindZoneOpen
	KindZoneClose
	KindEvent
	KindNotice
	KindImage
	KindSerif
)

var kindNames = [...]string{
	KindBlank:      "blank",
	KindModeToggle: "mode-toggle",
	KindVerbatim:   "verbatim",
	KindZoneOpen:   "zone-open",
	KindZoneClose:  "zone-close",
	KindEvent:      "event",
	KindNotice:     "notice",
	KindImage:      "image",
	KindSerif:      "serif",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Classification is the result of classifying one line.
type Classification struct {
	Kind Kind
	// Text is the extracted payload: zone header, event/notice text,
	// image file name, serif content or the verbatim line.
	Text string
	// Speaker is set only for serif lines with a name prefix.
	Speaker string
	// HasSpeaker distinguishes "no colon" from an empty name before the colon.
	HasSpeaker bool
}

// State is threaded through the body loop of a single document.
type State struct {
	DirectCopy bool
	ZoneDepth  int
	// EpisodeID is set once from the front matter.
	EpisodeID string
}

// WarningKind identifies a non-fatal translation problem.
type WarningKind string

const (
	WarnUnclosedZone      WarningKind = "unclosed_zone"
	WarnUnbalancedZone    WarningKind = "unbalanced_zone_close"
	WarnDirectCopyOpen    WarningKind = "direct_copy_open"
	WarnUnterminatedImage WarningKind = "unterminated_image"
)

// Warning is reported alongside a successful translation.
type Warning struct {
	Kind WarningKind
	// Line is the 1-based source line, or 0 for end-of-input checks.
	Line    int
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Options tune a single translation.
type Options struct {
	// EpisodeHint is used when the episode line carries no digits.
	EpisodeHint string
}

// Result holds the translation of one document.
type Result struct {
	HTML      string
	EpisodeID string
	// Meta is the front matter decoded as YAML; nil when it does not decode.
	Meta     map[string]any
	Warnings []Warning
	// Lines is the total number of source lines consumed.
	Lines int
}

package parser

import (
	"regexp"
	"strings"
)

// ToggleMarker flips direct-copy mode when it makes up a whole line.
const ToggleMarker = "<>"

// DefaultImageExt is appended to image names without an extension.
const DefaultImageExt = ".png"

// ImagePathPrefix is left unresolved for the site templating stage.
const ImagePathPrefix = "{{site.baseurl}}{{page.resources_path}}{{page.resources_story_path}}"

var (
	zoneOpenPattern  = regexp.MustCompile(`^--\s*\(`)
	zoneClosePattern = regexp.MustCompile(`^--\s*$`)
	eventPattern     = regexp.MustCompile(`^--\s*[^(]`)
	noticePattern    = regexp.MustCompile(`^\[(.+)\]`)
	imagePattern     = regexp.MustCompile(`^!(.+)!$`)
	imageExtPattern  = regexp.MustCompile(`\.[[:alpha:]]+$`)
)

// Classifier assigns a Kind to each body line. It holds no state; the
// parser owns State and passes it in.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify applies the line rules in fixed precedence. The first matching
// rule wins because several shapes share the "--" prefix.
func (c *Classifier) Classify(line string, st *State) Classification {
	switch {
	case line == "":
		return Classification{Kind: KindBlank}
	case line == ToggleMarker:
		return Classification{Kind: KindModeToggle}
	case st.DirectCopy:
		return Classification{Kind: KindVerbatim, Text: line}
	case zoneOpenPattern.MatchString(line):
		return Classification{Kind: KindZoneOpen, Text: zoneHeader(line)}
	case zoneClosePattern.MatchString(line):
		return Classification{Kind: KindZoneClose}
	case eventPattern.MatchString(line):
		return Classification{Kind: KindEvent, Text: strings.TrimSpace(line[2:])}
	}

	if m := noticePattern.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindNotice, Text: strings.TrimSpace(m[1])}
	}
	if m := imagePattern.FindStringSubmatch(line); m != nil {
		return Classification{Kind: KindImage, Text: imageName(m[1])}
	}

	speaker, content, ok := strings.Cut(line, ":")
	if !ok {
		return Classification{Kind: KindSerif, Text: strings.TrimSpace(line)}
	}
	return Classification{
		Kind:       KindSerif,
		Speaker:    strings.TrimSpace(speaker),
		HasSpeaker: true,
		Text:       strings.TrimSpace(content),
	}
}

// Render produces the HTML fragment for a classified line, including its
// trailing newline. Mode toggles render to nothing.
func (c *Classifier) Render(cl Classification, episodeID string) string {
	switch cl.Kind {
	case KindBlank:
		return `<div class="delimeter" />` + "\n"
	case KindModeToggle:
		return ""
	case KindVerbatim:
		return cl.Text + "\n"
	case KindZoneOpen:
		return `<div class="zone"><div class="header">` + wrapContent(FormatInline(cl.Text)) + "</div>\n"
	case KindZoneClose:
		return "</div>\n"
	case KindEvent:
		return "\n" + `<div class="event">` + wrapContent(FormatInline(cl.Text)) + "</div>\n\n"
	case KindNotice:
		return "\n" + `<div class="notice">` + wrapContent(FormatInline(cl.Text)) + "</div>\n\n"
	case KindImage:
		return "\n" + `<div class="image"><img src="` + ImagePath(episodeID, cl.Text) + `" /></div>` + "\n\n"
	default:
		content := `<div class="content">` + FormatInline(cl.Text) + `</div>`
		if cl.HasSpeaker {
			return `<div class="serif"><div class="name">` + cl.Speaker + `</div>` + content + "</div>\n"
		}
		return `<div class="serif">` + content + "</div>\n"
	}
}

// ImagePath builds the templated asset path for an image in an episode.
func ImagePath(episodeID, name string) string {
	return ImagePathPrefix + "/ep" + episodeID + "/" + name
}

// zoneHeader returns the text between the first "(" and the first ")"
// after it, or the rest of the line when the parenthesis is never closed.
func zoneHeader(line string) string {
	_, rest, _ := strings.Cut(line, "(")
	header, _, _ := strings.Cut(rest, ")")
	return header
}

func imageName(raw string) string {
	name := strings.TrimSpace(raw)
	if !imageExtPattern.MatchString(name) {
		name += DefaultImageExt
	}
	return name
}

// looksLikeImage reports a line that opens an image marker but never
// closes it on the same line.
func looksLikeImage(line string) bool {
	return len(line) > 1 && strings.HasPrefix(line, "!") && !strings.HasSuffix(line, "!")
}

func wrapContent(s string) string {
	return `<span class="content">` + s + `</span>`
}

package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxLineSize = 4 * 1024 * 1024

// lineSource yields lines without their terminators.
type lineSource interface {
	Next() (string, bool)
	// Line is the 1-based number of the last line returned by Next.
	Line() int
}

type scannerSource struct {
	scanner *bufio.Scanner
	line    int
}

func newScannerSource(r io.Reader) *scannerSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &scannerSource{scanner: scanner}
}

func (s *scannerSource) Next() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	s.line++
	return s.scanner.Text(), true
}

func (s *scannerSource) Line() int { return s.line }

func (s *scannerSource) Err() error { return s.scanner.Err() }

type sliceSource struct {
	lines []string
	pos   int
}

func (s *sliceSource) Next() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := strings.TrimSuffix(strings.TrimSuffix(s.lines[s.pos], "\n"), "\r")
	s.pos++
	return line, true
}

func (s *sliceSource) Line() int { return s.pos }

// ScriptParser translates a single document. It must not be reused: each
// document gets a fresh parser and therefore a fresh State.
type ScriptParser struct {
	classifier *Classifier
	opts       Options
	state      State
	out        strings.Builder
	warnings   []Warning
}

// newScriptParser creates a parser for one document.
func newScriptParser(opts Options) *ScriptParser {
	return &ScriptParser{
		classifier: NewClassifier(),
		opts:       opts,
	}
}

// Translate converts a script read from r into HTML.
func Translate(r io.Reader, opts Options) (*Result, error) {
	src := newScannerSource(r)
	res, err := newScriptParser(opts).run(src)
	if scanErr := src.Err(); scanErr != nil {
		return nil, fmt.Errorf("scan script: %w", scanErr)
	}
	return res, err
}

// TranslateLines converts a script given as lines. Trailing line
// terminators on the elements are ignored.
func TranslateLines(lines []string, opts Options) (*Result, error) {
	return newScriptParser(opts).run(&sliceSource{lines: lines})
}

// TranslateFile opens and translates a script file.
func TranslateFile(path string, opts Options) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script file: %w", err)
	}
	defer file.Close()

	return Translate(file, opts)
}

func (p *ScriptParser) run(src lineSource) (*Result, error) {
	fm, err := readFrontMatter(src, &p.out, p.opts.EpisodeHint)
	if err != nil {
		return nil, err
	}
	p.state.EpisodeID = fm.EpisodeID

	for {
		line, ok := src.Next()
		if !ok {
			break
		}
		p.consume(line, src.Line())
	}
	p.finish()

	return &Result{
		HTML:      p.out.String(),
		EpisodeID: p.state.EpisodeID,
		Meta:      fm.Meta,
		Warnings:  p.warnings,
		Lines:     src.Line(),
	}, nil
}

func (p *ScriptParser) consume(line string, lineNum int) {
	cl := p.classifier.Classify(line, &p.state)

	switch cl.Kind {
	case KindModeToggle:
		p.state.DirectCopy = !p.state.DirectCopy
	case KindZoneOpen:
		p.state.ZoneDepth++
	case KindZoneClose:
		if p.state.ZoneDepth == 0 {
			p.warn(WarnUnbalancedZone, lineNum, "zone closed without a matching open")
		}
		p.state.ZoneDepth--
	case KindSerif:
		if looksLikeImage(line) {
			p.warn(WarnUnterminatedImage, lineNum, "image marker is not closed, rendered as dialogue")
		}
	}

	p.out.WriteString(p.classifier.Render(cl, p.state.EpisodeID))
}

func (p *ScriptParser) finish() {
	if p.state.ZoneDepth > 0 {
		p.warn(WarnUnclosedZone, 0, fmt.Sprintf("unclosed zone (depth %d)", p.state.ZoneDepth))
	}
	if p.state.DirectCopy {
		p.warn(WarnDirectCopyOpen, 0, "direct copy mode left open at end of input")
	}
}

func (p *ScriptParser) warn(kind WarningKind, line int, msg string) {
	p.warnings = append(p.warnings, Warning{Kind: kind, Line: line, Message: msg})
}

package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"script-translator/internal/filewalker"
	"script-translator/internal/manifest"
	"script-translator/internal/parser"
	"script-translator/internal/publish"
	"script-translator/internal/textutil"
	"script-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// Status is the outcome of building one script.
type Status string

const (
	StatusBuilt     Status = "built"
	StatusSkipped   Status = "skipped"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Outcome reports what happened to one discovered script.
type Outcome struct {
	Entry     filewalker.FileEntry
	Status    Status
	EpisodeID string
	Warnings  []parser.Warning
	Err       error
}

// Summary counts outcomes of a build.
type Summary struct {
	Built     int
	Skipped   int
	Unchanged int
	Failed    int
	Warnings  int
}

// Builder translates discovered scripts and writes their fragments.
type Builder struct {
	walker   *filewalker.Walker
	writer   *publish.Writer
	manifest *manifest.Manifest
	workers  int
	force    bool
}

// Options configures a Builder.
type Options struct {
	Workers int
	Force   bool
}

// NewBuilder creates a Builder. A nil manifest tracks builds in memory only.
func NewBuilder(w *filewalker.Walker, m *manifest.Manifest, opts Options) *Builder {
	if m == nil {
		m = manifest.New(nil)
	}
	return &Builder{
		walker:   w,
		writer:   publish.NewWriter(),
		manifest: m,
		workers:  opts.Workers,
		force:    opts.Force,
	}
}

// Run discovers every script under src and builds it into dest. Documents
// are independent: a failing one is reported and the rest still build.
func (b *Builder) Run(ctx context.Context, src, dest string) ([]Outcome, Summary, error) {
	entries, err := b.walker.Walk(src, dest)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("walk input directory: %w", err)
	}
	return b.BuildEntries(ctx, entries)
}

// BuildEntries builds the given entries with the worker pool.
func (b *Builder) BuildEntries(ctx context.Context, entries []filewalker.FileEntry) ([]Outcome, Summary, error) {
	pool := worker.NewPool[filewalker.FileEntry, Outcome](b.workers,
		func(ctx context.Context, entry filewalker.FileEntry) (Outcome, error) {
			out := b.Build(ctx, entry)
			return out, out.Err
		},
	)

	tasks := pool.Execute(ctx, entries)

	var summary Summary
	outcomes := make([]Outcome, 0, len(tasks))
	for _, task := range tasks {
		if !task.Done {
			continue
		}
		out := task.Result
		outcomes = append(outcomes, out)
		summary.Warnings += len(out.Warnings)
		switch out.Status {
		case StatusBuilt:
			summary.Built++
		case StatusSkipped:
			summary.Skipped++
		case StatusUnchanged:
			summary.Unchanged++
		case StatusFailed:
			summary.Failed++
		}
	}

	log.Info().
		Int("built", summary.Built).
		Int("skipped", summary.Skipped).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Int("warnings", summary.Warnings).
		Msg("Build complete")

	if err := ctx.Err(); err != nil {
		return outcomes, summary, err
	}
	if summary.Failed > 0 {
		return outcomes, summary, fmt.Errorf("%d of %d scripts failed", summary.Failed, len(entries))
	}
	return outcomes, summary, nil
}

// Build translates and writes a single script.
func (b *Builder) Build(ctx context.Context, entry filewalker.FileEntry) Outcome {
	out := Outcome{Entry: entry}
	logger := log.With().Str("file", entry.Path).Logger()

	if entry.Skip {
		logger.Debug().Msg("Source file was not updated, skipping")
		out.Status = StatusSkipped
		return out
	}

	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return b.fail(out, fmt.Errorf("read script: %w", err))
	}
	hash := textutil.Hash(data)

	if !b.force && b.manifest.Unchanged(entry.Dest, hash) && fileExists(entry.Dest) {
		logger.Debug().Msg("Source content unchanged, skipping")
		out.Status = StatusUnchanged
		return out
	}

	res, err := parser.Translate(bytes.NewReader(data), parser.Options{})
	if err != nil {
		return b.fail(out, fmt.Errorf("translate script: %w", err))
	}
	out.EpisodeID = res.EpisodeID
	out.Warnings = res.Warnings

	for _, w := range res.Warnings {
		logger.Warn().Str("kind", string(w.Kind)).Int("line", w.Line).Msg(w.Message)
	}

	if err := b.writer.Write(entry.Dest, res.HTML); err != nil {
		return b.fail(out, err)
	}

	if err := b.manifest.Record(ctx, manifest.Record{
		Dest:       entry.Dest,
		Source:     entry.Path,
		SourceHash: hash,
		EpisodeID:  res.EpisodeID,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to record build")
	}

	logger.Info().
		Str("output", entry.Dest).
		Str("episode", res.EpisodeID).
		Int("lines", res.Lines).
		Msg("Script translated")

	out.Status = StatusBuilt
	return out
}

func (b *Builder) fail(out Outcome, err error) Outcome {
	log.Error().Err(err).Str("file", out.Entry.Path).Msg("Script failed")
	out.Status = StatusFailed
	out.Err = err
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

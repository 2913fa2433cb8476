package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"script-translator/internal/filewalker"
	"script-translator/internal/manifest"
)

const episodeOne = `---
title: Pilot
episode: 1
---
Alice: Hello
!door!
`

func writeScript(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newBuilder(t *testing.T, m *manifest.Manifest, force bool) *Builder {
	t.Helper()
	w, err := filewalker.NewWalker(filewalker.Options{Force: force})
	if err != nil {
		t.Fatal(err)
	}
	return NewBuilder(w, m, Options{Workers: 2, Force: force})
}

func TestRunBuildsAndIsolatesFailures(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeScript(t, filepath.Join(src, "ep1.md"), episodeOne)
	writeScript(t, filepath.Join(src, "arc", "broken.md"), "Alice: no front matter\n")

	_, summary, err := newBuilder(t, nil, false).Run(context.Background(), src, dest)
	if err == nil {
		t.Fatal("expected error for failed script")
	}
	if summary.Built != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	html, err := os.ReadFile(filepath.Join(dest, "ep1.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(html), "/ep1/door.png") {
		t.Fatalf("output = %q", html)
	}
	if _, err := os.Stat(filepath.Join(dest, "arc", "broken.html")); !os.IsNotExist(err) {
		t.Fatalf("failed script produced output, stat err = %v", err)
	}
}

func TestRunSkipsUpToDate(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	srcPath := filepath.Join(src, "ep1.md")
	writeScript(t, srcPath, episodeOne)
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(srcPath, old, old); err != nil {
		t.Fatal(err)
	}

	b := newBuilder(t, nil, false)
	if _, summary, err := b.Run(context.Background(), src, dest); err != nil || summary.Built != 1 {
		t.Fatalf("first run: summary=%+v err=%v", summary, err)
	}
	if _, summary, err := b.Run(context.Background(), src, dest); err != nil || summary.Skipped != 1 {
		t.Fatalf("second run: summary=%+v err=%v", summary, err)
	}
}

func TestRunManifestSkipsTouchedButUnchanged(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dest := t.TempDir()
	srcPath := filepath.Join(src, "ep1.md")
	writeScript(t, srcPath, episodeOne)

	m, err := manifest.Open(ctx, filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer m.Close()

	b := newBuilder(t, m, false)
	if _, summary, err := b.Run(ctx, src, dest); err != nil || summary.Built != 1 {
		t.Fatalf("first run: summary=%+v err=%v", summary, err)
	}

	// Touch the source so it is newer than its output without changing it.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(srcPath, future, future); err != nil {
		t.Fatal(err)
	}
	if _, summary, err := b.Run(ctx, src, dest); err != nil || summary.Unchanged != 1 {
		t.Fatalf("touched run: summary=%+v err=%v", summary, err)
	}

	writeScript(t, srcPath, episodeOne+"Bob: new line\n")
	if err := os.Chtimes(srcPath, future.Add(time.Hour), future.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, summary, err := b.Run(ctx, src, dest); err != nil || summary.Built != 1 {
		t.Fatalf("edited run: summary=%+v err=%v", summary, err)
	}
}

func TestBuildReportsWarnings(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeScript(t, filepath.Join(src, "ep2.md"), "---\nepisode: 2\n---\n-- (Dock)\nBob: hi\n")

	outcomes, summary, err := newBuilder(t, nil, true).Run(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Warnings != 1 || len(outcomes) != 1 || outcomes[0].EpisodeID != "2" {
		t.Fatalf("summary = %+v, outcomes = %+v", summary, outcomes)
	}
}

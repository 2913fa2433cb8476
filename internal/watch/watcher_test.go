package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsChangedFiles(t *testing.T) {
	root := t.TempDir()
	changed := make(chan []string, 4)

	w, err := New(root, 50*time.Millisecond, func(ctx context.Context, paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	path := filepath.Join(root, "ep1.md")
	if err := os.WriteFile(path, []byte("---\nepisode: 1\n---\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 1 || paths[0] != path {
			t.Fatalf("paths = %v, want [%s]", paths, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	changed := make(chan []string, 8)

	w, err := New(root, 50*time.Millisecond, func(ctx context.Context, paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	sub := filepath.Join(root, "season2")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "ep2.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == path {
					return
				}
			}
		case <-deadline:
			t.Fatal("change in new directory not reported")
		}
	}
}

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestExecutePreservesOrder(t *testing.T) {
	p := NewPool(4, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})

	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	results := p.Execute(context.Background(), inputs)
	if len(results) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(results), len(inputs))
	}
	for i, r := range results {
		if !r.Done || r.Input != inputs[i] || r.Result != inputs[i]*inputs[i] {
			t.Fatalf("result %d = %+v", i, r)
		}
	}
}

func TestExecuteIsolatesErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool(2, func(ctx context.Context, s string) (string, error) {
		if s == "bad" {
			return "", boom
		}
		return s + "!", nil
	})

	results := p.Execute(context.Background(), []string{"a", "bad", "c"})
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("results[1].Err = %v", results[1].Err)
	}
	if results[0].Result != "a!" || results[2].Result != "c!" {
		t.Fatalf("healthy tasks affected: %+v", results)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	p := NewPool(1, func(ctx context.Context, n int) (int, error) {
		ran.Add(1)
		return n, nil
	})
	results := p.Execute(ctx, []int{1, 2, 3})
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if ran.Load() != 0 {
		t.Fatalf("cancelled pool ran %d inputs", ran.Load())
	}
	for _, r := range results {
		if !r.Done && r.Err != nil {
			t.Fatalf("unstarted task has error: %+v", r)
		}
	}
}

func TestExecuteEmpty(t *testing.T) {
	p := NewPool(3, func(ctx context.Context, n int) (int, error) { return n, nil })
	if got := p.Execute(context.Background(), nil); len(got) != 0 {
		t.Fatalf("got %d results", len(got))
	}
}

package reqcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFreshHitSkipsFetch(t *testing.T) {
	g := New(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return "v1", nil
	}

	v, err := g.Do(context.Background(), "k", true, fetch)
	if err != nil || v != "v1" {
		t.Fatalf("unexpected first result: %v %v", v, err)
	}
	v, err = g.Do(context.Background(), "k", true, fetch)
	if err != nil || v != "v1" {
		t.Fatalf("unexpected cached result: %v %v", v, err)
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}

func TestExpiredEntryRefetches(t *testing.T) {
	g := New(time.Minute)
	now := time.Now()
	g.nowFn = func() time.Time { return now }

	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}
	if _, err := g.Do(context.Background(), "k", true, fetch); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	v, err := g.Do(context.Background(), "k", true, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 || calls != 2 {
		t.Fatalf("expected stale entry refetched, got v=%v calls=%d", v, calls)
	}
}

func TestBypassSkipsCacheWrite(t *testing.T) {
	g := New(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}
	if _, err := g.Do(context.Background(), "k", false, fetch); err != nil {
		t.Fatal(err)
	}
	v, err := g.Do(context.Background(), "k", false, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 || calls != 2 {
		t.Fatalf("expected bypass to always fetch, got v=%v calls=%d", v, calls)
	}
}

func TestSupersedeCancelsPrior(t *testing.T) {
	g := New(time.Minute)
	started := make(chan struct{})
	firstErr := make(chan error, 1)

	go func() {
		_, err := g.Do(context.Background(), "k", true, func(fctx context.Context) (any, error) {
			close(started)
			<-fctx.Done()
			return nil, fctx.Err()
		})
		firstErr <- err
	}()
	<-started

	v, err := g.Do(context.Background(), "k", true, func(fctx context.Context) (any, error) {
		return "fresh", nil
	})
	if err != nil || v != "fresh" {
		t.Fatalf("superseding request should win: %v %v", v, err)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded for the canceled request, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded request never settled")
	}

	// the winner's value must be the one cached
	v, err = g.Do(context.Background(), "k", true, func(fctx context.Context) (any, error) {
		return "should not run", nil
	})
	if err != nil || v != "fresh" {
		t.Fatalf("expected winner's value cached, got %v %v", v, err)
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	g := New(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}
	if _, err := g.Do(context.Background(), "k", true, fetch); err != nil {
		t.Fatal(err)
	}
	g.Invalidate("k")
	v, err := g.Do(context.Background(), "k", true, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Fatalf("expected refetch after invalidate, got %v", v)
	}
}

func TestTypedDo(t *testing.T) {
	g := New(time.Minute)
	v, err := Do(context.Background(), g, "k", true, func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 2 || v[0] != "a" {
		t.Fatalf("unexpected typed result: %v", v)
	}
}

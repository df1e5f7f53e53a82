package trellis

import (
	"context"
	"errors"
	"testing"
)

func TestFrameCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewFrameCache(NewMemoryBackend(), "cache")

	tbl := mustTable(t, "joined",
		[]string{"Store", "Date", "Sales", "Open", "Type"},
		[]Value{Int(1), day(1), Float(99.5), Bool(true), Str("a")},
		[]Value{Int(2), day(2), Float(12.25), Bool(false), Null()},
	)
	if err := cache.Put(ctx, "joined", tbl); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "joined")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get missed a just-written entry")
	}
	if got.Name() != "joined" || got.NumRows() != 2 || got.NumCols() != 5 {
		t.Fatalf("shape %q %dx%d, want joined 2x5", got.Name(), got.NumRows(), got.NumCols())
	}
	for r := 0; r < tbl.NumRows(); r++ {
		for c := 0; c < tbl.NumCols(); c++ {
			want, have := tbl.At(r, c), got.At(r, c)
			if want.Kind() != have.Kind() || (!want.IsNull() && !want.Equal(have)) {
				t.Errorf("cell [%d,%d] = %v (%v), want %v (%v)",
					r, c, have, have.Kind(), want, want.Kind())
			}
		}
	}
}

func TestFrameCacheMiss(t *testing.T) {
	cache := NewFrameCache(NewMemoryBackend(), "cache")
	_, ok, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get reported a hit for an absent entry")
	}
}

func TestFrameCacheGetOrBuild(t *testing.T) {
	ctx := context.Background()
	cache := NewFrameCache(NewMemoryBackend(), "cache")

	builds := 0
	build := func() (*Table, error) {
		builds++
		return mustTable(t, "derived", []string{"K"}, []Value{Int(42)}), nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.GetOrBuild(ctx, "derived", build)
		if err != nil {
			t.Fatalf("GetOrBuild: %v", err)
		}
		if cellInt(t, got, 0, "K") != 42 {
			t.Fatal("wrong cached content")
		}
	}
	if builds != 1 {
		t.Errorf("build ran %d times, want 1", builds)
	}

	boom := errors.New("boom")
	if _, err := cache.GetOrBuild(ctx, "failing", func() (*Table, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Errorf("build error = %v, want boom", err)
	}
}

func TestFrameCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewFrameCache(NewMemoryBackend(), "cache")

	tbl := mustTable(t, "x", []string{"K"}, []Value{Int(1)})
	if err := cache.Put(ctx, "x", tbl); err != nil {
		t.Fatal(err)
	}
	if err := cache.Invalidate(ctx, "x"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "x"); ok {
		t.Error("entry survived invalidation")
	}
	// Invalidating again is not an error.
	if err := cache.Invalidate(ctx, "x"); err != nil {
		t.Errorf("second Invalidate: %v", err)
	}
}

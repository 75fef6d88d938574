package index

import (
	"testing"

	"github.com/aretw0/collist/pkg/core"
)

func TestCache_Lookup(t *testing.T) {
	snap := core.NewSnapshot(
		core.NewSection("a", "x", "y"),
		core.NewSection("b", "z"),
	)
	c := New[string](8)

	path, ok := c.Lookup(snap, "z")
	if !ok || path != core.Path(1, 0) {
		t.Fatalf("expected [1,0], got %v (found=%v)", path, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", c.Len())
	}

	// A stale snapshot is answered from the cache until Reset.
	moved := core.NewSnapshot(core.NewSection("b", "z"))
	path, _ = c.Lookup(moved, "z")
	if path != core.Path(1, 0) {
		t.Errorf("expected cached answer [1,0], got %v", path)
	}

	c.Reset()
	path, ok = c.Lookup(moved, "z")
	if !ok || path != core.Path(0, 0) {
		t.Errorf("expected [0,0] after reset, got %v", path)
	}

	if _, ok := c.Lookup(moved, "missing"); ok {
		t.Error("expected miss for unknown object")
	}
}

func TestCache_Disabled(t *testing.T) {
	snap := core.NewSnapshot(core.NewSection("a", 1, 2, 3))
	c := New[int](0)

	path, ok := c.Lookup(snap, 3)
	if !ok || path != core.Path(0, 2) {
		t.Fatalf("expected [0,2], got %v", path)
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache must stay empty, got %d", c.Len())
	}

	var nilCache *Cache[int]
	if _, ok := nilCache.Lookup(snap, 1); !ok {
		t.Error("nil cache must fall back to a scan")
	}
	nilCache.Reset()
}

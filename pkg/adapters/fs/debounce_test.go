package fs

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_Coalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var calls, last atomic.Int32

	for i := range 5 {
		d.add("a", func() {
			calls.Add(1)
			last.Store(int32(i))
		})
	}
	d.add("b", func() { calls.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want one per key", got)
	}
	if got := last.Load(); got != 4 {
		t.Errorf("last call = %d, want the latest one", got)
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := newDebouncer(time.Hour)
	var calls atomic.Int32
	d.add("a", func() { calls.Add(1) })

	if !d.stopAndWait(time.Second) {
		t.Fatal("stopAndWait timed out")
	}
	d.add("b", func() { calls.Add(1) })
	if calls.Load() != 0 {
		t.Error("pending and late calls must be dropped")
	}
}

package sorted

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/aretw0/collist/pkg/array"
	"github.com/aretw0/collist/pkg/core"
	"github.com/aretw0/collist/pkg/diff"
	"github.com/aretw0/collist/pkg/notify"
)

type entry struct {
	label string
	key   int
}

func (e *entry) String() string { return e.label }

var byEntryKey = ByKey(func(e *entry) int { return e.key })

func sources[T comparable](cs ...*array.Collection[T]) []core.Collection[T] {
	out := make([]core.Collection[T], len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

func TestSorted_MoveOnKeyChange(t *testing.T) {
	one, two, three := &entry{"1", 1}, &entry{"2", 2}, &entry{"3", 3}
	src := array.NewList([]*entry{three, one, two})
	view := New(sources(src), Rules[*entry]{Compare: byEntryKey})
	rec := notify.NewRecorder[*entry]()
	view.AddObserver(rec)

	if got := fmt.Sprint(view.Objects()); got != "[1 2 3]" {
		t.Fatalf("initial order = %s, want [1 2 3]", got)
	}

	before := view.Snapshot()
	one.key = 5
	p, _ := src.IndexPathOf(one)
	if err := src.ReplaceObjectAt(p, one); err != nil {
		t.Fatal(err)
	}

	if got := fmt.Sprint(view.Objects()); got != "[2 3 1]" {
		t.Fatalf("order after key change = %s, want [2 3 1]", got)
	}
	batch, _ := rec.Last()
	if len(batch.Changes) != 1 {
		t.Fatalf("expected a single record, got %v", batch)
	}
	ch := batch.Changes[0]
	if ch.Kind != core.ObjectMoved || ch.Object != one || ch.Old != core.Path(0, 0) || ch.New != core.Path(0, 2) {
		t.Errorf("unexpected record %v", ch)
	}
	got, err := diff.Apply(before, batch.Changes)
	if err != nil || !got.Equal(view.Snapshot()) {
		t.Errorf("round trip failed: %v, %v", got, err)
	}
}

func TestSorted_UpdateWithoutReorder(t *testing.T) {
	a, b := &entry{"a", 1}, &entry{"b", 2}
	src := array.NewList([]*entry{a, b})
	view := New(sources(src), Rules[*entry]{Compare: byEntryKey})
	rec := notify.NewRecorder[*entry]()
	view.AddObserver(rec)

	if err := src.ReplaceObjectAt(core.Path(0, 1), b); err != nil {
		t.Fatal(err)
	}
	batch, _ := rec.Last()
	if len(batch.Changes) != 1 || batch.Changes[0].Kind != core.ObjectUpdated {
		t.Errorf("expected a single update, got %v", batch)
	}
}

func TestSorted_StableTies(t *testing.T) {
	x, y, z := &entry{"x", 1}, &entry{"y", 0}, &entry{"z", 1}
	src := array.NewList([]*entry{x, y, z})
	view := New(sources(src), Rules[*entry]{Compare: byEntryKey})

	if got := fmt.Sprint(view.Objects()); got != "[y x z]" {
		t.Errorf("ties must keep source order, got %s", got)
	}
}

func TestSorted_MergeSources(t *testing.T) {
	left, _ := array.New([]core.Section[string]{
		core.NewSection("fruit", "pear", "apple"),
		core.NewSection("veg", "leek"),
	})
	right, _ := array.New([]core.Section[string]{
		core.NewSection("nuts", "pecan"),
		core.NewSection("fruit", "banana"),
	})
	view := New(sources(left, right), Rules[string]{Compare: Ascending[string]})
	rec := notify.NewRecorder[string]()
	view.AddObserver(rec)

	want := core.NewSnapshot(
		core.NewSection("fruit", "apple", "banana", "pear"),
		core.NewSection("veg", "leek"),
		core.NewSection("nuts", "pecan"),
	)
	if !view.Snapshot().Equal(want) {
		t.Fatalf("merged snapshot = %v, want %v", view.Snapshot(), want)
	}

	before := view.Snapshot()
	if err := right.AppendObject(1, "cherry"); err != nil {
		t.Fatal(err)
	}
	batch, _ := rec.Last()
	if len(batch.Changes) != 1 || batch.Changes[0].Kind != core.ObjectInserted || batch.Changes[0].New != core.Path(0, 2) {
		t.Fatalf("expected cherry inserted at [0,2], got %v", batch)
	}
	got, err := diff.Apply(before, batch.Changes)
	if err != nil || !got.Equal(view.Snapshot()) {
		t.Errorf("round trip failed: %v, %v", got, err)
	}

	// A section only the right source contributes disappears with it.
	if _, err := right.RemoveSectionAt(0); err != nil {
		t.Fatal(err)
	}
	batch, _ = rec.Last()
	if batch.Count(core.SectionDeleted) != 1 {
		t.Errorf("expected the nuts section to be deleted, got %v", batch)
	}
}

func TestSorted_TitleFromRemainingSource(t *testing.T) {
	left, _ := array.New([]core.Section[string]{{ID: "fruit", Title: "Fruit", Objects: []string{"apple"}}})
	right, _ := array.New([]core.Section[string]{{ID: "fruit", Title: "Produce", Objects: []string{"pear"}}})
	view := New(sources(left, right), Rules[string]{Compare: Ascending[string]})
	rec := notify.NewRecorder[string]()
	view.AddObserver(rec)

	if got := view.Sections()[0].Title; got != "Fruit" {
		t.Fatalf("unified section title = %q, want the first source's", got)
	}

	before := view.Snapshot()
	if _, err := left.RemoveSectionAt(0); err != nil {
		t.Fatal(err)
	}
	if got := view.Sections()[0].Title; got != "Produce" {
		t.Fatalf("title = %q after removing the left section, want Produce", got)
	}
	batch, _ := rec.Last()
	got, err := diff.Apply(before, batch.Changes)
	if err != nil || !got.Equal(view.Snapshot()) {
		t.Errorf("round trip failed: got %v (%v), want %v; batch %v", got, err, view.Snapshot(), batch)
	}
}

func TestSorted_SectionKey(t *testing.T) {
	src := array.NewList([]string{"beta", "alpha", "bravo", "apple"})
	initial := func(s string) string { return strings.ToUpper(s[:1]) }
	view := New(sources(src), Rules[string]{Compare: Ascending[string], SectionKey: initial})
	rec := notify.NewRecorder[string]()
	view.AddObserver(rec)

	want := core.NewSnapshot(
		core.Section[string]{ID: "A", Title: "A", Objects: []string{"alpha", "apple"}},
		core.Section[string]{ID: "B", Title: "B", Objects: []string{"beta", "bravo"}},
	)
	if !view.Snapshot().Equal(want) {
		t.Fatalf("grouped snapshot = %v, want %v", view.Snapshot(), want)
	}

	if err := src.AppendObject(0, "charlie"); err != nil {
		t.Fatal(err)
	}
	batch, _ := rec.Last()
	if batch.Count(core.SectionInserted) != 1 || batch.Changes[0].Section == nil || batch.Changes[0].Section.Objects[0] != "charlie" {
		t.Errorf("expected a new C section carrying charlie, got %v", batch)
	}
}

func TestSorted_SetComparator(t *testing.T) {
	src := array.NewList([]int{3, 1, 2})
	view := New(sources(src), Rules[int]{Compare: Ascending[int]})
	rec := notify.NewRecorder[int]()
	view.AddObserver(rec)

	before := view.Snapshot()
	if err := view.SetComparator(Reverse(Ascending[int])); err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(view.Objects()); got != "[3 2 1]" {
		t.Fatalf("reversed order = %s", got)
	}
	batch, _ := rec.Last()
	if batch.Count(core.ObjectMoved) != 2 {
		t.Errorf("reversing three objects takes two moves, got %v", batch)
	}
	got, err := diff.Apply(before, batch.Changes)
	if err != nil || !got.Equal(view.Snapshot()) {
		t.Errorf("round trip failed: %v, %v", got, err)
	}

	if err := view.SetComparator(nil); err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(view.Objects()); got != "[3 1 2]" {
		t.Errorf("nil comparator must keep source order, got %s", got)
	}
}

func TestSorted_Close(t *testing.T) {
	a := array.NewList([]int{1})
	b := array.NewList([]int{2})
	view := New(sources(a, b), Rules[int]{})
	if err := view.Close(); err != nil {
		t.Fatal(err)
	}
	_ = a.AppendObject(0, 3)
	if view.Snapshot().Len() != 2 {
		t.Error("closed view must ignore source changes")
	}
	if err := view.Close(); !errors.Is(err, core.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := view.SetComparator(Ascending[int]); !errors.Is(err, core.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if st := view.State().(core.CollectionState); st.Sources != 2 || !st.Closed {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestComparators(t *testing.T) {
	byLen := ByKey(func(s string) int { return len(s) })
	cmp := Then(byLen, Ascending[string])
	if cmp("bb", "a") <= 0 || cmp("ab", "aa") <= 0 || cmp("aa", "aa") != 0 {
		t.Error("Then must order by length, then lexically")
	}
	if Reverse(byLen)("a", "bb") <= 0 {
		t.Error("Reverse must invert")
	}
}

// TestSorted_RandomMutations checks the sort stability and round-trip properties with
// two sources sharing section IDs.
func TestSorted_RandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 1))
	mk := func(prefix string) *array.Collection[*entry] {
		c, _ := array.New([]core.Section[*entry]{
			core.NewSection[*entry]("even"),
			core.NewSection[*entry]("odd"),
		})
		for i := range 4 {
			_ = c.AppendObject(i%2, &entry{fmt.Sprintf("%s%d", prefix, i), rng.IntN(5)})
		}
		return c
	}
	left, right := mk("l"), mk("r")
	rules := Rules[*entry]{Compare: byEntryKey}
	view := New(sources(left, right), rules)
	rec := notify.NewRecorder[*entry]()
	view.AddObserver(rec)

	seq := 0
	for i := 0; i < 300; i++ {
		src := left
		if rng.IntN(2) == 0 {
			src = right
		}
		snap := src.Snapshot()
		s := rng.IntN(2)
		n := snap.Sections[s].Len()
		op := rng.IntN(4)
		if n == 0 {
			op = 0
		}

		before := view.Snapshot()
		switch op {
		case 0:
			seq++
			_ = src.InsertObjects(core.Path(s, rng.IntN(n+1)), &entry{fmt.Sprintf("n%d", seq), rng.IntN(5)})
		case 1:
			_, _ = src.RemoveObjectAt(core.Path(s, rng.IntN(n)))
		case 2:
			obj, _ := src.Object(core.Path(s, rng.IntN(n)))
			obj.key = rng.IntN(5)
			p, _ := src.IndexPathOf(obj)
			_ = src.ReplaceObjectAt(p, obj)
		case 3:
			to := 1 - s
			_ = src.MoveObject(core.Path(s, rng.IntN(n)), core.Path(to, rng.IntN(snap.Sections[to].Len()+1)))
		}

		want := rules.Apply(left.Snapshot(), right.Snapshot())
		if !view.Snapshot().Equal(want) {
			t.Fatalf("step %d: sorted %v, want %v", i, view.Snapshot(), want)
		}
		batch, _ := rec.Last()
		got, err := diff.Apply(before, batch.Changes)
		if err != nil {
			t.Fatalf("step %d: apply failed: %v", i, err)
		}
		if !got.Equal(want) {
			t.Fatalf("step %d: round trip %v, want %v", i, got, want)
		}
	}
}

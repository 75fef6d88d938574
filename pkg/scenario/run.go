package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/collist/internal/platform"
	"github.com/aretw0/collist/pkg/adapters/metrics"
	"github.com/aretw0/collist/pkg/array"
	"github.com/aretw0/collist/pkg/core"
	"github.com/aretw0/collist/pkg/diff"
	"github.com/aretw0/collist/pkg/filtered"
	"github.com/aretw0/collist/pkg/notify"
	"github.com/aretw0/collist/pkg/sorted"
)

// ErrVerify is returned when a published batch does not replay onto the previous
// snapshot of its collection.
var ErrVerify = errors.New("batch does not reproduce the collection state")

// Options control a replay.
type Options struct {
	// Verify replays every batch with diff.Apply and compares the result with the
	// collection state.
	Verify bool
	Logger *slog.Logger
	// Metrics, when set, records every collection of the run.
	Metrics *metrics.Metrics
}

// Record is the printable form of a change record.
type Record struct {
	Kind    string `json:"kind"`
	Section string `json:"section,omitempty"`
	Object  string `json:"object,omitempty"`
	Old     string `json:"old,omitempty"`
	New     string `json:"new,omitempty"`
}

// Emission is one batch published by one collection.
type Emission struct {
	Collection string   `json:"collection"`
	Records    []Record `json:"records"`
}

// StepReport lists the batches published while a step ran, in delivery order.
type StepReport struct {
	Index     int        `json:"index"`
	Step      string     `json:"step"`
	Emissions []Emission `json:"emissions"`
}

// Final is the state of one collection after the last step.
type Final struct {
	Collection string        `json:"collection"`
	Sections   []SectionSpec `json:"sections"`
}

// Report is the outcome of a replay.
type Report struct {
	Name  string       `json:"name,omitempty"`
	Steps []StepReport `json:"steps"`
	Final []Final      `json:"final"`
}

// Run builds the collections of s, applies its steps and reports what each collection
// published. On failure the report covers the steps completed so far.
func Run(ctx context.Context, s *Scenario, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &runner{
		opts:   opts,
		logger: logger,
		report: &Report{Name: s.Name},
		byName: make(map[string]core.Collection[string]),
	}
	defer r.close()

	root, err := r.build(s)
	if err != nil {
		return r.report, err
	}

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		r.current = &StepReport{Index: i, Step: st.String()}
		logger.Debug("running step", "index", i, "step", st.String())

		if err := apply(root, st); err != nil {
			return r.report, fmt.Errorf("step %d (%s): %w", i, st, err)
		}
		if r.err != nil {
			return r.report, fmt.Errorf("step %d (%s): %w", i, st, r.err)
		}
		r.report.Steps = append(r.report.Steps, *r.current)
	}

	for _, name := range r.order {
		r.report.Final = append(r.report.Final, Final{
			Collection: name,
			Sections:   sectionSpecs(r.byName[name].Snapshot()),
		})
	}
	return r.report, nil
}

type runner struct {
	opts    Options
	logger  *slog.Logger
	report  *Report
	current *StepReport
	byName  map[string]core.Collection[string]
	order   []string
	cleanup []func()
	err     error
}

func (r *runner) build(s *Scenario) (*array.Collection[string], error) {
	sections := make([]core.Section[string], len(s.Sections))
	for i, sec := range s.Sections {
		sections[i] = core.Section[string]{ID: sec.ID, Title: sec.Title, Objects: sec.Objects}
	}
	root, err := array.New(sections, r.collectionOptions(RootName)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	r.attach(RootName, root)

	for _, v := range s.Views {
		srcs := make([]core.Collection[string], 0, len(v.sources()))
		for _, name := range v.sources() {
			src, ok := r.byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: view %q: unknown source %q", ErrInvalid, v.Name, name)
			}
			srcs = append(srcs, src)
		}

		switch v.Kind {
		case KindFilter:
			rules, err := filterRules(v)
			if err != nil {
				return nil, err
			}
			view := filtered.New(srcs[0], rules, r.collectionOptions(v.Name)...)
			r.cleanup = append(r.cleanup, func() { _ = view.Close() })
			r.attach(v.Name, view)
		case KindSort:
			view := sorted.New(srcs, sortRules(v), r.collectionOptions(v.Name)...)
			r.cleanup = append(r.cleanup, func() { _ = view.Close() })
			r.attach(v.Name, view)
		default:
			return nil, fmt.Errorf("%w: view %q: unknown kind %q", ErrInvalid, v.Name, v.Kind)
		}
	}
	return root, nil
}

func (r *runner) collectionOptions(name string) []platform.Option {
	return []platform.Option{platform.WithName(name), platform.WithLogger(r.logger)}
}

// attach subscribes the recording tap, and the metrics observer when configured.
// Taps are attached right after construction so the root reports before its views.
func (r *runner) attach(name string, c core.Collection[string]) {
	t := &tap{Recorder: notify.NewRecorder[string](), name: name, coll: c, prev: c.Snapshot(), run: r}
	c.AddObserver(t)
	r.byName[name] = c
	r.order = append(r.order, name)
	if r.opts.Metrics != nil {
		r.cleanup = append(r.cleanup, metrics.Observe(r.opts.Metrics, name, c))
	}
}

func (r *runner) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
	r.cleanup = nil
}

func (r *runner) emit(name string, b core.Batch[string]) {
	if r.current == nil {
		return
	}
	records := make([]Record, len(b.Changes))
	for i, c := range b.Changes {
		records[i] = record(c)
	}
	r.current.Emissions = append(r.current.Emissions, Emission{Collection: name, Records: records})
}

// tap records the batches of one collection and optionally verifies them.
type tap struct {
	*notify.Recorder[string]
	name string
	coll core.Collection[string]
	prev core.Snapshot[string]
	run  *runner
}

func (t *tap) DidChangeContent() {
	t.Recorder.DidChangeContent()
	if err := t.Err(); err != nil && t.run.err == nil {
		t.run.err = fmt.Errorf("%s: %w", t.name, err)
	}
	b, ok := t.Last()
	if !ok {
		return
	}
	snap := t.coll.Snapshot()
	if t.run.opts.Verify && t.run.err == nil {
		got, err := diff.Apply(t.prev, b.Changes)
		switch {
		case err != nil:
			t.run.err = fmt.Errorf("%s: %w: %v", t.name, ErrVerify, err)
		case !got.Equal(snap):
			t.run.err = fmt.Errorf("%s: %w: got %v, want %v", t.name, ErrVerify, got, snap)
		}
	}
	t.prev = snap
	t.run.emit(t.name, b)
}

func filterRules(v ViewSpec) (filtered.Rules[string], error) {
	var rules filtered.Rules[string]
	if v.Pattern != "" {
		match, err := filtered.Glob(v.Pattern)
		if err != nil {
			return rules, fmt.Errorf("%w: view %q: %v", ErrInvalid, v.Name, err)
		}
		if v.Exclude {
			match = filtered.Not(match)
		}
		rules.Object = match
	}
	if len(v.Sections) > 0 {
		keep := make(map[string]bool, len(v.Sections))
		for _, id := range v.Sections {
			keep[id] = true
		}
		rules.Section = func(s core.Section[string]) bool { return keep[s.ID] }
	}
	if v.DropEmpty {
		rules.Empty = filtered.DropEmpty
	}
	return rules, nil
}

func sortRules(v ViewSpec) sorted.Rules[string] {
	rules := sorted.Rules[string]{Compare: sorted.Ascending[string]}
	if v.Order == "desc" {
		rules.Compare = sorted.Reverse(rules.Compare)
	}
	if v.Group == "initial" {
		rules.SectionKey = initial
	}
	return rules
}

func initial(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return "#"
	}
	return string(unicode.ToUpper(r))
}

func apply(root *array.Collection[string], st Step) error {
	switch st.Op {
	case OpInsert:
		return root.InsertObjects(core.Path(st.Section, st.Item), st.Objects...)
	case OpAppend:
		return root.Update(func(c *array.Collection[string]) error {
			for _, obj := range st.Objects {
				if err := c.AppendObject(st.Section, obj); err != nil {
					return err
				}
			}
			return nil
		})
	case OpRemove:
		_, err := root.RemoveObjectAt(core.Path(st.Section, st.Item))
		return err
	case OpReplace:
		return root.ReplaceObjectAt(core.Path(st.Section, st.Item), st.Objects[0])
	case OpMove:
		return root.MoveObject(core.Path(st.Section, st.Item), core.Path(st.ToSection, st.ToItem))
	case OpInsertSection:
		return root.InsertSection(st.Section, core.Section[string]{ID: st.ID, Title: st.Title, Objects: st.Objects})
	case OpRemoveSection:
		_, err := root.RemoveSectionAt(st.Section)
		return err
	case OpBegin:
		root.BeginUpdates()
		return nil
	case OpEnd:
		return root.EndUpdates()
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalid, st.Op)
	}
}

func record(c core.Change[string]) Record {
	rec := Record{Kind: c.Kind.String(), Section: c.SectionID}
	switch c.Kind {
	case core.SectionInserted:
		rec.New = strconv.Itoa(c.New.Section)
	case core.SectionDeleted:
		rec.Old = strconv.Itoa(c.Old.Section)
	case core.ObjectInserted:
		rec.Object, rec.New = c.Object, c.New.String()
	case core.ObjectDeleted:
		rec.Object, rec.Old = c.Object, c.Old.String()
	default:
		rec.Object, rec.Old, rec.New = c.Object, c.Old.String(), c.New.String()
	}
	return rec
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Kind)
	if r.Object != "" {
		fmt.Fprintf(&b, " %q", r.Object)
	} else if r.Section != "" {
		fmt.Fprintf(&b, " section %q", r.Section)
	}
	switch {
	case r.Old != "" && r.New != "":
		fmt.Fprintf(&b, " %s -> %s", r.Old, r.New)
	case r.Old != "":
		fmt.Fprintf(&b, " from %s", r.Old)
	case r.New != "":
		fmt.Fprintf(&b, " at %s", r.New)
	}
	return b.String()
}

func sectionSpecs(snap core.Snapshot[string]) []SectionSpec {
	out := make([]SectionSpec, len(snap.Sections))
	for i, sec := range snap.Sections {
		out[i] = SectionSpec{ID: sec.ID, Title: sec.Title, Objects: sec.Objects}
	}
	return out
}

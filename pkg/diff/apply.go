package diff

import (
	"fmt"
	"slices"

	"github.com/aretw0/collist/pkg/core"
)

// Apply replays changes on top of old and returns the resulting snapshot.
//
// The replay order is the one list widgets use for batch updates: objects removed by
// deletes and move sources (old paths, descending), sections removed (descending),
// sections inserted (ascending), objects inserted by inserts and move destinations
// (new paths, ascending), then updates in place. old itself is not modified.
func Apply[T comparable](old core.Snapshot[T], changes []core.Change[T]) (core.Snapshot[T], error) {
	out := old.Clone()

	var removals, placements []core.Change[T]
	var secRemovals, secInserts, updates []core.Change[T]
	for _, c := range changes {
		switch c.Kind {
		case core.ObjectDeleted:
			removals = append(removals, c)
		case core.ObjectInserted:
			placements = append(placements, c)
		case core.ObjectMoved:
			removals = append(removals, c)
			placements = append(placements, c)
		case core.SectionDeleted:
			secRemovals = append(secRemovals, c)
		case core.SectionInserted:
			secInserts = append(secInserts, c)
		case core.ObjectUpdated:
			updates = append(updates, c)
		default:
			return core.Snapshot[T]{}, fmt.Errorf("unknown change kind %s", c.Kind)
		}
	}

	slices.SortFunc(removals, func(a, b core.Change[T]) int { return comparePaths(b.Old, a.Old) })
	for _, c := range removals {
		if err := checkPath(out, c.Old, false); err != nil {
			return core.Snapshot[T]{}, fmt.Errorf("remove %s: %w", c, err)
		}
		sec := &out.Sections[c.Old.Section]
		sec.Objects = slices.Delete(sec.Objects, c.Old.Item, c.Old.Item+1)
	}

	slices.SortFunc(secRemovals, func(a, b core.Change[T]) int { return b.Old.Section - a.Old.Section })
	for _, c := range secRemovals {
		if c.Old.Section < 0 || c.Old.Section >= len(out.Sections) {
			return core.Snapshot[T]{}, fmt.Errorf("remove %s: %w", c, core.ErrIndexOutOfRange)
		}
		out.Sections = slices.Delete(out.Sections, c.Old.Section, c.Old.Section+1)
	}

	slices.SortFunc(secInserts, func(a, b core.Change[T]) int { return a.New.Section - b.New.Section })
	for _, c := range secInserts {
		if c.New.Section < 0 || c.New.Section > len(out.Sections) {
			return core.Snapshot[T]{}, fmt.Errorf("insert %s: %w", c, core.ErrIndexOutOfRange)
		}
		sec := core.Section[T]{ID: c.SectionID}
		if c.Section != nil {
			sec = c.Section.Clone()
		}
		out.Sections = slices.Insert(out.Sections, c.New.Section, sec)
	}

	slices.SortFunc(placements, func(a, b core.Change[T]) int { return comparePaths(a.New, b.New) })
	for _, c := range placements {
		if err := checkPath(out, c.New, true); err != nil {
			return core.Snapshot[T]{}, fmt.Errorf("insert %s: %w", c, err)
		}
		sec := &out.Sections[c.New.Section]
		sec.Objects = slices.Insert(sec.Objects, c.New.Item, c.Object)
	}

	for _, c := range updates {
		if err := checkPath(out, c.New, false); err != nil {
			return core.Snapshot[T]{}, fmt.Errorf("update %s: %w", c, err)
		}
		out.Sections[c.New.Section].Objects[c.New.Item] = c.Object
	}

	return out, nil
}

func checkPath[T comparable](s core.Snapshot[T], p core.IndexPath, insert bool) error {
	if p.Section < 0 || p.Section >= len(s.Sections) {
		return fmt.Errorf("%w: section %d of %d", core.ErrIndexOutOfRange, p.Section, len(s.Sections))
	}
	limit := len(s.Sections[p.Section].Objects)
	if insert {
		limit++
	}
	if p.Item < 0 || p.Item >= limit {
		return fmt.Errorf("%w: item %d in section %d", core.ErrIndexOutOfRange, p.Item, p.Section)
	}
	return nil
}

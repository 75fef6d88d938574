// Package diff computes and replays the change records between two snapshots.
//
// Records are returned in apply order: section deletions, object deletions, section
// insertions, object insertions, moves and finally updates. Deletions and move sources
// use index paths of the old snapshot; insertions, move destinations and updates use
// index paths of the new snapshot.
package diff

import (
	"slices"

	"github.com/aretw0/collist/pkg/core"
)

// Compute returns the records turning old into next.
//
// Sections are matched by ID and objects by equality. An object kept in place yields no
// record unless it is present in updated, in which case an ObjectUpdated is emitted.
// A nil updated set is valid.
func Compute[T comparable](old, next core.Snapshot[T], updated map[T]bool) []core.Change[T] {
	oldToNew, newToOld := matchSections(old, next)

	var (
		secDeletes []core.Change[T]
		secInserts []core.Change[T]
		deletes    []core.Change[T]
		inserts    []core.Change[T]
		moves      []core.Change[T]
		updates    []core.Change[T]
	)

	for i, j := range oldToNew {
		if j < 0 {
			sec := old.Sections[i].Clone()
			secDeletes = append(secDeletes, core.Change[T]{
				Kind:      core.SectionDeleted,
				SectionID: sec.ID,
				Section:   &sec,
				Old:       core.Path(i, 0),
			})
		}
	}
	for j, i := range newToOld {
		if i < 0 {
			sec := next.Sections[j].Clone()
			secInserts = append(secInserts, core.Change[T]{
				Kind:      core.SectionInserted,
				SectionID: sec.ID,
				Section:   &sec,
				New:       core.Path(j, 0),
			})
		}
	}

	// n-th occurrence of a value in old pairs with its n-th occurrence in next.
	pending := make(map[T][]core.IndexPath, old.Len())
	for i, sec := range old.Sections {
		for k, obj := range sec.Objects {
			pending[obj] = append(pending[obj], core.Path(i, k))
		}
	}
	matchedOld := make([][]bool, len(old.Sections))
	for i, sec := range old.Sections {
		matchedOld[i] = make([]bool, len(sec.Objects))
	}

	// kept[j] holds, per surviving section of next, the in-section matches ordered by new item.
	type pair struct {
		oldItem, newItem int
		obj              T
	}
	kept := make([][]pair, len(next.Sections))

	for j, sec := range next.Sections {
		for m, obj := range sec.Objects {
			newPath := core.Path(j, m)
			q := pending[obj]
			if len(q) == 0 {
				if newToOld[j] >= 0 {
					inserts = append(inserts, objectChange(core.ObjectInserted, next, obj, core.IndexPath{}, newPath))
				}
				continue
			}
			oldPath := q[0]
			pending[obj] = q[1:]
			matchedOld[oldPath.Section][oldPath.Item] = true

			oldLive := oldToNew[oldPath.Section] >= 0
			newLive := newToOld[j] >= 0
			switch {
			case !oldLive && !newLive:
				// both ends are covered by section records
			case oldLive && !newLive:
				deletes = append(deletes, objectChange(core.ObjectDeleted, old, obj, oldPath, core.IndexPath{}))
			case !oldLive && newLive:
				inserts = append(inserts, objectChange(core.ObjectInserted, next, obj, core.IndexPath{}, newPath))
			case oldToNew[oldPath.Section] == j:
				kept[j] = append(kept[j], pair{oldItem: oldPath.Item, newItem: m, obj: obj})
			default:
				moves = append(moves, objectChange(core.ObjectMoved, next, obj, oldPath, newPath))
			}
		}
	}

	for i, sec := range old.Sections {
		if oldToNew[i] < 0 {
			continue
		}
		for k, obj := range sec.Objects {
			if !matchedOld[i][k] {
				deletes = append(deletes, objectChange(core.ObjectDeleted, old, obj, core.Path(i, k), core.IndexPath{}))
			}
		}
	}

	for j, pairs := range kept {
		seq := make([]int, len(pairs))
		for n, p := range pairs {
			seq[n] = p.oldItem
		}
		stay := longestIncreasing(seq)
		oldSec := newToOld[j]
		for n, p := range pairs {
			oldPath, newPath := core.Path(oldSec, p.oldItem), core.Path(j, p.newItem)
			switch {
			case !stay[n]:
				moves = append(moves, objectChange(core.ObjectMoved, next, p.obj, oldPath, newPath))
			case updated[p.obj]:
				updates = append(updates, objectChange(core.ObjectUpdated, next, p.obj, oldPath, newPath))
			}
		}
	}

	byOld := func(a, b core.Change[T]) int { return comparePaths(a.Old, b.Old) }
	byNew := func(a, b core.Change[T]) int { return comparePaths(a.New, b.New) }
	slices.SortStableFunc(deletes, byOld)
	slices.SortStableFunc(inserts, byNew)
	slices.SortStableFunc(moves, byNew)
	slices.SortStableFunc(updates, byNew)

	out := make([]core.Change[T], 0, len(secDeletes)+len(deletes)+len(secInserts)+len(inserts)+len(moves)+len(updates))
	out = append(out, secDeletes...)
	out = append(out, deletes...)
	out = append(out, secInserts...)
	out = append(out, inserts...)
	out = append(out, moves...)
	out = append(out, updates...)
	return out
}

// matchSections pairs sections by ID and title and keeps the largest subset whose
// relative order is unchanged. Index slices hold the counterpart position, or -1 when the section does
// not survive.
func matchSections[T comparable](old, next core.Snapshot[T]) (oldToNew, newToOld []int) {
	oldToNew = make([]int, len(old.Sections))
	newToOld = make([]int, len(next.Sections))
	for i := range oldToNew {
		oldToNew[i] = -1
	}
	for j := range newToOld {
		newToOld[j] = -1
	}

	byID := make(map[string]int, len(old.Sections))
	for i, sec := range old.Sections {
		if _, dup := byID[sec.ID]; !dup {
			byID[sec.ID] = i
		}
	}

	var candidates, seq []int
	for j, sec := range next.Sections {
		i, ok := byID[sec.ID]
		if !ok {
			continue
		}
		delete(byID, sec.ID)
		// A retitled section is replaced so the new title travels in the records.
		if old.Sections[i].Title != sec.Title {
			continue
		}
		candidates = append(candidates, j)
		seq = append(seq, i)
	}

	stay := longestIncreasing(seq)
	for n, j := range candidates {
		if stay[n] {
			oldToNew[seq[n]] = j
			newToOld[j] = seq[n]
		}
	}
	return oldToNew, newToOld
}

func objectChange[T comparable](kind core.ChangeKind, snap core.Snapshot[T], obj T, oldPath, newPath core.IndexPath) core.Change[T] {
	at := newPath
	if kind == core.ObjectDeleted {
		at = oldPath
	}
	return core.Change[T]{
		Kind:      kind,
		SectionID: snap.Sections[at.Section].ID,
		Object:    obj,
		Old:       oldPath,
		New:       newPath,
	}
}

// longestIncreasing marks the members of one longest strictly increasing subsequence
// of seq.
func longestIncreasing(seq []int) []bool {
	stay := make([]bool, len(seq))
	if len(seq) == 0 {
		return stay
	}

	// tails[l] is the index in seq of the smallest tail of an increasing run of length l+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for n, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[n] = tails[lo-1]
		} else {
			prev[n] = -1
		}
		if lo == len(tails) {
			tails = append(tails, n)
		} else {
			tails[lo] = n
		}
	}

	for n := tails[len(tails)-1]; n >= 0; n = prev[n] {
		stay[n] = true
	}
	return stay
}

func comparePaths(a, b core.IndexPath) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// Package collist is the entry point for observable, sectioned collections.
//
// A collection holds an ordered list of sections, each an ordered list of objects, and
// tells its observers how its content changed as batches of change records: section
// and object inserts and deletes, object moves and in-place updates. Every batch is
// delivered between WillChangeContent and DidChangeContent and can be replayed onto the
// previous snapshot to obtain the new one.
//
// Features:
//
//   - **Array collections**: direct mutation, nestable batch updates.
//   - **Derived views**: filtered and sorted collections that follow their sources and
//     publish the minimal difference for every source batch, including moves.
//   - **Change engine**: `Diff` and `Apply` over snapshots, usable on their own.
//   - **Adapters**: Prometheus metrics, lifecycle event sources and a scenario replay
//     CLI (`cmd/collist`).
//
// Usage:
//
//	list := collist.NewList([]string{"b", "a"}, collist.WithName("inbox"))
//	view := collist.NewSorted([]collist.Collection[string]{list},
//		collist.SortRules[string]{Compare: strings.Compare},
//	)
//	view.AddObserver(&collist.ObserverFuncs[string]{
//		OnChange: func(c collist.Change[string]) { fmt.Println(c) },
//	})
//	_ = list.AppendObject(0, "c")
//
// Object identity is Go equality: use pointer types when distinct objects may compare
// equal by value.
package collist

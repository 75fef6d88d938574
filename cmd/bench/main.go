package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/aretw0/collist"
	"github.com/aretw0/collist/pkg/sorted"
)

type item struct {
	id  int
	key int
}

func main() {
	count := flag.Int("count", 10000, "Number of objects in the collection")
	rounds := flag.Int("rounds", 100, "Number of key changes to apply")
	cache := flag.Int("cache", 256, "Reverse lookup cache size (0 disables it)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	rng := rand.New(rand.NewPCG(1, 2))

	objects := make([]*item, *count)
	for i := range objects {
		objects[i] = &item{id: i, key: rng.IntN(*count)}
	}

	fmt.Printf("Building a sorted view over %d objects...\n", *count)
	startBuild := time.Now()
	list := collist.NewList(objects, collist.WithName("bench"), collist.WithLogger(logger), collist.WithLookupCache(*cache))
	view := collist.NewSorted([]collist.Collection[*item]{list}, collist.SortRules[*item]{
		Compare: sorted.ByKey(func(it *item) int { return it.key }),
	}, collist.WithLookupCache(*cache))
	fmt.Printf("Build took: %v\n", time.Since(startBuild))

	var moves, records int
	view.AddObserver(&collist.ObserverFuncs[*item]{
		OnChange: func(c collist.Change[*item]) {
			records++
			if c.Kind == collist.ObjectMoved {
				moves++
			}
		},
	})

	fmt.Printf("Applying %d key changes...\n", *rounds)
	startRounds := time.Now()
	for i := 0; i < *rounds; i++ {
		obj := objects[rng.IntN(*count)]
		obj.key = rng.IntN(*count)
		p, ok := list.IndexPathOf(obj)
		if !ok {
			logger.Error("object lost", "id", obj.id)
			os.Exit(1)
		}
		if err := list.ReplaceObjectAt(p, obj); err != nil {
			logger.Error("replace failed", "error", err)
			os.Exit(1)
		}
	}
	duration := time.Since(startRounds)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d objects, %d rounds):\n", *count, *rounds)
	fmt.Printf("  Total:     %v\n", duration)
	fmt.Printf("  Per batch: %v\n", duration/time.Duration(max(*rounds, 1)))
	fmt.Printf("  Records:   %d (%d moves)\n", records, moves)
	fmt.Printf("--------------------------------------------------\n")
}

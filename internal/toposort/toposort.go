// Package toposort orders table entries so that every entry follows the
// entries it depends on.
package toposort

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the dependency graph is not a DAG.
var ErrCycle = errors.New("cycle detected")

// Sort returns indices in dependency order.
//
// Nodes are indices in [0, n). deps(i) yields indices that must come before i.
//
// The result is deterministic: when multiple nodes are available, the
// smallest index is picked. Duplicate dependencies are counted once.
func Sort(n int, deps func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		seen := map[int]bool{}

		for _, d := range deps(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("dependency index out of range: %d depends on %d", i, d)
			}

			if seen[d] {
				continue
			}

			seen[d] = true
			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)
		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				// Insert while keeping ready sorted.
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) != n {
		return nil, ErrCycle
	}

	return order, nil
}

// Permute returns the inverse of order: for each original index, its position.
func Permute(order []int) []int {
	pos := make([]int, len(order))
	for p, i := range order {
		pos[i] = p
	}

	return pos
}

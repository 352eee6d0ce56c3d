package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/ecreader/internal/model"
)

// baseGraph maps a class to its direct bases.
type baseGraph map[model.ClassID][]model.ClassID

// findCycle walks the base edges depth first, classes in ascending id
// order, and returns the first inheritance cycle it meets as a path that
// starts and ends on the same class. It returns nil for an acyclic graph.
func findCycle(graph baseGraph) []model.ClassID {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[model.ClassID]int, len(graph))
	var path []model.ClassID

	var visit func(id model.ClassID) []model.ClassID
	visit = func(id model.ClassID) []model.ClassID {
		state[id] = inProgress
		path = append(path, id)
		for _, base := range graph[id] {
			switch state[base] {
			case inProgress:
				at := slices.Index(path, base)
				return append(slices.Clone(path[at:]), base)
			case unvisited:
				if cycle := visit(base); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return nil
	}

	ids := slices.Sorted(maps.Keys(graph))
	for _, id := range ids {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func formatCycle(path []model.ClassID, names map[model.ClassID]string) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = names[id]
	}
	return fmt.Sprintf("inheritance cycle: %s", strings.Join(parts, " -> "))
}

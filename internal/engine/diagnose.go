package engine

import (
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/roach88/prereq/internal/ir"
)

// diagnose classifies the items left pending after the ready queue drained.
//
// Every outstanding prerequisite of a leftover item is either another
// leftover item or an identifier that was never defined: emitted items are
// discharged from their dependents as they are emitted.
//
// The algorithm:
//  1. Build a directed graph over leftover items, item -> prerequisite
//  2. Find strongly connected components; components with more than one
//     member, and items listing themselves, are cycles
//  3. Items waiting directly on an undefined identifier are dangling
//  4. Everything else is blocked behind one of the above
func diagnose(p *pendingIndex, defined map[string]int, emitted int) (*UnresolvedError, error) {
	remaining := p.remaining()

	g := graph.New(graph.StringHash, graph.Directed())
	for _, item := range remaining {
		if err := g.AddVertex(item); err != nil {
			return nil, fmt.Errorf("diagnose: add vertex %q: %w", item, err)
		}
	}

	missing := make(map[string]struct{})
	dangling := make(map[string]bool)
	selfLoop := make(map[string]bool)
	waitingOn := make(map[string][]string, len(remaining))

	for _, item := range remaining {
		outstanding := p.outstanding(item)
		waitingOn[item] = outstanding
		for _, prereq := range outstanding {
			switch {
			case prereq == item:
				selfLoop[item] = true
			case p.isPending(prereq):
				if err := g.AddEdge(item, prereq); err != nil {
					return nil, fmt.Errorf("diagnose: add edge %q -> %q: %w", item, prereq, err)
				}
			default:
				if _, ok := defined[prereq]; ok {
					return nil, newInvariantError("diagnose", item, prereq,
						"defined prerequisite neither emitted nor pending")
				}
				missing[prereq] = struct{}{}
				dangling[item] = true
			}
		}
	}

	sccs, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, fmt.Errorf("diagnose: strongly connected components: %w", err)
	}

	inCycle := make(map[string]bool)
	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) == 1 && !selfLoop[scc[0]] {
			continue
		}
		members := slices.Clone(scc)
		slices.Sort(members)
		cycles = append(cycles, members)
		for _, m := range members {
			inCycle[m] = true
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int { return slices.Compare(a, b) })

	items := make([]ir.UnresolvedItem, 0, len(remaining))
	for _, item := range remaining {
		kind := ir.UnresolvedBlocked
		switch {
		case inCycle[item]:
			kind = ir.UnresolvedCycle
		case dangling[item]:
			kind = ir.UnresolvedDangling
		}
		items = append(items, ir.UnresolvedItem{
			Name:      item,
			Kind:      kind,
			WaitingOn: waitingOn[item],
		})
	}

	missingList := make([]string, 0, len(missing))
	for m := range missing {
		missingList = append(missingList, m)
	}
	slices.Sort(missingList)

	return &UnresolvedError{
		Items:   items,
		Cycles:  cycles,
		Missing: missingList,
		Emitted: emitted,
	}, nil
}

package engine

import "slices"

// pendingIndex holds the two coupled mappings of not-yet-emitted items.
//
// INVARIANT: item X is in dependents[P] if and only if P is in waiting[X].
//
// waiting maps an item to the prerequisites it is still waiting on. An item
// is present only while it has at least one outstanding prerequisite.
//
// dependents maps a prerequisite to the items waiting on it, in registration
// order. Order matters: it is the order newly-ready items are discovered in,
// which makes the emitted sequence deterministic for a fixed input order.
// Individual entries are never removed from a dependents list; the whole list
// is dropped once its prerequisite is emitted.
type pendingIndex struct {
	waiting    map[string]map[string]struct{}
	dependents map[string][]string
	order      []string // registration order, for reporting
}

func newPendingIndex() *pendingIndex {
	return &pendingIndex{
		waiting:    make(map[string]map[string]struct{}),
		dependents: make(map[string][]string),
	}
}

// register records item as waiting on every prerequisite in outstanding.
// Precondition: item is neither emitted nor registered and outstanding is
// non-empty.
func (p *pendingIndex) register(item string, outstanding map[string]struct{}) {
	p.waiting[item] = outstanding
	p.order = append(p.order, item)
	for prereq := range outstanding {
		// get-or-insert, then append
		p.dependents[prereq] = append(p.dependents[prereq], item)
	}
}

// discharge removes prereq from item's outstanding set and reports whether
// that emptied it. An emptied entry is deleted.
func (p *pendingIndex) discharge(prereq, item string) (bool, error) {
	outstanding, ok := p.waiting[item]
	if !ok {
		return false, newInvariantError("discharge", item, prereq, "item is not pending")
	}
	if _, ok := outstanding[prereq]; !ok {
		return false, newInvariantError("discharge", item, prereq, "prerequisite is not outstanding")
	}

	delete(outstanding, prereq)
	if len(outstanding) > 0 {
		return false, nil
	}
	delete(p.waiting, item)
	return true, nil
}

// releaseDependentsOf discharges item from every dependent waiting on it and
// returns the dependents that became ready, in discovery order. The
// dependents entry for item is deleted afterwards.
//
// Iterates a snapshot of the list; no recursion, so call depth stays flat on
// long chains.
func (p *pendingIndex) releaseDependentsOf(item string) ([]string, error) {
	waiters, ok := p.dependents[item]
	if !ok {
		return nil, nil
	}
	snapshot := slices.Clone(waiters)

	var ready []string
	for _, dependent := range snapshot {
		done, err := p.discharge(item, dependent)
		if err != nil {
			return ready, err
		}
		if done {
			ready = append(ready, dependent)
		}
	}
	delete(p.dependents, item)
	return ready, nil
}

// empty reports whether both mappings are drained.
func (p *pendingIndex) empty() bool {
	return len(p.waiting) == 0 && len(p.dependents) == 0
}

// isPending reports whether item is registered and still waiting.
func (p *pendingIndex) isPending(item string) bool {
	_, ok := p.waiting[item]
	return ok
}

// outstanding returns item's outstanding prerequisites, sorted.
func (p *pendingIndex) outstanding(item string) []string {
	set := p.waiting[item]
	out := make([]string, 0, len(set))
	for prereq := range set {
		out = append(out, prereq)
	}
	slices.Sort(out)
	return out
}

// remaining returns the still-pending items in registration order.
func (p *pendingIndex) remaining() []string {
	var out []string
	for _, item := range p.order {
		if p.isPending(item) {
			out = append(out, item)
		}
	}
	return out
}

// waitingCount is the number of pending items.
func (p *pendingIndex) waitingCount() int {
	return len(p.waiting)
}

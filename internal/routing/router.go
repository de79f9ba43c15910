package routing

import (
	"sort"

	"cadence/internal/content"
)

// Router evaluates every destination rule against an item. It holds only static
// configuration, so Route is a pure function of its input.
type Router struct {
	destinations []Destination
	byID         map[string]int
}

// NewRouter builds a router. The slice order is the configuration order used to
// break priority ties; later duplicates of an id are ignored.
func NewRouter(destinations []Destination) *Router {
	r := &Router{byID: make(map[string]int, len(destinations))}
	for _, dest := range destinations {
		if _, ok := r.byID[dest.ID]; ok {
			continue
		}
		dest.order = len(r.destinations)
		r.byID[dest.ID] = len(r.destinations)
		r.destinations = append(r.destinations, dest)
	}
	return r
}

// Route returns the destinations accepting item, ordered by priority descending
// and then configuration order. Under a configuration without a catch-all the
// result may be empty.
func (r *Router) Route(item content.Item) []Destination {
	if r == nil {
		return nil
	}
	var accepted []Destination
	for _, dest := range r.destinations {
		if dest.Accepts(item) {
			accepted = append(accepted, dest)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Priority != accepted[j].Priority {
			return accepted[i].Priority > accepted[j].Priority
		}
		return accepted[i].order < accepted[j].order
	})
	return accepted
}

// Destination looks up a destination by id.
func (r *Router) Destination(id string) (Destination, bool) {
	if r == nil {
		return Destination{}, false
	}
	pos, ok := r.byID[id]
	if !ok {
		return Destination{}, false
	}
	return r.destinations[pos], true
}

// Destinations returns the destinations in configuration order.
func (r *Router) Destinations() []Destination {
	if r == nil {
		return nil
	}
	out := make([]Destination, len(r.destinations))
	copy(out, r.destinations)
	return out
}

// HasCatchAll reports whether any destination accepts every item.
func (r *Router) HasCatchAll() bool {
	if r == nil {
		return false
	}
	for _, dest := range r.destinations {
		if dest.IsCatchAll() {
			return true
		}
	}
	return false
}

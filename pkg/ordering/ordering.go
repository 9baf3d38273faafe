// Package ordering computes the start order of a set of services from their
// Before, After and Wants declarations.
//
// Every declaration is normalized into a "starts before" edge:
//
//	A.Before == B  ->  A before B
//	B.After  == A  ->  A before B
//	B.Wants  == A  ->  A before B
//
// Edges naming a unit outside the set are ignored. The order is produced by
// Kahn's algorithm, always picking the smallest ready name, so units without
// constraints between them come out in lexical order.
package ordering

import (
	"container/heap"
	"sort"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/units"
)

// Edges returns, for every unit in services, the sorted names of the units
// that must start after it. Units without successors map to an empty slice.
func Edges(services []units.Service) (map[string][]string, error) {
	if err := units.ValidateServices(services); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(services))
	for _, service := range services {
		known[service.Unit.Name] = struct{}{}
	}

	successors := make(map[string]map[string]struct{}, len(services))
	for _, service := range services {
		successors[service.Unit.Name] = make(map[string]struct{})
	}

	addEdge := func(from string, to string) {
		if _, ok := known[from]; !ok {
			return
		}
		if _, ok := known[to]; !ok {
			return
		}
		successors[from][to] = struct{}{}
	}

	for _, service := range services {
		name := service.Unit.Name
		if service.Unit.Before != nil {
			addEdge(name, *service.Unit.Before)
		}
		if service.Unit.After != nil {
			addEdge(*service.Unit.After, name)
		}
		if service.Unit.Wants != nil {
			addEdge(*service.Unit.Wants, name)
		}
	}

	edges := make(map[string][]string, len(successors))
	for from, set := range successors {
		to := make([]string, 0, len(set))
		for name := range set {
			to = append(to, name)
		}
		sort.Strings(to)
		edges[from] = to
	}
	return edges, nil
}

// Order returns services in a start order that satisfies every edge. It fails
// with a cycle_detected error naming the units that could not be ordered.
func Order(services []units.Service) ([]units.Service, error) {
	edges, err := Edges(services)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]units.Service, len(services))
	inDegree := make(map[string]int, len(services))
	for _, service := range services {
		byName[service.Unit.Name] = service
		inDegree[service.Unit.Name] = 0
	}
	for _, successors := range edges {
		for _, to := range successors {
			inDegree[to]++
		}
	}

	ready := &nameHeap{}
	for name, degree := range inDegree {
		if degree == 0 {
			heap.Push(ready, name)
		}
	}

	ordered := make([]units.Service, 0, len(services))
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		ordered = append(ordered, byName[name])
		for _, to := range edges[name] {
			inDegree[to]--
			if inDegree[to] == 0 {
				heap.Push(ready, to)
			}
		}
	}

	if len(ordered) < len(services) {
		return nil, errors.NewCycleDetectedError(cycleMembers(edges, inDegree))
	}
	return ordered, nil
}

// cycleMembers narrows the units left with unsatisfied edges down to those
// that lie on a cycle, dropping units that only wait behind one.
func cycleMembers(edges map[string][]string, inDegree map[string]int) []string {
	remaining := make(map[string]bool)
	for name, degree := range inDegree {
		if degree > 0 {
			remaining[name] = true
		}
	}

	// Repeatedly drop units with no remaining successor; what is left
	// can reach a cycle and is reachable from one.
	for changed := true; changed; {
		changed = false
		for name := range remaining {
			hasSuccessor := false
			for _, to := range edges[name] {
				if remaining[to] {
					hasSuccessor = true
					break
				}
			}
			if !hasSuccessor {
				delete(remaining, name)
				changed = true
			}
		}
	}

	members := make([]string, 0, len(remaining))
	for name := range remaining {
		members = append(members, name)
	}
	sort.Strings(members)
	return members
}

type nameHeap []string

func (h nameHeap) Len() int            { return len(h) }
func (h nameHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h nameHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nameHeap) Push(x interface{}) { *h = append(*h, x.(string)) }
func (h *nameHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

package validation

import "strings"

// Three-color DFS cycle detection, shared by the per-flow check and the
// system-wide orchestration reference graph check.

type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// findCycle walks the adjacency relation in the given node order and returns
// the first directed cycle found as a node-ID path (closing node repeated at
// the end), or nil when the relation is acyclic. Targets without an entry in
// order are treated as leaves.
func findCycle(order []string, adj map[string][]string) []string {
	colors := make(map[string]color, len(order))
	known := make(map[string]bool, len(order))
	for _, id := range order {
		known[id] = true
	}

	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray
		stack = append(stack, id)

		for _, next := range adj[id] {
			if !known[next] {
				continue // dangling ref, reported elsewhere
			}
			switch colors[next] {
			case gray:
				// Back-edge: slice the stack from the gray node onward.
				start := 0
				for i, s := range stack {
					if s == next {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, stack[start:]...), next)
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = black
		return false
	}

	for _, id := range order {
		if colors[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}

// joinPath renders a cycle path as "a -> b -> a".
func joinPath(path []string) string {
	return strings.Join(path, " -> ")
}

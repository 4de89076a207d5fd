package graph

import "slices"

// Shake computes the retained definition set. With shaking enabled it
// is plain reachability from the synthetic root over Edges, cycle-safe
// through the visited set. Disabled, every definition of every merged
// module is retained. The returned slice is indexed by NodeID.
func (g *Graph) Shake(enabled bool) []bool {
	retained := make([]bool, len(g.nodes))
	if !enabled {
		for id := 1; id < len(g.nodes); id++ {
			retained[id] = true
		}
		return retained
	}
	stack := append([]NodeID(nil), g.RootEdges...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if retained[id] {
			continue
		}
		retained[id] = true
		stack = append(stack, g.nodes[id].Edges...)
	}
	return retained
}

// Order arranges the retained definitions for emission: a definition
// comes after everything it depends on, mutually dependent definitions
// form one group kept in discovery order, and ties fall back to
// discovery order too. Tarjan's algorithm emits components in exactly
// that order when roots are visited in ascending NodeID.
func (g *Graph) Order(retained []bool) [][]NodeID {
	t := &tarjan{
		g:        g,
		retained: retained,
		index:    make([]uint32, len(g.nodes)),
		low:      make([]uint32, len(g.nodes)),
		onStack:  make([]bool, len(g.nodes)),
	}
	for id := 1; id < len(g.nodes); id++ {
		if retained[id] && t.index[id] == 0 {
			t.visit(NodeID(id))
		}
	}
	return t.groups
}

type tarjan struct {
	g        *Graph
	retained []bool

	index   []uint32 // 0 means unvisited
	low     []uint32
	onStack []bool
	stack   []NodeID
	next    uint32

	groups [][]NodeID
}

func (t *tarjan) visit(v NodeID) {
	t.next++
	t.index[v] = t.next
	t.low[v] = t.next
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.nodes[v].Edges {
		if !t.retained[w] {
			continue
		}
		if t.index[w] == 0 {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var group []NodeID
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		group = append(group, w)
		if w == v {
			break
		}
	}
	// Members keep their discovery order within the group.
	slices.Sort(group)
	t.groups = append(t.groups, group)
}

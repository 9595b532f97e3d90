package regalloc

// Coloring is a partial mapping from symbol to color index in [0, k).
type Coloring map[Symbol]int

// Color runs Chaitin's simplify/select coloring procedure over graph
// using at most k colors. It never mutates graph: a private working
// copy is simplified/spilled down to empty, while the select phase
// reads neighbor sets from the original graph (a node popped early in
// simplify can still interfere with a node colored later).
//
// initial supplies symbols whose color is already fixed before
// simplification begins, such as parameters precolored into machine
// registers by a calling convention. Pass nil when nothing is
// precolored. A precolored node is removed from the working copy up
// front rather than simplified or spilled, and its color carries
// through unchanged into the result; the select phase still sees its
// interferences, since it finds neighbors in the canonical graph and
// reads their colors from the result map that initial seeds.
//
// If every node is eventually colored, Color returns the coloring and an
// empty spill set. If any node must be spilled, Color returns a nil
// coloring and the non-empty spill set; the partial coloring built so
// far is discarded.
func Color(graph *InterferenceGraph, costs map[Symbol]float64, k int, initial Coloring) (Coloring, SymbolSet, error) {
	working := graph.Clone()

	coloring := make(Coloring, len(initial))
	for sym, color := range initial {
		coloring[sym] = color
	}

	removed := make(map[NodeID]bool, len(initial))
	for sym := range initial {
		id, ok := working.NodeOf(sym)
		if !ok || removed[id] {
			continue
		}
		removed[id] = true
		working.RemoveNode(id)
	}

	var stack []NodeID
	spilled := NewSymbolSet()

	for len(working.nodes) > 0 {
		if id, ok := pickSimplifyCandidate(working, k); ok {
			stack = append(stack, id)
			working.RemoveNode(id)
			continue
		}

		id := pickSpillCandidate(working, costs)
		node := working.Node(id)
		for sym := range node.Symbols {
			spilled.Add(sym)
		}
		working.RemoveNode(id)
	}

	if len(spilled) > 0 {
		return nil, spilled, nil
	}

	for i := len(stack) - 1; i >= 0; i-- {
		id := stack[i]
		node := graph.Node(id)

		used := make(map[int]bool)
		for _, neighborID := range graph.Neighbors(id) {
			neighbor := graph.Node(neighborID)
			if neighbor == nil {
				continue
			}
			for sym := range neighbor.Symbols {
				if c, ok := coloring[sym]; ok {
					used[c] = true
				}
			}
		}

		color := -1
		for c := 0; c < k; c++ {
			if !used[c] {
				color = c
				break
			}
		}
		if color < 0 {
			return nil, nil, &InternalInvariantViolation{Detail: "select phase found no available color for a node pushed with degree < k"}
		}

		for sym := range node.Symbols {
			coloring[sym] = color
		}
	}

	return coloring, NewSymbolSet(), nil
}

// pickSimplifyCandidate returns a node with degree < k, deterministically
// tie-broken by the lexicographically lowest symbol name among the
// node's members.
func pickSimplifyCandidate(g *InterferenceGraph, k int) (NodeID, bool) {
	var best NodeID
	var bestKey Symbol
	found := false

	for _, id := range g.Nodes() {
		if g.Degree(id) >= k {
			continue
		}
		key := lowestMember(g.Node(id))
		if !found || key < bestKey {
			best, bestKey, found = id, key, true
		}
	}

	return best, found
}

// pickSpillCandidate returns the node of minimum cost among the graph's
// remaining nodes, tie-broken by the lexicographically lowest symbol
// name among its members. A node's cost is the sum of its member
// symbols' spill costs.
func pickSpillCandidate(g *InterferenceGraph, costs map[Symbol]float64) NodeID {
	var best NodeID
	var bestCost float64
	var bestKey Symbol
	found := false

	for _, id := range g.Nodes() {
		node := g.Node(id)
		cost := nodeCost(node, costs)
		key := lowestMember(node)
		if !found || cost < bestCost || (cost == bestCost && key < bestKey) {
			best, bestCost, bestKey, found = id, cost, key, true
		}
	}

	return best
}

func nodeCost(node *Node, costs map[Symbol]float64) float64 {
	var total float64
	for sym := range node.Symbols {
		total += costs[sym]
	}
	return total
}

func lowestMember(node *Node) Symbol {
	sorted := node.Symbols.Sorted()
	return sorted[0]
}

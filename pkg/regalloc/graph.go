package regalloc

// NodeID is a stable identifier for a graph node, independent of which
// symbols currently belong to it. Symbol identity does not survive
// coalescing: callers track the owning node through the graph's
// symbol -> node-id map rather than through the symbol itself.
type NodeID int

// Node owns one or more coalesced symbols.
type Node struct {
	ID      NodeID
	Symbols SymbolSet
}

// InterferenceGraph is an undirected graph of nodes; edges are
// interferences. A node owns a set of coalesced symbols rather than a
// single bare register, so that coalescing two symbols together is a
// node merge rather than a rename.
type InterferenceGraph struct {
	nodes    map[NodeID]*Node
	symNode  map[Symbol]NodeID
	edges    map[NodeID]map[NodeID]bool
	nextNode NodeID
}

// NewInterferenceGraph creates an empty graph.
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		nodes:   make(map[NodeID]*Node),
		symNode: make(map[Symbol]NodeID),
		edges:   make(map[NodeID]map[NodeID]bool),
	}
}

// EnsureSymbol returns the node owning sym, creating a fresh singleton
// node if sym has not been seen before.
func (g *InterferenceGraph) EnsureSymbol(sym Symbol) NodeID {
	if id, ok := g.symNode[sym]; ok {
		return id
	}
	id := g.nextNode
	g.nextNode++
	g.nodes[id] = &Node{ID: id, Symbols: SymbolSet{sym: true}}
	g.symNode[sym] = id
	g.edges[id] = make(map[NodeID]bool)
	return id
}

// NodeOf returns the node currently owning sym.
func (g *InterferenceGraph) NodeOf(sym Symbol) (NodeID, bool) {
	id, ok := g.symNode[sym]
	return id, ok
}

// Nodes returns every live node id in the graph.
func (g *InterferenceGraph) Nodes() []NodeID {
	result := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		result = append(result, id)
	}
	return result
}

// Node returns the node for an id, or nil if it doesn't exist.
func (g *InterferenceGraph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// AddEdge adds an undirected interference edge between the nodes owning
// a and b. Self-loops are rejected silently.
func (g *InterferenceGraph) AddEdge(a, b Symbol) {
	ida := g.EnsureSymbol(a)
	idb := g.EnsureSymbol(b)
	g.addEdgeNodes(ida, idb)
}

func (g *InterferenceGraph) addEdgeNodes(a, b NodeID) {
	if a == b {
		return
	}
	g.edges[a][b] = true
	g.edges[b][a] = true
}

// HasEdge returns true if the nodes owning a and b interfere.
func (g *InterferenceGraph) HasEdge(a, b Symbol) bool {
	ida, ok := g.symNode[a]
	if !ok {
		return false
	}
	idb, ok := g.symNode[b]
	if !ok {
		return false
	}
	return g.hasEdgeNodes(ida, idb)
}

func (g *InterferenceGraph) hasEdgeNodes(a, b NodeID) bool {
	return g.edges[a][b]
}

// Degree returns the number of distinct neighbors of the node.
func (g *InterferenceGraph) Degree(id NodeID) int {
	return len(g.edges[id])
}

// Neighbors returns the neighbor node ids of id.
func (g *InterferenceGraph) Neighbors(id NodeID) []NodeID {
	result := make([]NodeID, 0, len(g.edges[id]))
	for n := range g.edges[id] {
		result = append(result, n)
	}
	return result
}

// RemoveNode deletes a node and every edge touching it.
func (g *InterferenceGraph) RemoveNode(id NodeID) {
	for n := range g.edges[id] {
		delete(g.edges[n], id)
	}
	node := g.nodes[id]
	if node != nil {
		for sym := range node.Symbols {
			delete(g.symNode, sym)
		}
	}
	delete(g.nodes, id)
	delete(g.edges, id)
}

// Merge coalesces the nodes owning a and b into one node: the merged
// node's neighbor set is the union of the originals' neighbor sets,
// minus each other. The surviving node id is returned; the other node
// is removed and every symbol it owned is remapped to the survivor.
func (g *InterferenceGraph) Merge(a, b Symbol) NodeID {
	ida := g.EnsureSymbol(a)
	idb := g.EnsureSymbol(b)
	if ida == idb {
		return ida
	}

	survivor, absorbed := ida, idb

	for sym := range g.nodes[absorbed].Symbols {
		g.nodes[survivor].Symbols.Add(sym)
		g.symNode[sym] = survivor
	}

	for n := range g.edges[absorbed] {
		if n == survivor {
			continue
		}
		g.addEdgeNodes(survivor, n)
	}

	for n := range g.edges[absorbed] {
		delete(g.edges[n], absorbed)
	}
	delete(g.nodes, absorbed)
	delete(g.edges, absorbed)

	return survivor
}

// CheckSymmetric verifies the invariant that every edge is recorded on
// both endpoints, returning an InternalInvariantViolation if not.
func (g *InterferenceGraph) CheckSymmetric() error {
	for a, neighbors := range g.edges {
		for b := range neighbors {
			if !g.edges[b][a] {
				return &InternalInvariantViolation{Detail: "interference graph edge asymmetry"}
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the graph, for use as Color's private
// working copy; the canonical InterferenceGraph is not mutated by
// coloring.
func (g *InterferenceGraph) Clone() *InterferenceGraph {
	clone := NewInterferenceGraph()
	clone.nextNode = g.nextNode
	for id, node := range g.nodes {
		clone.nodes[id] = &Node{ID: id, Symbols: node.Symbols.Copy()}
	}
	for sym, id := range g.symNode {
		clone.symNode[sym] = id
	}
	for id, neighbors := range g.edges {
		set := make(map[NodeID]bool, len(neighbors))
		for n := range neighbors {
			set[n] = true
		}
		clone.edges[id] = set
	}
	return clone
}

// BuildInterferenceGraph constructs the interference graph from a program
// and its liveness info. Every symbol appearing in any def or use becomes
// a node. For every instruction, every symbol it defines interferes with
// every symbol live immediately after it, except itself and, for copy
// instructions `x := y`, except y, the copy source (coalescing depends
// on this edge being absent).
func BuildInterferenceGraph(program *IntermediateProgram, liveness *LivenessInfo) *InterferenceGraph {
	g := NewInterferenceGraph()

	for sym := range program.AllSymbols() {
		g.EnsureSymbol(sym)
	}

	for i, instr := range program.Instructions {
		liveOut := liveness.LiveOut[i]

		var copySrc Symbol
		isCopy := instr.IsCopy()
		if isCopy {
			_, copySrc = instr.CopyDef()
		}

		for _, d := range instr.Defs {
			s := d.Symbol
			for t := range liveOut {
				if t == s {
					continue
				}
				if isCopy && t == copySrc {
					continue
				}
				g.AddEdge(s, t)
			}
		}
	}

	return g
}

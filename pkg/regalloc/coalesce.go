package regalloc

// Coalesce repeatedly merges the endpoints of copy instructions in the
// interference graph when they are not interfering, and returns a new
// program with every merged (or already-redundant) copy instruction
// removed, and with every def and use renamed to the lowest-named symbol
// of its node. The graph is mutated in place via Merge; the program is
// rebuilt as a value rather than mutated in place.
//
// Safety: a copy whose endpoints interfere is left in the program (they
// cannot share a register). A copy whose endpoints already resolve to the
// same node (coalesced earlier in this same scan, or in a previous full
// scan) is dropped as redundant.
func Coalesce(program *IntermediateProgram, graph *InterferenceGraph) *IntermediateProgram {
	instrs := program.Instructions

	for {
		changed := false
		next := make([]Instruction, 0, len(instrs))

		for _, instr := range instrs {
			if !instr.IsCopy() {
				next = append(next, instr)
				continue
			}

			dst, src := instr.CopyDef()
			nodeDst := graph.EnsureSymbol(dst)
			nodeSrc := graph.EnsureSymbol(src)

			if nodeDst == nodeSrc {
				// Already the same node: redundant copy.
				changed = true
				continue
			}

			if graph.hasEdgeNodes(nodeDst, nodeSrc) {
				// Endpoints interfere: cannot coalesce, keep the copy.
				next = append(next, instr)
				continue
			}

			graph.Merge(dst, src)
			changed = true
		}

		instrs = next
		if !changed {
			break
		}
	}

	// Rename every reference to the lowest-named member of its node, so the
	// returned program names each coalesced node by a single symbol.
	for i := range instrs {
		defs := append([]DefSite(nil), instrs[i].Defs...)
		for j := range defs {
			defs[j].Symbol = lowestMember(graph.Node(graph.EnsureSymbol(defs[j].Symbol)))
		}
		uses := append([]UseSite(nil), instrs[i].Uses...)
		for j := range uses {
			uses[j].Symbol = lowestMember(graph.Node(graph.EnsureSymbol(uses[j].Symbol)))
		}
		instrs[i].Defs, instrs[i].Uses = defs, uses
	}

	return &IntermediateProgram{Instructions: instrs, Frequencies: program.Frequencies}
}

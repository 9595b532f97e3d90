package regalloc

// LivenessInfo holds per-instruction live-in/live-out sets, indexed the
// same way as IntermediateProgram.Instructions.
type LivenessInfo struct {
	LiveIn  []SymbolSet
	LiveOut []SymbolSet
}

// AnalyzeLiveness computes live-in/live-out sets for every instruction in
// the program with a single backward pass.
//
// Scanning backward, at each instruction i:
//  1. record live_out(i) = current L
//  2. remove each def at i from L
//  3. add each use at i to L
//  4. record live_in(i) = current L
//
// A use of a symbol with no prior (program-order preceding)
// definition anywhere is treated as live-on-entry: it simply
// remains in L past the start of the scan. No error is raised for this
// case.
func AnalyzeLiveness(program *IntermediateProgram) *LivenessInfo {
	n := len(program.Instructions)
	info := &LivenessInfo{
		LiveIn:  make([]SymbolSet, n),
		LiveOut: make([]SymbolSet, n),
	}

	live := NewSymbolSet()
	for i := n - 1; i >= 0; i-- {
		instr := program.Instructions[i]

		info.LiveOut[i] = live.Copy()

		for _, d := range instr.Defs {
			live.Remove(d.Symbol)
		}
		for _, u := range instr.Uses {
			live.Add(u.Symbol)
		}

		info.LiveIn[i] = live.Copy()
	}

	return info
}

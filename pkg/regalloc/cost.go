package regalloc

// EstimateCosts computes a spill cost for every symbol appearing in the
// program:
//
//	Cost(s) = sum over instructions i that define or use s of frequency(block_of(i))
//
// Each def and each use contributes one unit weighted by the frequency of
// its instruction's block. A symbol with no occurrences has cost 0.
func EstimateCosts(program *IntermediateProgram) map[Symbol]float64 {
	costs := make(map[Symbol]float64)

	for _, instr := range program.Instructions {
		freq := program.BlockFrequency(instr.Block)
		for _, d := range instr.Defs {
			costs[d.Symbol] += freq
		}
		for _, u := range instr.Uses {
			costs[u.Symbol] += freq
		}
	}

	return costs
}

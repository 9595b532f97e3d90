package regalloc

import "fmt"

// AllocationResult is the output of a complete allocation run.
type AllocationResult struct {
	// Coloring maps every non-spilled symbol in the final program to a
	// color index in [0, k).
	Coloring Coloring
	// Spilled is the set of original symbols demoted to memory, across
	// every spill round.
	Spilled SymbolSet
	// Program is the final rewritten instruction sequence, equal to the
	// input (modulo coalescing) if no spills were required.
	Program *IntermediateProgram
}

// Allocate orchestrates the full pipeline to a fixpoint: Liveness ->
// BuildInterferenceGraph -> Coalesce -> EstimateCosts -> Color,
// restarting from Liveness on the rewritten program whenever Color
// reports a non-empty spill set, until Color succeeds or a safety bound
// on spill rounds is exceeded.
func Allocate(program *IntermediateProgram, k int) (*AllocationResult, error) {
	if err := validate(program, k); err != nil {
		return nil, err
	}

	originalSymbolCount := len(program.AllSymbols())
	maxRounds := originalSymbolCount + 1

	accumulated := NewSymbolSet()
	current := program
	seq := &spillSequence{}

	for round := 1; ; round++ {
		if round > maxRounds {
			return nil, &UnallocatableProgram{Rounds: maxRounds, Spilled: accumulated}
		}

		liveness := AnalyzeLiveness(current)
		graph := BuildInterferenceGraph(current, liveness)
		coalesced := Coalesce(current, graph)

		if err := graph.CheckSymmetric(); err != nil {
			return nil, err
		}

		costs := EstimateCosts(coalesced)

		coloring, spillSet, err := Color(graph, costs, k, nil)
		if err != nil {
			return nil, err
		}

		if len(spillSet) == 0 {
			return &AllocationResult{
				Coloring: coloring,
				Spilled:  accumulated,
				Program:  coalesced,
			}, nil
		}

		accumulated = accumulated.Union(spillSet)
		current = RewriteSpills(coalesced, spillSet, seq)
	}
}

// validate rejects negative frequency, k < 1, a duplicate definition
// within one instruction, or an empty program.
func validate(program *IntermediateProgram, k int) error {
	if k < 1 {
		return &InvalidInput{Reason: fmt.Sprintf("k must be >= 1, got %d", k)}
	}
	if program == nil || len(program.Instructions) == 0 {
		return &InvalidInput{Reason: "program must contain at least one instruction"}
	}
	for block, freq := range program.Frequencies {
		if freq < 0 {
			return &InvalidInput{Reason: fmt.Sprintf("block %q has negative frequency %v", block, freq)}
		}
	}
	for i, instr := range program.Instructions {
		seen := make(map[Symbol]bool, len(instr.Defs))
		for _, d := range instr.Defs {
			if seen[d.Symbol] {
				return &InvalidInput{Reason: fmt.Sprintf("instruction %d defines %q more than once", i, d.Symbol)}
			}
			seen[d.Symbol] = true
		}
	}
	return nil
}

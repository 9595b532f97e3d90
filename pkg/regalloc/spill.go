package regalloc

import "fmt"

// spillSequence hands out globally unique fresh-symbol suffixes across
// every RewriteSpills invocation in a single allocation run, so that
// reload/store pseudo-symbols introduced in different rounds can never
// collide even if earlier rounds' reload/store instructions are still
// present in the program.
type spillSequence struct{ next int }

func (s *spillSequence) fresh(base Symbol) Symbol {
	sym := Symbol(fmt.Sprintf("%s~%d", base, s.next))
	s.next++
	return sym
}

// RewriteSpills transforms program so that every symbol in spilled lives
// in memory: each use is preceded by a reload pseudo-instruction into a
// fresh symbol, and each def is redirected to a fresh symbol followed by
// a store pseudo-instruction. The fresh symbols' live ranges are a
// single instruction each, by construction.
//
// Expands one source instruction into a short, ordered sequence of
// target instructions: reloads, then the (rewritten) original, then
// stores.
func RewriteSpills(program *IntermediateProgram, spilled SymbolSet, seq *spillSequence) *IntermediateProgram {
	next := make([]Instruction, 0, len(program.Instructions))

	for _, instr := range program.Instructions {
		var reloads []Instruction
		var stores []Instruction

		newUses := make([]UseSite, len(instr.Uses))
		copy(newUses, instr.Uses)
		for idx, u := range newUses {
			if !spilled.Contains(u.Symbol) {
				continue
			}
			fresh := seq.fresh(u.Symbol)
			reloads = append(reloads, Instruction{
				Text:  fmt.Sprintf("reload %s <- %s", fresh, u.Symbol),
				Kind:  InstrReload,
				Block: instr.Block,
				Defs:  []DefSite{{Symbol: fresh}},
			})
			newUses[idx] = UseSite{Symbol: fresh, IsLastUse: true}
		}

		newDefs := make([]DefSite, len(instr.Defs))
		copy(newDefs, instr.Defs)
		for idx, d := range newDefs {
			if !spilled.Contains(d.Symbol) {
				continue
			}
			fresh := seq.fresh(d.Symbol)
			stores = append(stores, Instruction{
				Text:  fmt.Sprintf("store %s -> %s", fresh, d.Symbol),
				Kind:  InstrStore,
				Block: instr.Block,
				Uses:  []UseSite{{Symbol: fresh, IsLastUse: true}},
			})
			newDefs[idx] = DefSite{Symbol: fresh, IsDeadDef: d.IsDeadDef}
		}

		rewritten := instr
		rewritten.Uses = newUses
		rewritten.Defs = newDefs

		next = append(next, reloads...)
		next = append(next, rewritten)
		next = append(next, stores...)
	}

	return &IntermediateProgram{Instructions: next, Frequencies: program.Frequencies}
}

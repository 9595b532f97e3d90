package regalloc

import "testing"

func TestAllocateS1SucceedsWithTwoRegisters(t *testing.T) {
	result, err := Allocate(s1Program(), 2)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if len(result.Spilled) != 0 {
		t.Errorf("expected no spills, got %v", result.Spilled)
	}
	if result.Coloring["a"] == result.Coloring["b"] {
		t.Error("a and b interfere and must get different colors")
	}
	if result.Coloring["a"] == result.Coloring["c"] {
		t.Error("a and c interfere and must get different colors")
	}
}

func TestAllocateS2CoalescesBeforeColoring(t *testing.T) {
	result, err := Allocate(s2Program(), 2)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if len(result.Spilled) != 0 {
		t.Errorf("expected no spills, got %v", result.Spilled)
	}
	for _, instr := range result.Program.Instructions {
		if instr.Kind == InstrCopy {
			t.Error("the copy should have been coalesced away")
		}
	}
}

func TestAllocateSucceedsOnFourBlockProgramWithEnoughRegisters(t *testing.T) {
	p := sixSymbolProgram(map[BlockID]float64{"top": 1, "left": 1, "right": 1, "bottom": 1})
	result, err := Allocate(p, 4)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if len(result.Spilled) != 0 {
		t.Fatalf("expected no spills with k=4, got %v", result.Spilled)
	}

	liveness := AnalyzeLiveness(result.Program)
	g := BuildInterferenceGraph(result.Program, liveness)
	assertValidColoring(t, g, result.Coloring)
}

func TestAllocateEscalatesSpillingWhenATriangleSharesItsRegistersContinuously(t *testing.T) {
	// a, b, c form a triangle and are all live out of d's definition, so
	// {a, b, c, d} is a K4. At k=3, once f and e are simplified away, d is
	// the cheapest of the four (1.25) and is spilled. But a, b and c are
	// still live out of that same definition point, so each fresh symbol
	// that replaces d's def re-forms the K4 and is again the cheapest,
	// escalating every round until the safety bound is hit.
	p := sixSymbolProgram(map[BlockID]float64{"top": 1, "left": 0.75, "right": 0.25, "bottom": 1})

	_, err := Allocate(p, 3)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if _, ok := err.(*UnallocatableProgram); !ok {
		t.Errorf("expected *UnallocatableProgram, got %T (%v)", err, err)
	}
}

func TestAllocateReturnsUnallocatableProgramWhenDemandExceedsRegisters(t *testing.T) {
	// a, b, c, d are all simultaneously live at the final instruction, so
	// no amount of spilling can fit them into 2 registers.
	p := &IntermediateProgram{
		Instructions: []Instruction{
			{Defs: []DefSite{{Symbol: "a"}}},
			{Defs: []DefSite{{Symbol: "b"}}, Uses: []UseSite{{Symbol: "a"}}},
			{Defs: []DefSite{{Symbol: "c"}}, Uses: []UseSite{{Symbol: "a"}, {Symbol: "b"}}},
			{Defs: []DefSite{{Symbol: "d"}}, Uses: []UseSite{{Symbol: "a"}, {Symbol: "b"}, {Symbol: "c"}}},
			{Uses: []UseSite{
				{Symbol: "a", IsLastUse: true}, {Symbol: "b", IsLastUse: true},
				{Symbol: "c", IsLastUse: true}, {Symbol: "d", IsLastUse: true},
			}},
		},
	}

	_, err := Allocate(p, 2)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if _, ok := err.(*UnallocatableProgram); !ok {
		t.Errorf("expected *UnallocatableProgram, got %T (%v)", err, err)
	}
}

func TestAllocateIsIdempotentOnceSuccessful(t *testing.T) {
	first, err := Allocate(s1Program(), 2)
	if err != nil {
		t.Fatalf("first Allocate() error = %v", err)
	}

	second, err := Allocate(first.Program, 2)
	if err != nil {
		t.Fatalf("second Allocate() error = %v", err)
	}
	if len(second.Spilled) != 0 {
		t.Errorf("re-allocating an already-successful program should not spill anything new, got %v", second.Spilled)
	}
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	valid := s1Program()

	cases := []struct {
		name    string
		program *IntermediateProgram
		k       int
	}{
		{"k too low", valid, 0},
		{"nil program", nil, 2},
		{"empty program", &IntermediateProgram{}, 2},
		{
			"negative frequency",
			&IntermediateProgram{
				Instructions: []Instruction{{Block: "b", Defs: []DefSite{{Symbol: "x"}}}},
				Frequencies:  map[BlockID]float64{"b": -1},
			},
			2,
		},
		{
			"duplicate def in one instruction",
			&IntermediateProgram{
				Instructions: []Instruction{
					{Defs: []DefSite{{Symbol: "x"}, {Symbol: "x"}}},
				},
			},
			2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Allocate(tc.program, tc.k)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if _, ok := err.(*InvalidInput); !ok {
				t.Errorf("expected *InvalidInput, got %T (%v)", err, err)
			}
		})
	}
}

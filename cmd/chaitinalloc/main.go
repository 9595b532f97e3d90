package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alex-xia-xia/graph-coloring-via-register-allocation/pkg/regalloc"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0"

var (
	numRegisters int
	freqFlags    []string
	inputPath    string
	outputFormat string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chaitinalloc [file]",
		Short: "chaitinalloc runs Chaitin graph-coloring register allocation over a YAML program",
		Long: `chaitinalloc reads a program description (basic blocks of
instructions, their defs and uses, and per-block execution frequencies)
from a YAML file and runs it through liveness analysis, interference
graph construction, coalescing, spill-cost estimation, and Chaitin's
simplify/select coloring, iterating on spills until a fixpoint.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := inputPath
			if len(args) > 0 {
				filename = args[0]
			}
			if filename == "" {
				cmd.Help()
				return nil
			}
			return doAllocate(filename, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().IntVarP(&numRegisters, "regs", "k", 4, "number of available colors (registers)")
	rootCmd.Flags().StringArrayVarP(&freqFlags, "freq", "F", nil, "Override a block's execution frequency (BLOCK=WEIGHT)")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Program descriptor YAML file (alternative to the positional arg)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "o", "text", "Output format: text or yaml")

	return rootCmd
}

// parseFreqOverrides turns "BLOCK=WEIGHT" flag values into a frequency
// override map, following the same NAME=VALUE convention as the
// teacher's -D macro-define flag.
func parseFreqOverrides(flags []string) (map[regalloc.BlockID]float64, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	overrides := make(map[regalloc.BlockID]float64, len(flags))
	for _, raw := range flags {
		block, weight, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --freq value %q, want BLOCK=WEIGHT", raw)
		}
		f, err := strconv.ParseFloat(weight, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --freq weight in %q: %w", raw, err)
		}
		overrides[regalloc.BlockID(block)] = f
	}
	return overrides, nil
}

// programFile is the on-disk YAML shape accepted by chaitinalloc.
type programFile struct {
	Frequencies  map[string]float64 `yaml:"frequencies"`
	Instructions []struct {
		Block string   `yaml:"block"`
		Kind  string   `yaml:"kind"`
		Text  string   `yaml:"text"`
		Defs  []string `yaml:"defs"`
		Uses  []struct {
			Symbol string `yaml:"symbol"`
			Last   bool   `yaml:"last"`
		} `yaml:"uses"`
	} `yaml:"instructions"`
}

func loadProgram(filename string, overrides map[regalloc.BlockID]float64) (*regalloc.IntermediateProgram, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	var pf programFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	instrs := make([]regalloc.Instruction, len(pf.Instructions))
	for i, raw := range pf.Instructions {
		instr := regalloc.Instruction{
			Text:  raw.Text,
			Block: regalloc.BlockID(raw.Block),
		}
		if raw.Kind == "copy" {
			instr.Kind = regalloc.InstrCopy
		}
		for _, d := range raw.Defs {
			instr.Defs = append(instr.Defs, regalloc.DefSite{Symbol: regalloc.Symbol(d)})
		}
		for _, u := range raw.Uses {
			instr.Uses = append(instr.Uses, regalloc.UseSite{
				Symbol:    regalloc.Symbol(u.Symbol),
				IsLastUse: u.Last,
			})
		}
		instrs[i] = instr
	}

	freqs := make(map[regalloc.BlockID]float64, len(pf.Frequencies))
	for block, f := range pf.Frequencies {
		freqs[regalloc.BlockID(block)] = f
	}
	for block, f := range overrides {
		freqs[block] = f
	}
	if len(freqs) == 0 {
		freqs = nil
	}

	return regalloc.NewIntermediateProgram(instrs, freqs), nil
}

func doAllocate(filename string, out, errOut io.Writer) error {
	overrides, err := parseFreqOverrides(freqFlags)
	if err != nil {
		fmt.Fprintf(errOut, "chaitinalloc: %v\n", err)
		return err
	}

	program, err := loadProgram(filename, overrides)
	if err != nil {
		fmt.Fprintf(errOut, "chaitinalloc: %v\n", err)
		return err
	}

	result, err := regalloc.Allocate(program, numRegisters)
	if err != nil {
		fmt.Fprintf(errOut, "chaitinalloc: allocation failed: %v\n", err)
		return err
	}

	return printResult(out, result)
}

// allocationReport is the YAML shape printed when --format yaml is set.
type allocationReport struct {
	Registers int            `yaml:"registers"`
	Coloring  map[string]int `yaml:"coloring"`
	Spilled   []string       `yaml:"spilled"`
}

func printResult(out io.Writer, result *regalloc.AllocationResult) error {
	if outputFormat == "yaml" {
		report := allocationReport{
			Registers: numRegisters,
			Coloring:  make(map[string]int, len(result.Coloring)),
		}
		for sym, color := range result.Coloring {
			report.Coloring[string(sym)] = color
		}
		for _, sym := range result.Spilled.Sorted() {
			report.Spilled = append(report.Spilled, string(sym))
		}
		enc, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		_, err = out.Write(enc)
		return err
	}

	fmt.Fprintf(out, "registers: %d\n", numRegisters)
	fmt.Fprintln(out, "coloring:")
	for _, sym := range result.Program.AllSymbols().Sorted() {
		color, ok := result.Coloring[sym]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %s -> r%d\n", sym, color)
	}
	if len(result.Spilled) == 0 {
		fmt.Fprintln(out, "spilled: none")
		return nil
	}
	fmt.Fprintf(out, "spilled: %v\n", result.Spilled.Sorted())
	return nil
}

// Command analyzer parses a PS2 ELF executable, runs static analysis
// (function discovery, CFG/jump-table/call-graph recovery, hardware-I/O
// and self-modifying-code heuristics), and writes the recompiler's TOML
// configuration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ran-j/ps2recomp/internal/analyzer"
	"github.com/ran-j/ps2recomp/internal/config"
	"github.com/ran-j/ps2recomp/internal/elfimage"
)

func main() {
	functionsFile := flag.String("functions", "", "optional JSON file of known function name/address/size entries")
	ghidraFile := flag.String("ghidra", "", "optional Ghidra exported-symbols CSV")
	output := flag.String("output", "", "TOML config output path (required)")
	flag.Parse()

	if flag.NArg() != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer [-functions file.json] [-ghidra symbols.csv] -output config.toml <input.elf>")
		os.Exit(1)
	}
	input := flag.Arg(0)

	if err := run(input, *output, *functionsFile, *ghidraFile); err != nil {
		log.Fatalf("analyzer: %v", err)
	}
}

func run(input, output, functionsFile, ghidraFile string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	img, err := elfimage.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", input, err)
	}

	extra, err := loadExtraSymbols(functionsFile, ghidraFile)
	if err != nil {
		return err
	}

	result := analyzer.Analyze(img, extra)
	log.Printf("analyzed %d functions (%d recursive, %d patches, %d jump tables)",
		len(result.Functions), len(result.Recursive), len(result.Patches), len(result.JumpTables))

	cfg := result.ToConfiguration(input, output)
	return config.Save(output, cfg)
}

// loadExtraSymbols merges the optional functions-file JSON and Ghidra CSV
// into the address->name map analyzer.Analyze seeds symbol discovery
// with, alongside whatever the ELF's own symbol table already carries.
func loadExtraSymbols(functionsFile, ghidraFile string) (map[uint32]string, error) {
	extra := make(map[uint32]string)

	if functionsFile != "" {
		funcs, err := config.LoadExternalFunctions(functionsFile)
		if err != nil {
			return nil, err
		}
		for _, f := range funcs {
			extra[f.Address] = f.Name
		}
	}

	if ghidraFile != "" {
		symbols, err := config.LoadGhidraSymbols(ghidraFile)
		if err != nil {
			return nil, err
		}
		for _, s := range symbols {
			if _, ok := extra[s.Address]; !ok {
				extra[s.Address] = s.Name
			}
		}
	}

	return extra, nil
}

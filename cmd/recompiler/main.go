// Command recompiler reads the analyzer's TOML configuration, re-analyzes
// the referenced ELF with the configured stub/skip overrides applied, and
// writes the generated Go source implementing every recompiled function.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ran-j/ps2recomp/internal/analyzer"
	"github.com/ran-j/ps2recomp/internal/codegen"
	"github.com/ran-j/ps2recomp/internal/config"
	"github.com/ran-j/ps2recomp/internal/elfimage"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: recompiler <config.toml>")
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		log.Fatalf("recompiler: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.General.Input == "" || cfg.General.Output == "" {
		return fmt.Errorf("config %s: [general].input and [general].output are required", configPath)
	}

	data, err := os.ReadFile(cfg.General.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.General.Input, err)
	}
	img, err := elfimage.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cfg.General.Input, err)
	}

	extra, err := loadExtraSymbols(cfg)
	if err != nil {
		return err
	}

	result := analyzer.Analyze(img, extra)
	applyNameOverrides(result, cfg.General.Stubs, analyzer.CategoryStub)
	applyNameOverrides(result, cfg.General.Skip, analyzer.CategorySkipped)

	units, err := codegen.Generate(result, codegen.Options{
		SingleFileOutput: cfg.General.SingleFileOutput,
		PatchSyscalls:    cfg.General.PatchSyscalls,
		PatchCOP0:        cfg.General.PatchCOP0,
		PatchCache:       cfg.General.PatchCache,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.General.Output, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", cfg.General.Output, err)
	}
	for _, u := range units {
		path := filepath.Join(cfg.General.Output, u.FileName)
		if err := os.WriteFile(path, u.Source, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	log.Printf("wrote %d files to %s", len(units), cfg.General.Output)
	return nil
}

func loadExtraSymbols(cfg *config.Configuration) (map[uint32]string, error) {
	extra := make(map[uint32]string)
	if cfg.General.FunctionsFile != "" {
		funcs, err := config.LoadExternalFunctions(cfg.General.FunctionsFile)
		if err != nil {
			return nil, err
		}
		for _, f := range funcs {
			extra[f.Address] = f.Name
		}
	}
	if cfg.General.GhidraOutput != "" {
		symbols, err := config.LoadGhidraSymbols(cfg.General.GhidraOutput)
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

// applyNameOverrides forces every function whose name appears in names
// into category, letting the TOML config's stubs/skip lists correct the
// heuristic classifier without re-running the analyzer's name-pattern
// guesses.
func applyNameOverrides(result *analyzer.Result, names []string, category analyzer.Category) {
	if len(names) == 0 {
		return
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, fn := range result.Functions {
		if set[fn.Name] {
			fn.Category = category
		}
	}
}

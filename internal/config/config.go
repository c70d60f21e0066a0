// Package config loads and saves the analyzer's TOML configuration, the
// external-functions JSON sidecar, and an optional Ghidra symbol CSV.
// No retro-system config in the retrieval pack uses a config file at all
// (they're built entirely from CLI flags and Go constants), so this
// package's shape is new; its library choice
// (go-toml/v2) is named and justified in DESIGN.md as the one
// out-of-pack dependency the retrieval corpus has no analogue for.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// InstructionPatch overrides one decoded instruction word at address
// with value, used to neutralize syscalls/COP0/cache ops the analyzer
// is configured to patch out.
type InstructionPatch struct {
	Address uint32
	Value   uint32
}

// General holds the [general] table.
type General struct {
	Input             string   `toml:"input"`
	GhidraOutput      string   `toml:"ghidra_output"`
	FunctionsFile     string   `toml:"functions_file"`
	Output            string   `toml:"output"`
	SingleFileOutput  bool     `toml:"single_file_output"`
	PatchSyscalls     bool     `toml:"patch_syscalls"`
	PatchCOP0         bool     `toml:"patch_cop0"`
	PatchCache        bool     `toml:"patch_cache"`
	Stubs             []string `toml:"stubs"`
	Skip              []string `toml:"skip"`
}

// Configuration is the parsed, numeric form of the analyzer config. It is
// decoded from a generic map[string]any rather than a tagged struct
// because address/value fields accept either a quoted "0x..." string or
// a bare TOML integer, and the [mmio] table's keys are themselves
// addresses — neither is expressible as a single static struct shape.
type Configuration struct {
	General     General
	Patches     []InstructionPatch
	MMIO        map[uint32]uint32 // instruction addr -> MMIO addr
}

// Load reads and parses path. Unknown keys are ignored; address/value
// accept either a quoted "0x..." string or a bare TOML integer.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := &Configuration{MMIO: make(map[uint32]uint32)}
	if err := cfg.decodeGeneral(doc); err != nil {
		return nil, err
	}
	if err := cfg.decodePatches(doc); err != nil {
		return nil, err
	}
	if err := cfg.decodeMMIO(doc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Configuration) decodeGeneral(doc map[string]any) error {
	gen, ok := doc["general"].(map[string]any)
	if !ok {
		return nil
	}
	c.General.Input, _ = gen["input"].(string)
	c.General.GhidraOutput, _ = gen["ghidra_output"].(string)
	c.General.FunctionsFile, _ = gen["functions_file"].(string)
	c.General.Output, _ = gen["output"].(string)
	c.General.SingleFileOutput, _ = gen["single_file_output"].(bool)
	c.General.PatchSyscalls, _ = gen["patch_syscalls"].(bool)
	c.General.PatchCOP0, _ = gen["patch_cop0"].(bool)
	c.General.PatchCache, _ = gen["patch_cache"].(bool)
	c.General.Stubs = toStringSlice(gen["stubs"])
	c.General.Skip = toStringSlice(gen["skip"])
	return nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Configuration) decodePatches(doc map[string]any) error {
	patches, ok := doc["patches"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := patches["instructions"].([]any)
	if !ok {
		return nil
	}
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		addr, err := parseU32(m["address"])
		if err != nil {
			return fmt.Errorf("config: patches.instructions[%d].address: %w", i, err)
		}
		val, err := parseU32(m["value"])
		if err != nil {
			return fmt.Errorf("config: patches.instructions[%d].value: %w", i, err)
		}
		c.Patches = append(c.Patches, InstructionPatch{Address: addr, Value: val})
	}
	return nil
}

func (c *Configuration) decodeMMIO(doc map[string]any) error {
	mmio, ok := doc["mmio"].(map[string]any)
	if !ok {
		return nil
	}
	for k, v := range mmio {
		instrAddr, err := parseU32(k)
		if err != nil {
			return fmt.Errorf("config: mmio key %q: %w", k, err)
		}
		vs, ok := v.(string)
		if !ok {
			return fmt.Errorf("config: mmio value for %q is not a string", k)
		}
		mmioAddr, err := parseU32(vs)
		if err != nil {
			return fmt.Errorf("config: mmio value %q: %w", vs, err)
		}
		c.MMIO[instrAddr] = mmioAddr
	}
	return nil
}

// parseU32 accepts either a quoted "0x..." hex string or a bare TOML
// integer (int64, decoded by go-toml as any).
func parseU32(v any) (uint32, error) {
	switch t := v.(type) {
	case string:
		var n uint32
		_, err := fmt.Sscanf(t, "0x%x", &n)
		if err == nil {
			return n, nil
		}
		_, err = fmt.Sscanf(t, "%d", &n)
		return n, err
	case int64:
		return uint32(t), nil
	case float64:
		return uint32(t), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// Save writes cfg back out as TOML with addresses rendered as hex
// strings, matching the schema's documented style.
func Save(path string, cfg *Configuration) error {
	doc := map[string]any{
		"general": map[string]any{
			"input":              cfg.General.Input,
			"ghidra_output":      cfg.General.GhidraOutput,
			"functions_file":     cfg.General.FunctionsFile,
			"output":             cfg.General.Output,
			"single_file_output": cfg.General.SingleFileOutput,
			"patch_syscalls":     cfg.General.PatchSyscalls,
			"patch_cop0":         cfg.General.PatchCOP0,
			"patch_cache":        cfg.General.PatchCache,
			"stubs":              cfg.General.Stubs,
			"skip":               cfg.General.Skip,
		},
	}

	if len(cfg.Patches) > 0 {
		instrs := make([]map[string]string, 0, len(cfg.Patches))
		for _, p := range cfg.Patches {
			instrs = append(instrs, map[string]string{
				"address": fmt.Sprintf("0x%08X", p.Address),
				"value":   fmt.Sprintf("0x%08X", p.Value),
			})
		}
		doc["patches"] = map[string]any{"instructions": instrs}
	}

	if len(cfg.MMIO) > 0 {
		mmio := make(map[string]string, len(cfg.MMIO))
		for instrAddr, mmioAddr := range cfg.MMIO {
			mmio[fmt.Sprintf("0x%08X", instrAddr)] = fmt.Sprintf("0x%08X", mmioAddr)
		}
		doc["mmio"] = mmio
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

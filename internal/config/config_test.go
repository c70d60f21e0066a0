package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesGeneralAndPatchesAndMMIO(t *testing.T) {
	path := writeTemp(t, "cfg.toml", `
[general]
input = "game.elf"
output = "out"
patch_syscalls = true
stubs = ["memcpy", "printf"]

[patches]
instructions = [
  { address = "0x00123456", value = "0x00000000" },
]

[mmio]
"0x00abcdef" = "0x10003800"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Input != "game.elf" || cfg.General.Output != "out" {
		t.Fatalf("general = %+v", cfg.General)
	}
	if !cfg.General.PatchSyscalls {
		t.Fatalf("expected patch_syscalls true")
	}
	if len(cfg.General.Stubs) != 2 {
		t.Fatalf("stubs = %v", cfg.General.Stubs)
	}
	if len(cfg.Patches) != 1 || cfg.Patches[0].Address != 0x00123456 || cfg.Patches[0].Value != 0 {
		t.Fatalf("patches = %+v", cfg.Patches)
	}
	if cfg.MMIO[0x00abcdef] != 0x10003800 {
		t.Fatalf("mmio mapping missing or wrong: %+v", cfg.MMIO)
	}
}

func TestLoadAcceptsBareIntegerAddressForm(t *testing.T) {
	path := writeTemp(t, "cfg.toml", `
[patches]
instructions = [
  { address = 1193046, value = 0 },
]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Patches) != 1 || cfg.Patches[0].Address != 1193046 {
		t.Fatalf("patches = %+v", cfg.Patches)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.toml")

	cfg := &Configuration{
		General: General{Input: "a.elf", Output: "out", PatchCOP0: true},
		Patches: []InstructionPatch{{Address: 0x1000, Value: 0}},
		MMIO:    map[uint32]uint32{0x2000: 0x10003800},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if got.General.Input != "a.elf" || !got.General.PatchCOP0 {
		t.Fatalf("round-tripped general = %+v", got.General)
	}
	if got.MMIO[0x2000] != 0x10003800 {
		t.Fatalf("round-tripped mmio = %+v", got.MMIO)
	}
}

func TestLoadExternalFunctions(t *testing.T) {
	path := writeTemp(t, "funcs.json", `[
		{"name": "memcpy", "address": 4096, "size": 64},
		{"name": "memset", "address": 4160, "size": 32}
	]`)

	funcs, err := LoadExternalFunctions(path)
	if err != nil {
		t.Fatalf("LoadExternalFunctions: %v", err)
	}
	if len(funcs) != 2 || funcs[0].Name != "memcpy" || funcs[0].Address != 4096 {
		t.Fatalf("funcs = %+v", funcs)
	}
}

func TestLoadGhidraSymbolsSkipsMalformedLines(t *testing.T) {
	path := writeTemp(t, "syms.csv", "Name,Location,Type\n"+
		"entry,ram:00100000,Function\n"+
		"bad_row_too_few_columns\n"+
		"other,ram:00200abc,Function\n")

	syms, err := LoadGhidraSymbols(path)
	if err != nil {
		t.Fatalf("LoadGhidraSymbols: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("expected 2 valid rows (bad row skipped), got %d: %+v", len(syms), syms)
	}
	if syms[0].Name != "entry" || syms[0].Address != 0x00100000 {
		t.Fatalf("first symbol = %+v", syms[0])
	}
}

package config

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ExternalFunction is one entry of the functions_file JSON array: a
// known symbol the analyzer should seed without needing to discover it
// from the ELF symbol table or a Ghidra export.
type ExternalFunction struct {
	Name    string `json:"name"`
	Address uint32 `json:"address"`
	Size    uint32 `json:"size"`
}

// LoadExternalFunctions parses the functions_file JSON array referenced
// by [general].functions_file.
func LoadExternalFunctions(path string) ([]ExternalFunction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read functions file %s: %w", path, err)
	}
	var funcs []ExternalFunction
	if err := json.Unmarshal(data, &funcs); err != nil {
		return nil, fmt.Errorf("config: parse functions file %s: %w", path, err)
	}
	return funcs, nil
}

// GhidraSymbol is one row of a Ghidra "Export Symbols" CSV, the subset
// of columns the analyzer actually consumes.
type GhidraSymbol struct {
	Name    string
	Address uint32
}

// LoadGhidraSymbols reads a Ghidra symbol export CSV. Malformed lines
// (wrong column count, unparseable address) are skipped rather than
// aborting the whole import, since Ghidra exports routinely carry a
// handful of exotic entries (thunks, external refs) with blank fields.
func LoadGhidraSymbols(path string) ([]GhidraSymbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open ghidra csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("config: read ghidra csv header: %w", err)
	}
	nameCol, addrCol := findColumns(header)
	if nameCol < 0 || addrCol < 0 {
		return nil, fmt.Errorf("config: ghidra csv %s missing Name/Location columns", path)
	}

	var out []GhidraSymbol
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if nameCol >= len(record) || addrCol >= len(record) {
			continue
		}
		addr, ok := parseGhidraAddress(record[addrCol])
		if !ok {
			continue
		}
		name := strings.TrimSpace(record[nameCol])
		if name == "" {
			continue
		}
		out = append(out, GhidraSymbol{Name: name, Address: addr})
	}
	return out, nil
}

func findColumns(header []string) (nameCol, addrCol int) {
	nameCol, addrCol = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameCol = i
		case "location", "address":
			addrCol = i
		}
	}
	return
}

// parseGhidraAddress accepts both Ghidra's "ram:00123456" form and a
// bare "0x00123456" or "00123456" form; the digits are always read as
// hexadecimal.
func parseGhidraAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

package analyzer

import "github.com/ran-j/ps2recomp/internal/config"

// ToConfiguration projects the analysis result into the subset of fields
// the recompiler's TOML config understands: patched-out instructions and
// the MMIO addresses reached by statically resolvable I/O accesses.
// Function classification itself (stub/skip/library) is not part of the
// TOML schema; it drives the code generator directly from Result.
func (r *Result) ToConfiguration(inputPath, outputPath string) *config.Configuration {
	cfg := &config.Configuration{
		General: config.General{
			Input:  inputPath,
			Output: outputPath,
		},
		MMIO: make(map[uint32]uint32),
	}
	for _, p := range r.Patches {
		cfg.Patches = append(cfg.Patches, config.InstructionPatch{
			Address: p.Address,
			Value:   p.Replacement,
		})
	}
	for start := range r.IOFunctions {
		fn := r.Functions[start]
		constants := trackConstants(fn.Instructions)
		for _, in := range fn.Instructions {
			if !in.Flags.ReadsMemory && !in.Flags.WritesMemory {
				continue
			}
			base, ok := constants[int(in.RS)]
			if !ok {
				continue
			}
			addr := base + uint32(in.ImmSigned())
			if addr >= mmioBase && addr < mmioEnd {
				cfg.MMIO[in.Address] = addr
			}
		}
	}
	return cfg
}

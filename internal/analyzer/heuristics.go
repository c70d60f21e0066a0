package analyzer

import (
	"strings"

	"github.com/ran-j/ps2recomp/internal/r5900"
)

// isReliableSymbolName reports whether name looks like a real, compiler-
// or hand-assigned function name rather than an autogenerated or mangled
// placeholder (e.g. "FUN_00123456", "sub_123456", or an empty/numeric
// string), which the analyzer treats with less confidence when seeding.
func isReliableSymbolName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Trim(name, "0123456789") == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, prefix := range []string{"fun_", "sub_", "unk_", "lab_", "loc_"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

var librarySymbolPrefixes = []string{
	"sce", "_sce", "sif", "gs", "pad", "fio", "sio", "libc", "mem",
	"std", "__", "_Z", "heap", "malloc", "free", "printf", "sprintf",
}

// isSystemSymbolName / isLibrarySymbolName recognise PS2 SDK, SIF, GS,
// pad, and libc/libstdc++ naming conventions the analyzer defaults to
// Category stub/library rather than attempting to recompile.
func isSystemSymbolName(name string) bool {
	return isLibrarySymbolName(name)
}

func isLibrarySymbolName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range librarySymbolPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

var autoSkipNames = map[string]bool{
	"_start":        true,
	"__start":       true,
	"_exit":         true,
	"exit":          true,
	"InitializeOS":  true,
	"ResetEE":       true,
	"FlushCache":    true,
}

// shouldAutoSkipName recognises known boot-time or broken stubs that
// should never be recompiled regardless of other heuristics.
func shouldAutoSkipName(name string) bool {
	return autoSkipNames[name]
}

const mmioBase, mmioEnd = 0x10000000, 0x10010000

const mmiDensityThreshold = 500

// hasHardwareIOSignal reports whether any instruction in instrs loads or
// stores through a statically known MMIO address: base + offset, where the
// base register's value comes from trackConstants' LUI/ORI/ADDIU scan of
// the whole function, lands in the MMIO range.
func hasHardwareIOSignal(instrs []r5900.Instruction) bool {
	constants := trackConstants(instrs)
	for _, in := range instrs {
		if !in.Flags.ReadsMemory && !in.Flags.WritesMemory {
			continue
		}
		if base, ok := constants[int(in.RS)]; ok {
			addr := base + uint32(in.ImmSigned())
			if addr >= mmioBase && addr < mmioEnd {
				return true
			}
		}
	}
	return false
}

// hasLargeComplexMMISignal flags functions with a suspiciously high
// density of MMI (128-bit SIMD) instructions, a common signature of
// hand-tuned vector routines the code generator handles poorly above
// threshold instructions.
func hasLargeComplexMMISignal(instrs []r5900.Instruction, threshold int) bool {
	count := 0
	for _, in := range instrs {
		if in.Flags.IsMMI {
			count++
		}
	}
	return count > threshold
}

// hasSelfModifyingSignal reports whether a store instruction's target,
// when staticaly resolvable, lies within an executable section -
// indicating the function writes to code.
func hasSelfModifyingSignal(instrs []r5900.Instruction, execRanges [][2]uint32) bool {
	constants := trackConstants(instrs)
	for _, in := range instrs {
		if !in.Flags.WritesMemory {
			continue
		}
		base, ok := constants[int(in.RS)]
		if !ok {
			continue
		}
		addr := base + uint32(in.ImmSigned())
		if inExecRange(addr, execRanges) {
			return true
		}
	}
	return false
}

// shouldSkipForPatchDensity reports whether the number of patches found
// in a function is high enough, relative to its size, to make whole-
// function recompilation unreliable; library functions get a stricter
// threshold since they are rarely worth patching through at all.
func shouldSkipForPatchDensity(name string, size uint32, patchCount int, isLibrary bool) bool {
	if size == 0 {
		return patchCount > 0
	}
	instrCount := size / 4
	ratio := float64(patchCount) / float64(instrCount)
	if isLibrary {
		return ratio > 0.05
	}
	return ratio > 0.25
}

// findEntryFunctionIndex locates the function whose range contains
// entryAddr in an address-ordered slice of starts. If entryAddr isn't
// covered by any of them (e.g. the ELF entry point is a small asm stub the
// symbol table never named), it falls back to findEntryFunctionIndexFallback.
func findEntryFunctionIndex(order []uint32, functions map[uint32]*Function, entryAddr uint32) int {
	for i, start := range order {
		fn := functions[start]
		if entryAddr >= fn.Start && entryAddr < fn.End {
			return i
		}
	}
	return findEntryFunctionIndexFallback(order, entryAddr)
}

// findEntryFunctionIndexFallback picks the function with the start
// address closest to, but not after, entryAddr, or the first function when
// every start lies after entryAddr.
func findEntryFunctionIndexFallback(order []uint32, entryAddr uint32) int {
	best := -1
	for i, start := range order {
		if start <= entryAddr {
			best = i
		}
	}
	if best < 0 && len(order) > 0 {
		return 0
	}
	return best
}

// trackConstants does a simple linear forward scan recording the last
// value materialized into each register via LUI/ORI/ADDIU-with-$zero
// chains, used by the MMIO and self-modifying-code heuristics. It is
// intentionally approximate: a register clobbered by anything else
// drops out of the map.
func trackConstants(instrs []r5900.Instruction) map[int]uint32 {
	known := make(map[int]uint32)
	for _, in := range instrs {
		switch in.Op {
		case r5900.OpLUI:
			known[int(in.RT)] = uint32(in.Imm16) << 16
		case r5900.OpORI:
			if base, ok := known[int(in.RS)]; ok {
				known[int(in.RT)] = base | uint32(in.Imm16)
			} else {
				delete(known, int(in.RT))
			}
		case r5900.OpADDIU:
			if in.RS == 0 {
				known[int(in.RT)] = uint32(in.ImmSigned())
			} else if base, ok := known[int(in.RS)]; ok {
				known[int(in.RT)] = base + uint32(in.ImmSigned())
			} else {
				delete(known, int(in.RT))
			}
		default:
			if writesGPR(in) {
				delete(known, int(in.RT))
				delete(known, int(in.RD))
			}
		}
	}
	return known
}

func writesGPR(in r5900.Instruction) bool {
	switch in.Op {
	case r5900.OpLUI, r5900.OpORI, r5900.OpADDIU:
		return false // handled explicitly above
	}
	return !in.Flags.IsBranch && !in.Flags.WritesMemory && in.Op != r5900.OpUnknown
}

// classify assigns fn.Category using the heuristics above, in the order
// the analyzer documents: auto-skip list first, then library/system
// naming, then the large-MMI-density signal (oversized hand-tuned vector
// routines are stubbed rather than recompiled), defaulting to normal.
// Functions with a hardware-I/O or self-modifying signal still classify
// as normal here; those signals only affect patch identification, run in
// a later pass once the full patch list is known.
func classify(fn *Function) {
	switch {
	case shouldAutoSkipName(fn.Name):
		fn.Category = CategorySkipped
	case !isReliableSymbolName(fn.Name) && isLibrarySymbolName(fn.Name):
		fn.Category = CategoryStub
	case isSystemSymbolName(fn.Name):
		fn.Category = CategoryLibrary
	case hasLargeComplexMMISignal(fn.Instructions, mmiDensityThreshold):
		fn.Category = CategoryStub
	default:
		fn.Category = CategoryNormal
	}
}

// reclassifyByPatchDensity runs once the full patch list is known,
// downgrading any normal/library function whose patch density is too
// high to recompile reliably to Category skipped.
func reclassifyByPatchDensity(r *Result) {
	patchCounts := make(map[uint32]int)
	for _, p := range r.Patches {
		for _, start := range r.Order {
			fn := r.Functions[start]
			if p.Address >= fn.Start && p.Address < fn.End {
				patchCounts[start]++
				break
			}
		}
	}
	for _, start := range r.Order {
		fn := r.Functions[start]
		if fn.Category != CategoryNormal && fn.Category != CategoryLibrary {
			continue
		}
		size := fn.End - fn.Start
		if shouldSkipForPatchDensity(fn.Name, size, patchCounts[start], fn.Category == CategoryLibrary) {
			fn.Category = CategorySkipped
		}
	}
}

package analyzer

import (
	"sort"

	"github.com/ran-j/ps2recomp/internal/elfimage"
	"github.com/ran-j/ps2recomp/internal/r5900"
)

const sttFunc = 2 // ELF32_ST_TYPE FUNC

// seedFunctions builds the initial function table from the ELF symbol
// table, the entry point, and any externally supplied symbols (Ghidra
// export or functions_file). A symbol with zero size has its end
// inferred by scanning forward to the next function boundary.
func seedFunctions(img *elfimage.Image, extra map[uint32]string, execRanges [][2]uint32) map[uint32]*Function {
	starts := make(map[uint32]string)

	for _, sym := range img.Symbols {
		if sym.STType() != sttFunc || sym.Name == "" {
			continue
		}
		if !inExecRange(sym.Value, execRanges) {
			continue
		}
		starts[sym.Value] = sym.Name
	}
	for addr, name := range extra {
		if _, ok := starts[addr]; !ok {
			starts[addr] = name
		}
	}
	if _, ok := starts[img.EntryPoint]; !ok {
		starts[img.EntryPoint] = "entry"
	}

	sizes := make(map[uint32]uint32)
	for _, sym := range img.Symbols {
		if sym.STType() == sttFunc && sym.Size > 0 {
			sizes[sym.Value] = sym.Size
		}
	}

	ordered := make([]uint32, 0, len(starts))
	for addr := range starts {
		ordered = append(ordered, addr)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	functions := make(map[uint32]*Function, len(ordered))
	for i, start := range ordered {
		end := start + sizes[start]
		if end == start {
			end = inferFunctionEnd(start, ordered, i, execRanges)
		}
		if end <= start {
			end = start + 4
		}
		functions[start] = &Function{
			Name:  starts[start],
			Start: start,
			End:   end,
		}
	}
	return functions
}

// inferFunctionEnd scans forward to the next known function start; absent
// one, it falls back to the end of the executable range containing start.
func inferFunctionEnd(start uint32, ordered []uint32, idx int, execRanges [][2]uint32) uint32 {
	if idx+1 < len(ordered) {
		return ordered[idx+1]
	}
	for _, r := range execRanges {
		if start >= r[0] && start < r[1] {
			return r[1]
		}
	}
	return start + 4
}

func inExecRange(addr uint32, ranges [][2]uint32) bool {
	for _, r := range ranges {
		if addr >= r[0] && addr < r[1] {
			return true
		}
	}
	return false
}

// decodeFunction decodes every word in [fn.Start, fn.End) into an
// Instruction. A read failure truncates the function at the last
// successfully decoded instruction rather than aborting analysis.
func decodeFunction(fn *Function, read wordReader) {
	for addr := fn.Start; addr < fn.End; addr += 4 {
		word, ok := read(addr)
		if !ok {
			fn.End = addr
			break
		}
		fn.Instructions = append(fn.Instructions, r5900.Decode(word, addr))
	}
	fn.IsLeaf = !containsCall(fn.Instructions)
}

func containsCall(instrs []r5900.Instruction) bool {
	for _, in := range instrs {
		if in.Flags.IsCall {
			return true
		}
	}
	return false
}

package analyzer

import "github.com/ran-j/ps2recomp/internal/r5900"

const maxJumpTableEntries = 512

// detectJumpTablesForFunction looks for the canonical computed-jr chain:
// a table base built from lui/addiu (or ori), added to an index via addu,
// dereferenced by lw, and finally jumped to by jr. The index scaling
// itself is not inspected. Each jr matching the pattern yields one
// JumpTable; entries are enumerated via read until a read failure, a
// word that is not 4-byte aligned, or maxJumpTableEntries, at which point
// enumeration truncates rather than aborting the whole function.
func detectJumpTablesForFunction(fn *Function, read wordReader) []JumpTable {
	var tables []JumpTable
	constants := trackConstants(fn.Instructions)

	for i, in := range fn.Instructions {
		if in.Op != r5900.OpJR {
			continue
		}
		tableAddr, base, ok := resolveJumpTableBase(fn.Instructions, i, constants)
		if !ok {
			continue
		}
		entries := enumerateJumpTable(tableAddr, read)
		if len(entries) == 0 {
			continue
		}
		tables = append(tables, JumpTable{
			Address:    in.Address,
			Base:       base,
			Entries:    entries,
			FunctionID: fn.Start,
		})
	}
	return tables
}

// resolveJumpTableBase walks backward from the jr at index jrIdx looking
// for the lw that loaded the register jr reads, then (unless the lw's base
// is already a known constant) the addu that built its address, taking
// whichever addu operand holds a known constant as the table's base.
func resolveJumpTableBase(instrs []r5900.Instruction, jrIdx int, constants map[int]uint32) (tableAddr uint32, base uint32, ok bool) {
	jr := instrs[jrIdx]
	targetReg := int(jr.RS)

	var lw *r5900.Instruction
	for i := jrIdx - 1; i >= 0 && i >= jrIdx-8; i-- {
		if instrs[i].Op == r5900.OpLW && int(instrs[i].RT) == targetReg {
			in := instrs[i]
			lw = &in
			break
		}
	}
	if lw == nil {
		return 0, 0, false
	}

	if addrBase, known := constants[int(lw.RS)]; known {
		return addrBase + uint32(lw.ImmSigned()), addrBase, true
	}

	for i := jrIdx - 1; i >= 0 && i >= jrIdx-16; i-- {
		if instrs[i].Op == r5900.OpADDU && int(instrs[i].RD) == int(lw.RS) {
			if addrBase, known := constants[int(instrs[i].RS)]; known {
				return addrBase + uint32(lw.ImmSigned()), addrBase, true
			}
			if addrBase, known := constants[int(instrs[i].RT)]; known {
				return addrBase + uint32(lw.ImmSigned()), addrBase, true
			}
		}
	}
	return 0, 0, false
}

func enumerateJumpTable(tableAddr uint32, read wordReader) []uint32 {
	var entries []uint32
	for i := 0; i < maxJumpTableEntries; i++ {
		word, ok := read(tableAddr + uint32(i)*4)
		if !ok {
			break
		}
		if word%4 != 0 {
			break
		}
		entries = append(entries, word)
	}
	return entries
}

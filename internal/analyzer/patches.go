package analyzer

import "github.com/ran-j/ps2recomp/internal/r5900"

// identifyPatches finds instructions the generated code cannot run as-is:
// stores whose statically resolved target lies in any executable range
// (self-modifying code the static recompiler cannot reproduce) are
// replaced with a NOP (encoded as SLL $0,$0,0, i.e. the all-zero word).
func identifyPatches(r *Result, execRanges [][2]uint32) []Patch {
	var patches []Patch
	for _, start := range r.Order {
		fn := r.Functions[start]
		constants := trackConstants(fn.Instructions)
		for _, in := range fn.Instructions {
			if !in.Flags.WritesMemory {
				continue
			}
			addr, ok := tryResolveBasePlusOffset(in, constants)
			if !ok {
				addr, ok = tryResolveLuiBase(fn.Instructions, in)
			}
			if !ok {
				continue
			}
			if inExecRange(addr, execRanges) {
				patches = append(patches, Patch{
					Address:     in.Address,
					Replacement: 0,
					Reason:      "store targets executable code region",
				})
			}
		}
	}
	return patches
}

// tryResolveBasePlusOffset resolves a store's effective address when its
// base register's value is already known from a prior lui/ori/addiu
// chain tracked by trackConstants.
func tryResolveBasePlusOffset(in r5900.Instruction, constants map[int]uint32) (uint32, bool) {
	base, ok := constants[int(in.RS)]
	if !ok {
		return 0, false
	}
	return base + uint32(in.ImmSigned()), true
}

// tryResolveLuiBase falls back to scanning backward for the nearest
// lui that targets the store's base register, for the case where the
// base was computed via a single lui with no addiu/ori fixup (i.e. the
// low 16 bits of the target address are zero).
func tryResolveLuiBase(instrs []r5900.Instruction, store r5900.Instruction) (uint32, bool) {
	var lastLUI *r5900.Instruction
	for i := range instrs {
		in := instrs[i]
		if in.Address >= store.Address {
			break
		}
		if in.Op == r5900.OpLUI && int(in.RT) == int(store.RS) {
			lastLUI = &instrs[i]
		}
	}
	if lastLUI == nil {
		return 0, false
	}
	return uint32(lastLUI.Imm16)<<16 + uint32(store.ImmSigned()), true
}

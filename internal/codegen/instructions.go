package codegen

import (
	"fmt"
	"strings"

	"github.com/ran-j/ps2recomp/internal/r5900"
)

// emitInstruction appends the Go statement(s) implementing in to b. Most
// $zero writes are dropped at generation time; cpucontext's SetGPR*
// setters also ignore writes to r0, so r0 always reads zero either way.
func emitInstruction(b *strings.Builder, in r5900.Instruction, opts Options) {
	if in.Op == r5900.OpUnknown {
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x)\n\treturn\n", in.Address)
		return
	}
	switch {
	case in.Op == r5900.OpSYSCALL && opts.PatchSyscalls:
		fmt.Fprintf(b, "\t// syscall patched out\n")
	case (in.Op == r5900.OpMFC0 || in.Op == r5900.OpMTC0) && opts.PatchCOP0:
		fmt.Fprintf(b, "\t// cop0 access patched out\n")
	case (in.Op == r5900.OpCACHE || in.Op == r5900.OpSYNC || in.Op == r5900.OpPREF) && opts.PatchCache:
		fmt.Fprintf(b, "\t// cache op patched out\n")
	case in.Flags.IsMMI:
		emitMMI(b, in)
	case in.Flags.IsCOP1:
		emitCOP1(b, in)
	case in.Op == r5900.OpSYSCALL:
		fmt.Fprintf(b, "\truntime.HandleSyscall(ctx, mem)\n")
	case in.Flags.ReadsMemory:
		emitLoad(b, in)
	case in.Flags.WritesMemory:
		emitStore(b, in)
	default:
		emitALU(b, in)
	}
}

func gpr(r uint8) string { return fmt.Sprintf("ctx.GPRU64(%d)", r) }
func gprs(r uint8) string { return fmt.Sprintf("ctx.GPRS64(%d)", r) }

// setGPR32 emits a 32-bit sign-extending write, a no-op when rd is $zero.
func setGPR32(b *strings.Builder, rd uint8, expr string) {
	if rd == 0 {
		return
	}
	fmt.Fprintf(b, "\tctx.SetGPRS32(%d, int32(%s))\n", rd, expr)
}

func setGPR64(b *strings.Builder, rd uint8, expr string) {
	if rd == 0 {
		return
	}
	fmt.Fprintf(b, "\tctx.SetGPRU64(%d, uint64(%s))\n", rd, expr)
}

// emitOverflowALU implements ADD/ADDI/SUB's overflow-trapping contract: fn
// (runtime.AddOverflow32 or runtime.SubOverflow32) computes the 32-bit
// result and reports whether it overflowed; on overflow the destination is
// left untouched and control traps into the INTEGER_OVERFLOW exception
// path instead.
func emitOverflowALU(b *strings.Builder, rd uint8, addr uint32, fn, a, c string) {
	fmt.Fprintf(b, "\tif v, ok := %s(int32(%s), int32(%s)); ok {\n", fn, a, c)
	setGPR32(b, rd, "v")
	fmt.Fprintf(b, "\t} else {\n\t\truntime.SignalOverflow(ctx, %#x)\n\t}\n", addr)
}

func emitALU(b *strings.Builder, in r5900.Instruction) {
	switch in.Op {
	case r5900.OpLUI:
		setGPR32(b, in.RT, fmt.Sprintf("%#x", uint32(in.Imm16)<<16))
	case r5900.OpADDIU:
		setGPR32(b, in.RT, fmt.Sprintf("%s + int64(%d)", gprs(in.RS), in.ImmSigned()))
	case r5900.OpADDI:
		emitOverflowALU(b, in.RT, in.Address, "runtime.AddOverflow32", gprs(in.RS), fmt.Sprintf("%d", in.ImmSigned()))
	case r5900.OpDADDIU, r5900.OpDADDI:
		setGPR64(b, in.RT, fmt.Sprintf("%s + int64(%d)", gprs(in.RS), in.ImmSigned()))
	case r5900.OpSLTI:
		setGPR32(b, in.RT, fmt.Sprintf("runtime.BoolInt(%s < int64(%d))", gprs(in.RS), in.ImmSigned()))
	case r5900.OpSLTIU:
		setGPR32(b, in.RT, fmt.Sprintf("runtime.BoolInt(%s < uint64(%d))", gpr(in.RS), uint32(in.ImmSigned())))
	case r5900.OpANDI:
		setGPR32(b, in.RT, fmt.Sprintf("%s & uint64(%#x)", gpr(in.RS), in.ImmZeroExtended()))
	case r5900.OpORI:
		setGPR32(b, in.RT, fmt.Sprintf("%s | uint64(%#x)", gpr(in.RS), in.ImmZeroExtended()))
	case r5900.OpXORI:
		setGPR32(b, in.RT, fmt.Sprintf("%s ^ uint64(%#x)", gpr(in.RS), in.ImmZeroExtended()))
	case r5900.OpADD:
		emitOverflowALU(b, in.RD, in.Address, "runtime.AddOverflow32", gprs(in.RS), gprs(in.RT))
	case r5900.OpADDU:
		setGPR32(b, in.RD, fmt.Sprintf("%s + %s", gprs(in.RS), gprs(in.RT)))
	case r5900.OpDADD, r5900.OpDADDU:
		setGPR64(b, in.RD, fmt.Sprintf("%s + %s", gprs(in.RS), gprs(in.RT)))
	case r5900.OpSUB:
		emitOverflowALU(b, in.RD, in.Address, "runtime.SubOverflow32", gprs(in.RS), gprs(in.RT))
	case r5900.OpSUBU:
		setGPR32(b, in.RD, fmt.Sprintf("%s - %s", gprs(in.RS), gprs(in.RT)))
	case r5900.OpDSUB, r5900.OpDSUBU:
		setGPR64(b, in.RD, fmt.Sprintf("%s - %s", gprs(in.RS), gprs(in.RT)))
	case r5900.OpAND:
		setGPR64(b, in.RD, fmt.Sprintf("%s & %s", gpr(in.RS), gpr(in.RT)))
	case r5900.OpOR:
		setGPR64(b, in.RD, fmt.Sprintf("%s | %s", gpr(in.RS), gpr(in.RT)))
	case r5900.OpXOR:
		setGPR64(b, in.RD, fmt.Sprintf("%s ^ %s", gpr(in.RS), gpr(in.RT)))
	case r5900.OpNOR:
		setGPR64(b, in.RD, fmt.Sprintf("^(%s | %s)", gpr(in.RS), gpr(in.RT)))
	case r5900.OpSLT:
		setGPR32(b, in.RD, fmt.Sprintf("runtime.BoolInt(%s < %s)", gprs(in.RS), gprs(in.RT)))
	case r5900.OpSLTU:
		setGPR32(b, in.RD, fmt.Sprintf("runtime.BoolInt(%s < %s)", gpr(in.RS), gpr(in.RT)))
	case r5900.OpSLL:
		if in.RD == 0 && in.RT == 0 && in.Shamt == 0 {
			fmt.Fprintf(b, "\t// nop\n")
			return
		}
		setGPR32(b, in.RD, fmt.Sprintf("uint32(%s) << %d", gpr(in.RT), in.Shamt))
	case r5900.OpSRL:
		setGPR32(b, in.RD, fmt.Sprintf("uint32(%s) >> %d", gpr(in.RT), in.Shamt))
	case r5900.OpSRA:
		setGPR32(b, in.RD, fmt.Sprintf("int32(%s) >> %d", gprs(in.RT), in.Shamt))
	case r5900.OpSLLV:
		setGPR32(b, in.RD, fmt.Sprintf("uint32(%s) << (uint32(%s) & 0x1F)", gpr(in.RT), gpr(in.RS)))
	case r5900.OpSRLV:
		setGPR32(b, in.RD, fmt.Sprintf("uint32(%s) >> (uint32(%s) & 0x1F)", gpr(in.RT), gpr(in.RS)))
	case r5900.OpSRAV:
		setGPR32(b, in.RD, fmt.Sprintf("int32(%s) >> (uint32(%s) & 0x1F)", gprs(in.RT), gpr(in.RS)))
	case r5900.OpMOVZ:
		fmt.Fprintf(b, "\tif %s == 0 {\n", gpr(in.RT))
		setGPR64(b, in.RD, gpr(in.RS))
		fmt.Fprintf(b, "\t}\n")
	case r5900.OpMOVN:
		fmt.Fprintf(b, "\tif %s != 0 {\n", gpr(in.RT))
		setGPR64(b, in.RD, gpr(in.RS))
		fmt.Fprintf(b, "\t}\n")
	case r5900.OpMULT, r5900.OpMULTU:
		fmt.Fprintf(b, "\tctx.LO, ctx.HI = runtime.Mult32(%s, %s, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpMULT)
		setGPR32(b, in.RD, "ctx.LO")
	case r5900.OpDIV, r5900.OpDIVU:
		fmt.Fprintf(b, "\tctx.LO, ctx.HI = runtime.Div32(%s, %s, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpDIV)
	case r5900.OpMFHI:
		setGPR64(b, in.RD, "ctx.HI")
	case r5900.OpMFLO:
		setGPR64(b, in.RD, "ctx.LO")
	case r5900.OpMTHI:
		fmt.Fprintf(b, "\tctx.HI = %s\n", gpr(in.RS))
	case r5900.OpMTLO:
		fmt.Fprintf(b, "\tctx.LO = %s\n", gpr(in.RS))
	case r5900.OpMFC0:
		setGPR32(b, in.RT, fmt.Sprintf("runtime.ReadCOP0(ctx, %d)", in.RD))
	case r5900.OpMTC0:
		fmt.Fprintf(b, "\truntime.WriteCOP0(ctx, %d, %s)\n", in.RD, gpr(in.RT))
	case r5900.OpCACHE, r5900.OpSYNC, r5900.OpPREF:
		fmt.Fprintf(b, "\t// %s: no-op on a host-memory-backed model\n", in.Op.String())
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x) // unhandled op %s\n", in.Address, in.Op.String())
		fmt.Fprintf(b, "\treturn\n")
	}
}

func emitLoad(b *strings.Builder, in r5900.Instruction) {
	addr := fmt.Sprintf("uint32(int32(%s) + int32(%d))", gprs(in.RS), in.ImmSigned())
	switch in.Op {
	case r5900.OpLB:
		emitLoadCall(b, in.RT, "runtime.LoadSignExtend8", addr, true)
	case r5900.OpLBU:
		emitLoadCall(b, in.RT, "runtime.Load8", addr, false)
	case r5900.OpLH:
		emitLoadCall(b, in.RT, "runtime.LoadSignExtend16", addr, true)
	case r5900.OpLHU:
		emitLoadCall(b, in.RT, "runtime.Load16", addr, false)
	case r5900.OpLW:
		emitLoadCall(b, in.RT, "runtime.LoadSignExtend32", addr, true)
	case r5900.OpLWU:
		emitLoadCall(b, in.RT, "runtime.Load32", addr, false)
	case r5900.OpLD:
		if in.RT != 0 {
			fmt.Fprintf(b, "\tctx.SetGPRU64(%d, runtime.Load64(mem, %s))\n", in.RT, addr)
		}
	case r5900.OpLQ:
		if in.RT != 0 {
			fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.Load128(mem, %s))\n", in.RT, addr)
		}
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x) // unhandled load %s\n", in.Address, in.Op.String())
		fmt.Fprintf(b, "\treturn\n")
	}
}

func emitLoadCall(b *strings.Builder, rt uint8, fn, addr string, signExtend32 bool) {
	if rt == 0 {
		fmt.Fprintf(b, "\t_ = %s(mem, %s)\n", fn, addr)
		return
	}
	if signExtend32 {
		fmt.Fprintf(b, "\tctx.SetGPRS32(%d, %s(mem, %s))\n", rt, fn, addr)
	} else {
		fmt.Fprintf(b, "\tctx.SetGPRU32(%d, %s(mem, %s))\n", rt, fn, addr)
	}
}

func emitStore(b *strings.Builder, in r5900.Instruction) {
	addr := fmt.Sprintf("uint32(int32(%s) + int32(%d))", gprs(in.RS), in.ImmSigned())
	switch in.Op {
	case r5900.OpSB:
		fmt.Fprintf(b, "\truntime.Store8(mem, %s, byte(%s))\n", addr, gpr(in.RT))
	case r5900.OpSH:
		fmt.Fprintf(b, "\truntime.Store16(mem, %s, uint16(%s))\n", addr, gpr(in.RT))
	case r5900.OpSW:
		fmt.Fprintf(b, "\truntime.Store32(mem, %s, uint32(%s))\n", addr, gpr(in.RT))
	case r5900.OpSD:
		fmt.Fprintf(b, "\truntime.Store64(mem, %s, %s)\n", addr, gpr(in.RT))
	case r5900.OpSQ:
		fmt.Fprintf(b, "\truntime.Store128(mem, %s, ctx.GPRVec(%d))\n", addr, in.RT)
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x) // unhandled store %s\n", in.Address, in.Op.String())
		fmt.Fprintf(b, "\treturn\n")
	}
}

func emitMMI(b *strings.Builder, in r5900.Instruction) {
	switch in.Op {
	case r5900.OpPADDB, r5900.OpPADDH, r5900.OpPADDW, r5900.OpPSUBB, r5900.OpPSUBH, r5900.OpPSUBW,
		r5900.OpPAND, r5900.OpPOR, r5900.OpPXOR, r5900.OpPNOR:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.MMIBinary(%q, ctx.GPRVec(%d), ctx.GPRVec(%d)))\n",
			in.RD, strings.ToUpper(in.Op.String()), in.RS, in.RT)
	case r5900.OpPADDSB, r5900.OpPADDSH, r5900.OpPADDSW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.MMIPacked(%q, ctx.GPRVec(%d), ctx.GPRVec(%d)))\n",
			in.RD, strings.ToUpper(in.Op.String()), in.RS, in.RT)
	case r5900.OpPABSH, r5900.OpPABSW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.MMIPacked(%q, ctx.GPRVec(%d), ctx.GPRVec(%d)))\n",
			in.RD, strings.ToUpper(in.Op.String()), in.RT, in.RT)
	case r5900.OpPEXTLW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PExtLW(ctx.GPRVec(%d), ctx.GPRVec(%d)))\n", in.RD, in.RS, in.RT)
	case r5900.OpPEXTUW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PExtUW(ctx.GPRVec(%d), ctx.GPRVec(%d)))\n", in.RD, in.RS, in.RT)
	case r5900.OpPPACW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PPacW(ctx.GPRVec(%d), ctx.GPRVec(%d)))\n", in.RD, in.RS, in.RT)
	case r5900.OpPCPYLD:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PCpyLD(ctx.GPRVec(%d), ctx.GPRVec(%d)))\n", in.RD, in.RS, in.RT)
	case r5900.OpPCPYUD:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PCpyUD(ctx.GPRVec(%d), ctx.GPRVec(%d)))\n", in.RD, in.RS, in.RT)
	case r5900.OpPEXEH:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PExEH(ctx.GPRVec(%d)))\n", in.RD, in.RT)
	case r5900.OpPEXEW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.PExEW(ctx.GPRVec(%d)))\n", in.RD, in.RT)
	case r5900.OpQFSRV:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.QFSRV(ctx.GPRVec(%d), ctx.GPRVec(%d), ctx.SA))\n", in.RD, in.RS, in.RT)
	case r5900.OpPSLLH, r5900.OpPSRLH, r5900.OpPSRAH, r5900.OpPSLLW, r5900.OpPSRLW, r5900.OpPSRAW:
		fmt.Fprintf(b, "\tctx.SetGPRVec(%d, runtime.MMIShift(%q, ctx.GPRVec(%d), %d))\n",
			in.RD, in.Op.String(), in.RT, in.Shamt)
	case r5900.OpMULT1, r5900.OpMULTU1:
		fmt.Fprintf(b, "\tctx.LO1, ctx.HI1 = runtime.Mult1(%s, %s, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpMULT1)
		setGPR32(b, in.RD, "ctx.LO1")
	case r5900.OpDIV1, r5900.OpDIVU1:
		fmt.Fprintf(b, "\tctx.LO1, ctx.HI1 = runtime.Div1(%s, %s, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpDIV1)
	case r5900.OpMADD, r5900.OpMADDU:
		fmt.Fprintf(b, "\tctx.LO, ctx.HI = runtime.Madd32(%s, %s, ctx.HI, ctx.LO, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpMADD)
		setGPR32(b, in.RD, "ctx.LO")
	case r5900.OpMADD1, r5900.OpMADDU1:
		fmt.Fprintf(b, "\tctx.LO1, ctx.HI1 = runtime.Madd32(%s, %s, ctx.HI1, ctx.LO1, %v)\n", gpr(in.RS), gpr(in.RT), in.Op == r5900.OpMADD1)
		setGPR32(b, in.RD, "ctx.LO1")
	case r5900.OpPMADDW:
		fmt.Fprintf(b, "\tctx.LO, ctx.HI = runtime.PMaddW(ctx.GPRVec(%d), ctx.GPRVec(%d), ctx.HI, ctx.LO)\n", in.RS, in.RT)
	case r5900.OpMFHI1:
		setGPR64(b, in.RD, "ctx.HI1")
	case r5900.OpMFLO1:
		setGPR64(b, in.RD, "ctx.LO1")
	case r5900.OpMTHI1:
		fmt.Fprintf(b, "\tctx.HI1 = %s\n", gpr(in.RS))
	case r5900.OpMTLO1:
		fmt.Fprintf(b, "\tctx.LO1 = %s\n", gpr(in.RS))
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x) // unhandled MMI op %s\n", in.Address, in.Op.String())
		fmt.Fprintf(b, "\treturn\n")
	}
}

func emitCOP1(b *strings.Builder, in r5900.Instruction) {
	switch in.Op {
	case r5900.OpMFC1:
		setGPR32(b, in.RT, fmt.Sprintf("runtime.F32Bits(ctx.F[%d])", in.RD))
	case r5900.OpMTC1:
		fmt.Fprintf(b, "\tctx.F[%d] = runtime.BitsF32(uint32(%s))\n", in.RD, gpr(in.RT))
	case r5900.OpADD_S:
		fmt.Fprintf(b, "\tctx.F[%d] = ctx.F[%d] + ctx.F[%d]\n", in.RD, in.RS, in.RT)
	case r5900.OpSUB_S:
		fmt.Fprintf(b, "\tctx.F[%d] = ctx.F[%d] - ctx.F[%d]\n", in.RD, in.RS, in.RT)
	case r5900.OpMUL_S:
		fmt.Fprintf(b, "\tctx.F[%d] = ctx.F[%d] * ctx.F[%d]\n", in.RD, in.RS, in.RT)
	case r5900.OpDIV_S:
		fmt.Fprintf(b, "\tctx.F[%d] = ctx.F[%d] / ctx.F[%d]\n", in.RD, in.RS, in.RT)
	case r5900.OpMOV_S:
		fmt.Fprintf(b, "\tctx.F[%d] = ctx.F[%d]\n", in.RD, in.RS)
	case r5900.OpNEG_S:
		fmt.Fprintf(b, "\tctx.F[%d] = -ctx.F[%d]\n", in.RD, in.RS)
	case r5900.OpC_COND_S:
		fmt.Fprintf(b, "\tctx.SetFPCond(cpucontext.FPCompare(%d, ctx.F[%d], ctx.F[%d]))\n", uint8(in.Cond), in.RS, in.RT)
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x) // unhandled cop1 op %s\n", in.Address, in.Op.String())
		fmt.Fprintf(b, "\treturn\n")
	}
}

package runtime

import (
	"math"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/kernel"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// active is the Runtime generated code's Trap/CallDynamic/HandleSyscall
// calls dispatch through. Generated functions only ever carry ctx and
// mem, so the runtime they belong to has to be reachable some other way;
// Run binds it here, same as DispatchLoop being the only goroutine
// allowed to advance ctx.PC.
var active *Runtime

// BindKernel attaches a Kernel for HandleSyscall to dispatch into. Call
// once during startup, before Run.
func (r *Runtime) BindKernel(k *kernel.Kernel) { r.Kernel = k }

// Trap handles an instruction codegen could not translate: an OpUnknown
// decode, or an opcode recognized but not yet implemented in codegen. It
// raises the same exception path as an illegal instruction would.
func Trap(ctx *cpucontext.Context, addr uint32) {
	if active == nil {
		return
	}
	active.Logger.Printf("trap: unhandled instruction at pc=0x%08X", addr)
	active.SignalException(ctx, ExceptionUnknownOpcode)
}

// CallDynamic resolves target against the bound runtime's function table.
// Used for jalr/computed-jump targets and calls to functions codegen
// classified as library/stub stand-ins rather than emitting directly.
func CallDynamic(ctx *cpucontext.Context, mem *memory.Space, target uint32) {
	if active == nil {
		return
	}
	fn, ok := active.LookupFunction(target)
	if !ok {
		active.Logger.Printf("dispatch: %v", &UnknownFunctionError{Addr: target})
		ctx.SetReturnU32(0)
		return
	}
	fn(ctx, mem)
}

// HandleSyscall resolves the EE syscall number from $v1 (the ABI register
// every BIOS syscall stub loads it into before the syscall instruction)
// and dispatches into the bound Kernel. A negative id (direct syscalls
// encode as the negated number) is normalized to positive, matching the
// EE BIOS convention.
func HandleSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	if active == nil || active.Kernel == nil {
		return
	}
	id := ctx.GPRS32(3)
	if id < 0 {
		id = -id
	}
	active.Kernel.Dispatch(uint32(id), ctx, mem)
}

// BoolInt converts a comparison result into SLT/SLTI's 0/1 result,
// already widened to the type setGPR32 sign-extends into the GPR lane.
func BoolInt(cond bool) int64 {
	if cond {
		return 1
	}
	return 0
}

// SignalOverflow raises INTEGER_OVERFLOW for an ADD/ADDI/SUB whose 32-bit
// result overflowed, the same exception path Trap raises for an
// unrecognized opcode.
func SignalOverflow(ctx *cpucontext.Context, addr uint32) {
	if active == nil {
		return
	}
	active.Logger.Printf("overflow: ADD/ADDI/SUB at pc=0x%08X", addr)
	active.SignalException(ctx, ExceptionIntegerOverflow)
}

// AddOverflow32/SubOverflow32 implement ADD/ADDI/SUB's overflow-trapping
// contract: ok is false when the 32-bit signed sum/difference overflows.
func AddOverflow32(a, b int32) (sum int32, ok bool) {
	sum = a + b
	overflow := (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0)
	return sum, !overflow
}

func SubOverflow32(a, b int32) (diff int32, ok bool) {
	diff = a - b
	overflow := (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0)
	return diff, !overflow
}

// Mult32 implements MULT/MULTU: a 32x32->64 multiply split into HI:LO,
// each half sign-extended to 64 bits per the R5900 MIPS-III convention.
func Mult32(rs, rt uint64, signed bool) (lo, hi uint64) {
	if signed {
		product := int64(int32(rs)) * int64(int32(rt))
		return uint64(int32(product)), uint64(int32(product >> 32))
	}
	product := uint64(uint32(rs)) * uint64(uint32(rt))
	return uint64(int32(uint32(product))), uint64(int32(uint32(product >> 32)))
}

// Div32 implements DIV/DIVU: quotient in LO, remainder in HI. Division by
// zero leaves LO/HI undefined on real hardware; this returns LO =
// all-ones (1 for a negative signed dividend) and HI = the dividend, the
// pattern most MIPS cores settle on, rather than panicking guest code
// that hits it.
func Div32(rs, rt uint64, signed bool) (lo, hi uint64) {
	if signed {
		a, b := int32(rs), int32(rt)
		if b == 0 {
			if a >= 0 {
				return uint64(uint32(0xFFFFFFFF)), uint64(uint32(a))
			}
			return 1, uint64(uint32(a))
		}
		return uint64(uint32(a / b)), uint64(uint32(a % b))
	}
	a, b := uint32(rs), uint32(rt)
	if b == 0 {
		return 0xFFFFFFFF, uint64(a)
	}
	return uint64(a / b), uint64(a % b)
}

// ReadCOP0/WriteCOP0 give codegen a flat register-number interface onto
// cpucontext's named COP0 fields rather than switching on the number at
// every mfc0/mtc0 call site.
func ReadCOP0(ctx *cpucontext.Context, reg uint8) uint32 {
	switch reg {
	case 9:
		return ctx.COP0.Count
	case 12:
		return ctx.COP0.Status
	case 13:
		return ctx.COP0.Cause
	case 14:
		return ctx.COP0.EPC
	case 15:
		return ctx.COP0.PRId
	default:
		return 0
	}
}

func WriteCOP0(ctx *cpucontext.Context, reg uint8, v uint32) {
	switch reg {
	case 9:
		ctx.COP0.Count = v
	case 12:
		ctx.COP0.Status = v
	case 13:
		ctx.COP0.Cause = v
	case 14:
		ctx.COP0.EPC = v
	}
}

// F32Bits/BitsF32 move values between a GPR's raw bit pattern and a COP1
// register, the mfc1/mtc1 contract (no float conversion, just a bit
// reinterpretation).
func F32Bits(f float32) uint32    { return math.Float32bits(f) }
func BitsF32(bits uint32) float32 { return math.Float32frombits(bits) }

// MMIBinary applies one of the packed-integer MMI ops, named by its
// upper-case mnemonic, lane-wise across a and b. The packed add and
// subtract forms use only the lower 64 bits and return Hi as zero;
// PAND/POR/PXOR/PNOR operate on all 128 bits. An unrecognised op returns
// a unchanged.
func MMIBinary(op string, a, b cpucontext.Lane128) cpucontext.Lane128 {
	switch op {
	case "PADDB":
		return cpucontext.Lane128{Lo: addPacked(a.Lo, b.Lo, 8)}
	case "PADDH":
		return cpucontext.Lane128{Lo: addPacked(a.Lo, b.Lo, 16)}
	case "PADDW":
		return cpucontext.Lane128{Lo: addPacked(a.Lo, b.Lo, 32)}
	case "PSUBB":
		return cpucontext.Lane128{Lo: subPacked(a.Lo, b.Lo, 8)}
	case "PSUBH":
		return cpucontext.Lane128{Lo: subPacked(a.Lo, b.Lo, 16)}
	case "PSUBW":
		return cpucontext.Lane128{Lo: subPacked(a.Lo, b.Lo, 32)}
	case "PAND":
		return cpucontext.Lane128{Lo: a.Lo & b.Lo, Hi: a.Hi & b.Hi}
	case "POR":
		return cpucontext.Lane128{Lo: a.Lo | b.Lo, Hi: a.Hi | b.Hi}
	case "PXOR":
		return cpucontext.Lane128{Lo: a.Lo ^ b.Lo, Hi: a.Hi ^ b.Hi}
	case "PNOR":
		return cpucontext.Lane128{Lo: ^(a.Lo | b.Lo), Hi: ^(a.Hi | b.Hi)}
	default:
		return a
	}
}

func addPacked(a, b uint64, width int) uint64 {
	var out uint64
	lanes := 64 / width
	mask := uint64(1)<<uint(width) - 1
	for i := 0; i < lanes; i++ {
		shift := uint(i * width)
		sum := ((a >> shift) & mask) + ((b >> shift) & mask)
		out |= (sum & mask) << shift
	}
	return out
}

func subPacked(a, b uint64, width int) uint64 {
	var out uint64
	lanes := 64 / width
	mask := uint64(1)<<uint(width) - 1
	for i := 0; i < lanes; i++ {
		shift := uint(i * width)
		diff := ((a >> shift) & mask) - ((b >> shift) & mask)
		out |= (diff & mask) << shift
	}
	return out
}

// addSatPacked implements PADDSB/PADDSH/PADDSW: a signed packed add that
// clamps each lane to its width's signed range instead of wrapping.
func addSatPacked(a, b uint64, width int) uint64 {
	var out uint64
	lanes := 64 / width
	mask := uint64(1)<<uint(width) - 1
	maxVal := int64(mask >> 1)
	minVal := -maxVal - 1
	for i := 0; i < lanes; i++ {
		shift := uint(i * width)
		sa := signExtendLane(int64((a>>shift)&mask), width)
		sb := signExtendLane(int64((b>>shift)&mask), width)
		sum := sa + sb
		if sum > maxVal {
			sum = maxVal
		} else if sum < minVal {
			sum = minVal
		}
		out |= (uint64(sum) & mask) << shift
	}
	return out
}

func signExtendLane(v int64, width int) int64 {
	shift := uint(64 - width)
	return v << shift >> shift
}

// absPacked implements PABSH/PABSW: the signed absolute value of each lane,
// with the one's-complement-overflow lane (the most negative value) left
// unchanged, matching MIPS MMI's documented saturation-free behavior there.
func absPacked(a uint64, width int) uint64 {
	var out uint64
	lanes := 64 / width
	mask := uint64(1)<<uint(width) - 1
	minVal := int64(1) << uint(width-1)
	for i := 0; i < lanes; i++ {
		shift := uint(i * width)
		v := signExtendLane(int64((a>>shift)&mask), width)
		if v == -minVal {
			out |= (uint64(v) & mask) << shift
			continue
		}
		if v < 0 {
			v = -v
		}
		out |= (uint64(v) & mask) << shift
	}
	return out
}

// MMIPacked dispatches the lane-width packed ops (signed-saturating add,
// absolute value) that need a width parameter alongside the two operands
// MMIBinary already covers.
func MMIPacked(op string, a, b cpucontext.Lane128) cpucontext.Lane128 {
	switch op {
	case "PADDSB":
		return cpucontext.Lane128{Lo: addSatPacked(a.Lo, b.Lo, 8)}
	case "PADDSH":
		return cpucontext.Lane128{Lo: addSatPacked(a.Lo, b.Lo, 16)}
	case "PADDSW":
		return cpucontext.Lane128{Lo: addSatPacked(a.Lo, b.Lo, 32)}
	case "PABSH":
		return cpucontext.Lane128{Lo: absPacked(a.Lo, 16)}
	case "PABSW":
		return cpucontext.Lane128{Lo: absPacked(a.Lo, 32)}
	default:
		return a
	}
}

// MMIShift implements the packed-immediate-shift family PSLLH/PSRLH/PSRAH
// (16-bit lanes) and PSLLW/PSRLW/PSRAW (32-bit lanes): each lane shifts
// independently by the same shamt, the way SSE's psllw/psraw etc. do.
func MMIShift(op string, a cpucontext.Lane128, shamt uint) cpucontext.Lane128 {
	var width int
	var arith bool
	var left bool
	switch op {
	case "psllh":
		width, left = 16, true
	case "psrlh":
		width = 16
	case "psrah":
		width, arith = 16, true
	case "psllw":
		width, left = 32, true
	case "psrlw":
		width = 32
	case "psraw":
		width, arith = 32, true
	default:
		return a
	}
	mask := uint64(1)<<uint(width) - 1
	lanes := 64 / width
	var out uint64
	for i := 0; i < lanes; i++ {
		shift := uint(i * width)
		lane := (a.Lo >> shift) & mask
		var res uint64
		switch {
		case left:
			res = (lane << shamt) & mask
		case arith:
			res = uint64(signExtendLane(int64(lane), width)>>shamt) & mask
		default:
			res = lane >> shamt
		}
		out |= res << shift
	}
	return cpucontext.Lane128{Lo: out}
}

// PExtLW/PExtUW implement PEXTLW/PEXTUW: interleave the lower (resp.
// upper) 32-bit lanes of a and b into a 128-bit result, b's lane first
// (even words), a's lane second (odd words), the order the R5900 manual
// documents for the "extend" family.
func PExtLW(a, b cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{
		Lo: uint64(uint32(b.Lo)) | uint64(uint32(a.Lo))<<32,
		Hi: uint64(uint32(b.Lo>>32)) | uint64(uint32(a.Lo>>32))<<32,
	}
}

func PExtUW(a, b cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{
		Lo: uint64(uint32(b.Hi)) | uint64(uint32(a.Hi))<<32,
		Hi: uint64(uint32(b.Hi>>32)) | uint64(uint32(a.Hi>>32))<<32,
	}
}

// PPacW implements PPACW: pack the low 32 bits of each of a's and b's two
// 32-bit lanes into one 64-bit word, b's lanes in the low half.
func PPacW(a, b cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{
		Lo: uint64(uint32(b.Lo)) | uint64(uint32(a.Lo))<<32,
	}
}

// PCpyLD/PCpyUD implement PCPYLD/PCPYUD: assemble a 128-bit result from
// one 64-bit half of each source register.
func PCpyLD(a, b cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{Lo: b.Lo, Hi: a.Lo}
}

func PCpyUD(a, b cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{Lo: b.Hi, Hi: a.Hi}
}

// PExEH/PExEW implement PEXEH/PEXEW: swap a register's two 16-bit (resp.
// 32-bit) lanes within each 64-bit half.
func PExEH(a cpucontext.Lane128) cpucontext.Lane128 {
	swapHalf := func(w uint64) uint64 {
		h0 := w & 0xFFFF
		h1 := (w >> 16) & 0xFFFF
		h2 := (w >> 32) & 0xFFFF
		h3 := (w >> 48) & 0xFFFF
		return h0 | h3<<16 | h2<<32 | h1<<48
	}
	return cpucontext.Lane128{Lo: swapHalf(a.Lo), Hi: swapHalf(a.Hi)}
}

func PExEW(a cpucontext.Lane128) cpucontext.Lane128 {
	return cpucontext.Lane128{
		Lo: uint64(uint32(a.Lo>>32)) | uint64(uint32(a.Lo))<<32,
		Hi: uint64(uint32(a.Hi>>32)) | uint64(uint32(a.Hi))<<32,
	}
}

// QFSRV implements the quadword funnel shift: the 256-bit concatenation
// rs:rt (rt low) shifted right by ctx.SA bytes, low 128 bits kept. SA is
// loaded by a preceding MTSAB/MTSAH and ranges 0-15.
func QFSRV(rs, rt cpucontext.Lane128, sa uint64) cpucontext.Lane128 {
	shift := (sa & 0xF) * 8
	if shift == 0 {
		return rt
	}
	words := [4]uint64{rt.Lo, rt.Hi, rs.Lo, rs.Hi}
	var out [4]uint64
	wordShift := shift / 64
	bitShift := shift % 64
	for i := 0; i < 4; i++ {
		src := i + int(wordShift)
		if src >= 4 {
			continue
		}
		out[i] = words[src] >> bitShift
		if bitShift != 0 && src+1 < 4 {
			out[i] |= words[src+1] << (64 - bitShift)
		}
	}
	return cpucontext.Lane128{Lo: out[0], Hi: out[1]}
}

// Mult1/Div1/Madd1 mirror Mult32/Div32/a MADD accumulate, but operate on
// the R5900's second multiply/divide pipeline (HI1/LO1), which MULT1,
// DIV1, MULTU1, DIVU1 and MADD1/MADDU1 use instead of HI/LO so vector
// code can overlap a pipeline-0 multiply with a pipeline-1 one.
func Mult1(rs, rt uint64, signed bool) (lo, hi uint64) {
	return Mult32(rs, rt, signed)
}

func Div1(rs, rt uint64, signed bool) (lo, hi uint64) {
	return Div32(rs, rt, signed)
}

// Madd32 implements MADD/MADDU/MADD1/MADDU1: multiply then add the
// existing HI:LO (or HI1:LO1) pair, each half sign-extended to 64 bits the
// same way Mult32 returns them.
func Madd32(rs, rt, hi, lo uint64, signed bool) (newLo, newHi uint64) {
	mlo, mhi := Mult32(rs, rt, signed)
	acc := int64(int32(lo)) | int64(int32(hi))<<32
	prod := int64(int32(mlo)) | int64(int32(mhi))<<32
	sum := acc + prod
	return uint64(int32(sum)), uint64(int32(sum >> 32))
}

// PMaddW implements PMADDW: like Madd32 but the lane-0 32x32 product
// accumulates into the existing LO:HI pair rather than overwriting it,
// separately from HI1:LO1 (which this recompiler does not model as a
// second accumulation target for PMADDW's upper lane; only the lower
// lane's accumulate is reproduced).
func PMaddW(rs, rt cpucontext.Lane128, hi, lo uint64) (newLo, newHi uint64) {
	return Madd32(rs.Lo, rt.Lo, hi, lo, true)
}

// Load8/.../Load128 and Store8/.../Store128 wrap memory.Space's
// error-returning accessors for generated code. A failed access (an
// unaligned address) is logged through the bound runtime's Logger and a
// load returns the accessor's value (zero); no guest exception is
// raised, and no Go error reaches generated code.
func Load8(mem *memory.Space, addr uint32) uint8 {
	v, err := mem.Read8(addr)
	if err != nil {
		reportAccessFault(addr, err)
	}
	return v
}

func Load16(mem *memory.Space, addr uint32) uint16 {
	v, err := mem.Read16(addr)
	if err != nil {
		reportAccessFault(addr, err)
	}
	return v
}

func Load32(mem *memory.Space, addr uint32) uint32 {
	v, err := mem.Read32(addr)
	if err != nil {
		reportAccessFault(addr, err)
	}
	return v
}

func Load64(mem *memory.Space, addr uint32) uint64 {
	v, err := mem.Read64(addr)
	if err != nil {
		reportAccessFault(addr, err)
	}
	return v
}

func Load128(mem *memory.Space, addr uint32) cpucontext.Lane128 {
	lo, hi, err := mem.Read128(addr)
	if err != nil {
		reportAccessFault(addr, err)
	}
	return cpucontext.Lane128{Lo: lo, Hi: hi}
}

func LoadSignExtend8(mem *memory.Space, addr uint32) int32 {
	return int32(int8(Load8(mem, addr)))
}

func LoadSignExtend16(mem *memory.Space, addr uint32) int32 {
	return int32(int16(Load16(mem, addr)))
}

func LoadSignExtend32(mem *memory.Space, addr uint32) int32 {
	return int32(Load32(mem, addr))
}

func Store8(mem *memory.Space, addr uint32, v uint8) {
	if err := mem.Write8(addr, v); err != nil {
		reportAccessFault(addr, err)
	}
}

func Store16(mem *memory.Space, addr uint32, v uint16) {
	if err := mem.Write16(addr, v); err != nil {
		reportAccessFault(addr, err)
	}
}

func Store32(mem *memory.Space, addr uint32, v uint32) {
	if err := mem.Write32(addr, v); err != nil {
		reportAccessFault(addr, err)
	}
}

func Store64(mem *memory.Space, addr uint32, v uint64) {
	if err := mem.Write64(addr, v); err != nil {
		reportAccessFault(addr, err)
	}
}

func Store128(mem *memory.Space, addr uint32, v cpucontext.Lane128) {
	if err := mem.Write128(addr, v.Lo, v.Hi); err != nil {
		reportAccessFault(addr, err)
	}
}

func reportAccessFault(addr uint32, err error) {
	if active == nil {
		return
	}
	active.Logger.Printf("memory access at 0x%08X failed: %v", addr, err)
}

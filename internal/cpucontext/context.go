// Package cpucontext defines the register-file struct recompiled code
// reads and writes, plus the GPR/FPU/COP0/VU0 helper operations it calls
// into.
//
// The register file is a flat struct rather than an interface hierarchy:
// recompiled code is a big switch over tagged instructions, not a tree of
// polymorphic objects, so the context it operates on should be equally
// flat and branch-free to read.
package cpucontext

// Lane128 is one 128-bit GPR lane, stored as two 64-bit words: Lo is bits
// 63:0, Hi is bits 127:64. R5900 GPRs are 128 bits wide but MIPS-III
// integer ops only ever produce 64-bit results; Hi is set only by MMI
// 128-bit ops and LQ loads, and every 32- or 64-bit write clears it.
type Lane128 struct {
	Lo uint64
	Hi uint64
}

// Context holds everything recompiled code needs to execute one guest
// function. It does not embed the guest memory
// image (internal/memory.Space) or the function table (internal/runtime);
// those are passed alongside it so a Context can be copied per-thread
// cheaply.
type Context struct {
	R [32]Lane128

	PC, HI, LO   uint64
	HI1, LO1     uint64
	SA           uint64

	F      [32]float32
	FCR31  uint32

	COP0 COP0State

	VU0 VU0State

	InDelaySlot bool
	BranchPC    uint64

	COP2CCR [32]uint32
}

// COP0State models the system-coprocessor registers macro-mode code reads
// and writes via mfc0/mtc0.
type COP0State struct {
	Index, Random          uint32
	EntryLo0, EntryLo1     uint32
	Context                uint32
	PageMask, Wired        uint32
	BadVAddr               uint32
	Count                  uint32
	EntryHi                uint32
	Compare                uint32
	Status, Cause          uint32
	EPC                    uint32
	PRId                   uint32
	Config                 uint32
	BadPAddr               uint32
	Debug                  uint32
	Perf                   uint32
	TagLo, TagHi           uint32
	ErrorEPC               uint32

	LLBit   bool
	LLAddr  uint32
}

// New returns a Context with r[0] already zero and every other field at
// its reset value (all zero, matching the R5900 power-on state this
// recompiler assumes — the ELF loader sets PC explicitly afterward).
func New() *Context {
	return &Context{}
}

// Reset zeroes every field, leaving r[0] as the always-zero register.
func (c *Context) Reset() {
	*c = Context{}
}

package r5900

// Flags mirrors the instruction flag set from the data model: everything
// the analyzer and code generator need to know about an instruction
// without re-inspecting its opcode.
type Flags struct {
	IsBranch     bool
	IsJump       bool
	IsCall       bool
	IsReturn     bool
	HasDelaySlot bool
	IsMMI        bool
	IsCOP1       bool
	IsCOP2       bool
	ReadsMemory  bool
	WritesMemory bool
	ModifiesPC   bool
}

// Instruction is the tagged value the decoder produces. Only the fields
// relevant to Op are meaningful; the rest are left zero.
type Instruction struct {
	Address uint32
	Raw     uint32
	Op      Op

	RS, RT, RD uint8
	Shamt      uint8
	FuncCode   uint8 // raw function/sub-function field, kept for disassembly
	Fmt        uint8 // COP1/COP2 format field
	Cond       Cond

	Imm16  uint16 // raw 16-bit immediate field
	Target uint32 // 26-bit jump target field, left-shifted 2 (not yet combined with PC)

	Flags Flags
}

// ImmSigned sign-extends the 16-bit immediate field.
func (i Instruction) ImmSigned() int32 { return int32(int16(i.Imm16)) }

// ImmZeroExtended zero-extends the 16-bit immediate field.
func (i Instruction) ImmZeroExtended() uint32 { return uint32(i.Imm16) }

// BranchTarget computes the PC-relative target of a branch: the address of
// the delay-slot instruction (Address+4) plus the sign-extended immediate
// shifted left two bits, per MIPS convention.
func (i Instruction) BranchTarget() uint32 {
	return uint32(int32(i.Address+4) + i.ImmSigned()*4)
}

// JumpTarget computes the absolute target of J/JAL: the top 4 bits of the
// delay slot's address combined with the 26-bit target field shifted left
// two bits.
func (i Instruction) JumpTarget() uint32 {
	return (i.Address+4)&0xF0000000 | i.Target
}

// Package r5900 decodes MIPS R5900 (Emotion Engine) instruction words into
// a tagged Instruction value. The decoder is a pure function: it never
// touches guest memory or CPU state, which keeps it trivially safe to run
// concurrently across functions (see internal/analyzer).
package r5900

// Op tags every instruction the decoder can recognise. Unknown encodings
// decode to OpUnknown rather than failing, so callers (the analyzer, the
// code generator) can keep going and emit a trap for the rare opcode this
// table doesn't cover.
type Op int

const (
	OpUnknown Op = iota

	// Data movement / immediate.
	OpLUI
	OpMOVE // pseudo: used by disassembly of OR rd, rs, $0

	// Arithmetic, 32-bit.
	OpADD
	OpADDU
	OpADDI
	OpADDIU
	OpSUB
	OpSUBU
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpSLT
	OpSLTU
	OpSLTI
	OpSLTIU

	// Arithmetic, 64-bit (R5900 is a 64-bit MIPS-III core).
	OpDADD
	OpDADDU
	OpDADDI
	OpDADDIU
	OpDSUB
	OpDSUBU
	OpDMULT
	OpDMULTU
	OpDDIV
	OpDDIVU

	// Logic.
	OpAND
	OpANDI
	OpOR
	OpORI
	OpXOR
	OpXORI
	OpNOR

	// Shifts, 32-bit.
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV

	// Shifts, 64-bit.
	OpDSLL
	OpDSRL
	OpDSRA
	OpDSLLV
	OpDSRLV
	OpDSRAV
	OpDSLL32
	OpDSRL32
	OpDSRA32

	// Moves to/from HI/LO.
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpMFHI1
	OpMTHI1
	OpMFLO1
	OpMTLO1
	OpMULT1
	OpMULTU1
	OpDIV1
	OpDIVU1

	// Conditional move.
	OpMOVZ
	OpMOVN

	// Branches (delay slot follows every one of these).
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpBEQL
	OpBNEL
	OpBLEZL
	OpBGTZL
	OpBLTZ
	OpBGEZ
	OpBLTZL
	OpBGEZL
	OpBLTZAL
	OpBGEZAL
	OpBLTZALL
	OpBGEZALL

	// Jumps.
	OpJ
	OpJAL
	OpJR
	OpJALR

	// Loads / stores.
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW
	OpLWU
	OpLWL
	OpLWR
	OpLD
	OpLDL
	OpLDR
	OpLQ
	OpSB
	OpSH
	OpSW
	OpSWL
	OpSWR
	OpSD
	OpSDL
	OpSDR
	OpSQ

	// Cache / sync / trap / system.
	OpCACHE
	OpSYNC
	OpSYSCALL
	OpBREAK
	OpPREF
	OpTGE
	OpTGEU
	OpTLT
	OpTLTU
	OpTEQ
	OpTNE

	// COP0.
	OpMFC0
	OpMTC0
	OpTLBWI
	OpTLBWR
	OpTLBR
	OpTLBP
	OpERET
	OpDI
	OpEI

	// COP1 (FPU, single precision only on the EE).
	OpMFC1
	OpMTC1
	OpCFC1
	OpCTC1
	OpBC1F
	OpBC1T
	OpBC1FL
	OpBC1TL
	OpADD_S
	OpSUB_S
	OpMUL_S
	OpDIV_S
	OpSQRT_S
	OpABS_S
	OpMOV_S
	OpNEG_S
	OpRSQRT_S
	OpADDA_S
	OpSUBA_S
	OpMULA_S
	OpMADD_S
	OpMSUB_S
	OpCVT_S_W
	OpCVT_W_S
	OpC_COND_S // all C.cond.S compares collapse to one tag + Cond field

	// COP2 / VU0 macro mode (only the subset executed on the EE).
	OpQMFC2
	OpQMTC2
	OpCFC2
	OpCTC2
	OpBC2F
	OpBC2T
	OpVADD
	OpVSUB
	OpVMUL
	OpVIADD
	OpVIAND
	OpVCALLMS
	OpVCALLMSR
	OpLQC2
	OpSQC2

	// MMI (128-bit multimedia).
	OpMADD
	OpMADDU
	OpMADD1
	OpMADDU1
	OpPLZCW
	OpPMFHL
	OpPMTHL
	OpPSLLH
	OpPSRLH
	OpPSRAH
	OpPSLLW
	OpPSRLW
	OpPSRAW
	OpPADDB
	OpPADDH
	OpPADDW
	OpPADDSB
	OpPADDSH
	OpPADDSW
	OpPSUBB
	OpPSUBH
	OpPSUBW
	OpPAND
	OpPOR
	OpPXOR
	OpPNOR
	OpPMAXH
	OpPMAXW
	OpPMINH
	OpPMINW
	OpPCPYLD
	OpPCPYUD
	OpPCPYH
	OpPEXTLB
	OpPEXTLH
	OpPEXTLW
	OpPEXTUB
	OpPEXTUH
	OpPEXTUW
	OpPPACB
	OpPPACH
	OpPPACW
	OpPEXTLQ
	OpPEXTUQ
	OpPEXEH
	OpPEXEW
	OpPEXCH
	OpPEXCW
	OpPABSH
	OpPABSW
	OpQFSRV
	OpPINTH
	OpPMADDW
	OpPMULTW
	OpPMULTUW
	OpPDIVW
	OpPDIVUW

	opCount
)

// Cond is the FPU/VU0 compare condition code extracted from the low bits
// of a COP1 C.cond.S / VU0 compare encoding.
type Cond uint8

const (
	CondF Cond = iota
	CondUN
	CondEQ
	CondUEQ
	CondOLT
	CondULT
	CondOLE
	CondULE
	CondSF
	CondNGLE
	CondSEQ
	CondNGL
	CondLT
	CondNGE
	CondLE
	CondNGT
)

// Primary opcode field (bits 31:26).
const (
	opcSPECIAL = 0x00
	opcREGIMM  = 0x01
	opcJ       = 0x02
	opcJAL     = 0x03
	opcBEQ     = 0x04
	opcBNE     = 0x05
	opcBLEZ    = 0x06
	opcBGTZ    = 0x07
	opcADDI    = 0x08
	opcADDIU   = 0x09
	opcSLTI    = 0x0A
	opcSLTIU   = 0x0B
	opcANDI    = 0x0C
	opcORI     = 0x0D
	opcXORI    = 0x0E
	opcLUI     = 0x0F
	opcCOP0    = 0x10
	opcCOP1    = 0x11
	opcCOP2    = 0x12
	opcBEQL    = 0x14
	opcBNEL    = 0x15
	opcBLEZL   = 0x16
	opcBGTZL   = 0x17
	opcDADDI   = 0x18
	opcDADDIU  = 0x19
	opcLDL     = 0x1A
	opcLDR     = 0x1B
	opcMMI     = 0x1C
	opcLQ      = 0x1E
	opcSQ      = 0x1F
	opcLB      = 0x20
	opcLH      = 0x21
	opcLWL     = 0x22
	opcLW      = 0x23
	opcLBU     = 0x24
	opcLHU     = 0x25
	opcLWR     = 0x26
	opcLWU     = 0x27
	opcSB      = 0x28
	opcSH      = 0x29
	opcSWL     = 0x2A
	opcSW      = 0x2B
	opcSDL     = 0x2C
	opcSDR     = 0x2D
	opcSWR     = 0x2E
	opcCACHE   = 0x2F
	opcLWC1    = 0x31
	opcLQC2    = 0x36
	opcLD      = 0x37
	opcSWC1    = 0x39
	opcSQC2    = 0x3E
	opcSD      = 0x3F
)

// SPECIAL function field (bits 5:0).
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnMOVZ    = 0x0A
	fnMOVN    = 0x0B
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnSYNC    = 0x0F
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnDSLLV   = 0x14
	fnDSRLV   = 0x16
	fnDSRAV   = 0x17
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
	fnDADD    = 0x2C
	fnDADDU   = 0x2D
	fnDSUB    = 0x2E
	fnDSUBU   = 0x2F
	fnTGE     = 0x30
	fnTGEU    = 0x31
	fnTLT     = 0x32
	fnTLTU    = 0x33
	fnTEQ     = 0x34
	fnTNE     = 0x36
	fnDSLL    = 0x38
	fnDSRL    = 0x3A
	fnDSRA    = 0x3B
	fnDSLL32  = 0x3C
	fnDSRL32  = 0x3E
	fnDSRA32  = 0x3F
)

// REGIMM rt field.
const (
	riBLTZ    = 0x00
	riBGEZ    = 0x01
	riBLTZL   = 0x02
	riBGEZL   = 0x03
	riBLTZAL  = 0x10
	riBGEZAL  = 0x11
	riBLTZALL = 0x12
	riBGEZALL = 0x13
)

// COP0/COP1/COP2 rs field (the "format" sub-selector).
const (
	copMF  = 0x00
	copDMF = 0x01
	copCF  = 0x02
	copMT  = 0x04
	copDMT = 0x05
	copCT  = 0x06
	copBC  = 0x08
	copCO  = 0x10 // rs >= 0x10 selects the COP "function" sub-table
	copQMF = 0x01 // COP2 QMFC2 overload (rs field differs by coprocessor)
	copQMT = 0x05
)

// COP1 function field (when rs == copCO, i.e. bit 4 of rs set).
const (
	f1ADD      = 0x00
	f1SUB      = 0x01
	f1MUL      = 0x02
	f1DIV      = 0x03
	f1SQRT     = 0x04
	f1ABS      = 0x05
	f1MOV      = 0x06
	f1NEG      = 0x07
	f1RSQRT    = 0x16
	f1ADDA     = 0x18
	f1SUBA     = 0x19
	f1MULA     = 0x1A
	f1MADD     = 0x1C
	f1MSUB     = 0x1D
	f1CVT_W    = 0x24
	f1CCondLo  = 0x30 // C.cond.S occupies function codes 0x30-0x3F
	f1CvtSFunc = 0x20 // CVT.S.W when rs==COP_BC0 fmt W; handled specially
)

// COP0 "CO" sub-function (rs field has bit 4 set, i.e. rs==copCO path).
const (
	c0TLBR  = 0x01
	c0TLBWI = 0x02
	c0TLBWR = 0x06
	c0TLBP  = 0x08
	c0ERET  = 0x18
	c0EI    = 0x38
	c0DI    = 0x39
)

// MMI function field (bits 5:0, selecting among MMI / MMI0-3).
const (
	mmiMADD    = 0x00
	mmiMADDU   = 0x01
	mmiPLZCW   = 0x04
	mmiMMI0    = 0x08
	mmiMMI2    = 0x0C
	mmiMFHI1   = 0x10
	mmiMTHI1   = 0x11
	mmiMFLO1   = 0x12
	mmiMTLO1   = 0x13
	mmiMULT1   = 0x18
	mmiMULTU1  = 0x19
	mmiDIV1    = 0x1A
	mmiDIVU1   = 0x1B
	mmiMADD1   = 0x20
	mmiMADDU1  = 0x21
	mmiPMFHL   = 0x24
	mmiPMTHL   = 0x25
	mmiPSLLH   = 0x28
	mmiPSRLH   = 0x29
	mmiPSRAH   = 0x2A
	mmiPSLLW   = 0x2C
	mmiPSRLW   = 0x2D
	mmiPSRAW   = 0x2E
	mmiMMI1    = 0x10 // placeholder, MMI1 selected via different rs pattern in real HW; simplified here
	mmiMMI3    = 0x14
	mmiPINTH   = 0x09 // from MMI1/MMI3 merge table (simplified encoding, see decode notes)
)

// MMI0 sub-function (bits 10:6 when function == mmiMMI0).
const (
	mmi0PADDW  = 0x00
	mmi0PSUBW  = 0x01
	mmi0PCGTW  = 0x02
	mmi0PMAXW  = 0x03
	mmi0PADDH  = 0x04
	mmi0PSUBH  = 0x05
	mmi0PCGTH  = 0x06
	mmi0PMAXH  = 0x07
	mmi0PADDB  = 0x08
	mmi0PSUBB  = 0x09
	mmi0PCGTB  = 0x0A
	mmi0PADDSW = 0x10
	mmi0PSUBSW = 0x11
	mmi0PEXTLW = 0x12
	mmi0PPACW  = 0x13
	mmi0PADDSH = 0x14
	mmi0PSUBSH = 0x15
	mmi0PEXTLH = 0x16
	mmi0PPACH  = 0x17
	mmi0PADDSB = 0x18
	mmi0PSUBSB = 0x19
	mmi0PEXTLB = 0x1A
	mmi0PPACB  = 0x1B
	mmi0PEXT5  = 0x1E
	mmi0PPAC5  = 0x1F
)

// MMI1 sub-function.
const (
	mmi1PABSW  = 0x01
	mmi1PCEQW  = 0x02
	mmi1PMINW  = 0x03
	mmi1PADSBH = 0x04
	mmi1PABSH  = 0x05
	mmi1PCEQH  = 0x06
	mmi1PMINH  = 0x07
	mmi1PCEQB  = 0x0A
	mmi1PADDUW = 0x10
	mmi1PSUBUW = 0x11
	mmi1PEXTUW = 0x12
	mmi1PADDUH = 0x14
	mmi1PSUBUH = 0x15
	mmi1PEXTUH = 0x16
	mmi1PADDUB = 0x18
	mmi1PSUBUB = 0x19
	mmi1PEXTUB = 0x1A
	mmi1QFSRV  = 0x1B
)

// MMI2 sub-function.
const (
	mmi2PMADDW  = 0x00
	mmi2PSLLVW  = 0x02
	mmi2PSRLVW  = 0x03
	mmi2PMSUBW  = 0x04
	mmi2PMFHI   = 0x08
	mmi2PMFLO   = 0x09
	mmi2PINTH   = 0x0A
	mmi2PMULTW  = 0x0C
	mmi2PDIVW   = 0x0D
	mmi2PCPYLD  = 0x0E
	mmi2PMADDH  = 0x10
	mmi2PHMADH  = 0x11
	mmi2PAND    = 0x12
	mmi2PXOR    = 0x13
	mmi2PMSUBH  = 0x14
	mmi2PHMSBH  = 0x15
	mmi2PEXEH   = 0x1A
	mmi2PREVH   = 0x1B
	mmi2PMULTH  = 0x1C
	mmi2PDIVBW  = 0x1D
	mmi2PEXEW   = 0x1E
	mmi2PROT3W  = 0x1F
)

// MMI3 sub-function.
const (
	mmi3PMADDUW = 0x00
	mmi3PSRAVW  = 0x03
	mmi3PMTHI   = 0x08
	mmi3PMTLO   = 0x09
	mmi3PINTEH  = 0x0A
	mmi3PMULTUW = 0x0C
	mmi3PDIVUW  = 0x0D
	mmi3PCPYUD  = 0x0E
	mmi3POR     = 0x12
	mmi3PNOR    = 0x13
	mmi3PEXCH   = 0x1A
	mmi3PCPYH   = 0x1B
	mmi3PEXCW   = 0x1E
)

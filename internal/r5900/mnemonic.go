package r5900

var mnemonics = map[Op]string{
	OpUnknown: "unknown",
	OpLUI:     "lui", OpADD: "add", OpADDU: "addu", OpADDI: "addi", OpADDIU: "addiu",
	OpSUB: "sub", OpSUBU: "subu", OpMULT: "mult", OpMULTU: "multu", OpDIV: "div", OpDIVU: "divu",
	OpSLT: "slt", OpSLTU: "sltu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpDADD: "dadd", OpDADDU: "daddu", OpDADDI: "daddi", OpDADDIU: "daddiu",
	OpDSUB: "dsub", OpDSUBU: "dsubu", OpDMULT: "dmult", OpDMULTU: "dmultu", OpDDIV: "ddiv", OpDDIVU: "ddivu",
	OpAND: "and", OpANDI: "andi", OpOR: "or", OpORI: "ori", OpXOR: "xor", OpXORI: "xori", OpNOR: "nor",
	OpSLL: "sll", OpSRL: "srl", OpSRA: "sra", OpSLLV: "sllv", OpSRLV: "srlv", OpSRAV: "srav",
	OpDSLL: "dsll", OpDSRL: "dsrl", OpDSRA: "dsra", OpDSLLV: "dsllv", OpDSRLV: "dsrlv", OpDSRAV: "dsrav",
	OpDSLL32: "dsll32", OpDSRL32: "dsrl32", OpDSRA32: "dsra32",
	OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo", OpMTLO: "mtlo",
	OpMFHI1: "mfhi1", OpMTHI1: "mthi1", OpMFLO1: "mflo1", OpMTLO1: "mtlo1",
	OpMULT1: "mult1", OpMULTU1: "multu1", OpDIV1: "div1", OpDIVU1: "divu1",
	OpMOVZ: "movz", OpMOVN: "movn",
	OpBEQ: "beq", OpBNE: "bne", OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpBEQL: "beql", OpBNEL: "bnel", OpBLEZL: "blezl", OpBGTZL: "bgtzl",
	OpBLTZ: "bltz", OpBGEZ: "bgez", OpBLTZL: "bltzl", OpBGEZL: "bgezl",
	OpBLTZAL: "bltzal", OpBGEZAL: "bgezal", OpBLTZALL: "bltzall", OpBGEZALL: "bgezall",
	OpJ: "j", OpJAL: "jal", OpJR: "jr", OpJALR: "jalr",
	OpLB: "lb", OpLBU: "lbu", OpLH: "lh", OpLHU: "lhu", OpLW: "lw", OpLWU: "lwu",
	OpLWL: "lwl", OpLWR: "lwr", OpLD: "ld", OpLDL: "ldl", OpLDR: "ldr", OpLQ: "lq",
	OpSB: "sb", OpSH: "sh", OpSW: "sw", OpSWL: "swl", OpSWR: "swr",
	OpSD: "sd", OpSDL: "sdl", OpSDR: "sdr", OpSQ: "sq",
	OpCACHE: "cache", OpSYNC: "sync", OpSYSCALL: "syscall", OpBREAK: "break", OpPREF: "pref",
	OpTGE: "tge", OpTGEU: "tgeu", OpTLT: "tlt", OpTLTU: "tltu", OpTEQ: "teq", OpTNE: "tne",
	OpMFC0: "mfc0", OpMTC0: "mtc0", OpTLBWI: "tlbwi", OpTLBWR: "tlbwr", OpTLBR: "tlbr", OpTLBP: "tlbp",
	OpERET: "eret", OpDI: "di", OpEI: "ei",
	OpMFC1: "mfc1", OpMTC1: "mtc1", OpCFC1: "cfc1", OpCTC1: "ctc1",
	OpBC1F: "bc1f", OpBC1T: "bc1t", OpBC1FL: "bc1fl", OpBC1TL: "bc1tl",
	OpADD_S: "add.s", OpSUB_S: "sub.s", OpMUL_S: "mul.s", OpDIV_S: "div.s", OpSQRT_S: "sqrt.s",
	OpABS_S: "abs.s", OpMOV_S: "mov.s", OpNEG_S: "neg.s", OpRSQRT_S: "rsqrt.s",
	OpADDA_S: "adda.s", OpSUBA_S: "suba.s", OpMULA_S: "mula.s", OpMADD_S: "madd.s", OpMSUB_S: "msub.s",
	OpCVT_S_W: "cvt.s.w", OpCVT_W_S: "cvt.w.s", OpC_COND_S: "c.cond.s",
	OpQMFC2: "qmfc2", OpQMTC2: "qmtc2", OpCFC2: "cfc2", OpCTC2: "ctc2",
	OpBC2F: "bc2f", OpBC2T: "bc2t",
	OpVADD: "vadd", OpVSUB: "vsub", OpVMUL: "vmul", OpVIADD: "viadd", OpVIAND: "viand",
	OpVCALLMS: "vcallms", OpVCALLMSR: "vcallmsr", OpLQC2: "lqc2", OpSQC2: "sqc2",
	OpMADD: "madd", OpMADDU: "maddu", OpMADD1: "madd1", OpMADDU1: "maddu1",
	OpPLZCW: "plzcw", OpPMFHL: "pmfhl", OpPMTHL: "pmthl",
	OpPSLLH: "psllh", OpPSRLH: "psrlh", OpPSRAH: "psrah",
	OpPSLLW: "psllw", OpPSRLW: "psrlw", OpPSRAW: "psraw",
	OpPADDB: "paddb", OpPADDH: "paddh", OpPADDW: "paddw",
	OpPADDSB: "paddsb", OpPADDSH: "paddsh", OpPADDSW: "paddsw",
	OpPSUBB: "psubb", OpPSUBH: "psubh", OpPSUBW: "psubw",
	OpPAND: "pand", OpPOR: "por", OpPXOR: "pxor", OpPNOR: "pnor",
	OpPMAXH: "pmaxh", OpPMAXW: "pmaxw", OpPMINH: "pminh", OpPMINW: "pminw",
	OpPCPYLD: "pcpyld", OpPCPYUD: "pcpyud", OpPCPYH: "pcpyh",
	OpPEXTLB: "pextlb", OpPEXTLH: "pextlh", OpPEXTLW: "pextlw",
	OpPEXTUB: "pextub", OpPEXTUH: "pextuh", OpPEXTUW: "pextuw",
	OpPPACB: "ppacb", OpPPACH: "ppach", OpPPACW: "ppacw",
	OpPEXTLQ: "pextlq", OpPEXTUQ: "pextuq",
	OpPEXEH: "pexeh", OpPEXEW: "pexew", OpPEXCH: "pexch", OpPEXCW: "pexcw",
	OpPABSH: "pabsh", OpPABSW: "pabsw", OpQFSRV: "qfsrv", OpPINTH: "pinth",
	OpPMADDW: "pmaddw", OpPMULTW: "pmultw", OpPMULTUW: "pmultuw", OpPDIVW: "pdivw", OpPDIVUW: "pdivuw",
}

// String returns the canonical mnemonic, or "unknown" for OpUnknown and
// any future Op not yet added to the table.
func (o Op) String() string {
	if s, ok := mnemonics[o]; ok {
		return s
	}
	return "unknown"
}

package cpucontext

import "math"

// FCR31 condition bit (bit 23), set by C.cond.S compares and consulted by
// BC1T/BC1F.
const fcr31CondBit = 1 << 23

// FPCondSet reports the current COP1 condition bit.
func (c *Context) FPCondSet() bool { return c.FCR31&fcr31CondBit != 0 }

// SetFPCond sets or clears the COP1 condition bit.
func (c *Context) SetFPCond(v bool) {
	if v {
		c.FCR31 |= fcr31CondBit
	} else {
		c.FCR31 &^= fcr31CondBit
	}
}

// FPCompare implements the sixteen C.cond.S predicates. The
// EE's FPU has no true NaN/unordered semantics in practice (its multiply
// and add units are approximate), so "unordered" here only fires for
// actual IEEE NaNs, matching the conservative behaviour real PS2 titles
// depend on.
func FPCompare(cond uint8, a, b float32) bool {
	unordered := math.IsNaN(float64(a)) || math.IsNaN(float64(b))
	switch cond & 0x7 {
	case 0: // F / SF
		return false
	case 1: // UN / NGLE
		return unordered
	case 2: // EQ / SEQ
		return !unordered && a == b
	case 3: // UEQ / NGL
		return unordered || a == b
	case 4: // OLT / LT
		return !unordered && a < b
	case 5: // ULT / NGE
		return unordered || a < b
	case 6: // OLE / LE
		return !unordered && a <= b
	case 7: // ULE / NGT
		return unordered || a <= b
	}
	return false
}

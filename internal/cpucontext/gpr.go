package cpucontext

// GPR access macros. These mirror cpu_ie64.go's setReg/getReg pair
// (R0 hardwired to zero, width-aware writes) generalised from a flat
// 64-bit register file to 128-bit lanes.
//
// Open Question resolved here: every 32-bit write ZEROES the
// upper 64 bits of the lane, never preserves them (see DESIGN.md). This
// keeps GPRU64/GPRS64 always consistent with the most recent 32-bit
// write without needing to track which half is "live".

// GPRU32 returns the low 32 bits of register r, unsigned.
func (c *Context) GPRU32(r uint8) uint32 { return uint32(c.R[r].Lo) }

// GPRS32 returns the low 32 bits of register r, sign-extended to int32.
func (c *Context) GPRS32(r uint8) int32 { return int32(c.R[r].Lo) }

// GPRU64 returns the low 64 bits of register r.
func (c *Context) GPRU64(r uint8) uint64 { return c.R[r].Lo }

// GPRS64 returns the low 64 bits of register r as a signed value.
func (c *Context) GPRS64(r uint8) int64 { return int64(c.R[r].Lo) }

// GPRVec returns the full 128-bit lane of register r.
func (c *Context) GPRVec(r uint8) Lane128 { return c.R[r] }

// SetGPRU32 sign-extends v (per R5900 ABI, a 32-bit result is always
// sign-extended into the 64-bit lane even for "unsigned" ops like ADDU)
// and zeroes the upper 64 bits. Writes to r0 are no-ops.
func (c *Context) SetGPRU32(r uint8, v uint32) {
	if r == 0 {
		return
	}
	c.R[r] = Lane128{Lo: uint64(int64(int32(v))), Hi: 0}
}

// SetGPRS32 is SetGPRU32 with an already-signed input.
func (c *Context) SetGPRS32(r uint8, v int32) {
	if r == 0 {
		return
	}
	c.R[r] = Lane128{Lo: uint64(int64(v)), Hi: 0}
}

// SetGPRU64 writes a 64-bit value into the lane and zeroes the upper 64
// bits.
func (c *Context) SetGPRU64(r uint8, v uint64) {
	if r == 0 {
		return
	}
	c.R[r] = Lane128{Lo: v, Hi: 0}
}

// SetGPRVec writes the full 128-bit lane (used by LQ/SQ and MMI 128-bit
// results).
func (c *Context) SetGPRVec(r uint8, v Lane128) {
	if r == 0 {
		return
	}
	c.R[r] = v
}

// SetReturnS32 places a sign-extended 32-bit result in $v0 (R2), per the
// EE syscall ABI convention used throughout internal/kernel.
func (c *Context) SetReturnS32(v int32) { c.SetGPRS32(2, v) }

// SetReturnU32 places a zero/sign-extended-per-ABI 32-bit result in $v0.
func (c *Context) SetReturnU32(v uint32) { c.SetGPRU32(2, v) }

// SetReturnU64 places a 64-bit result across $v0/$v1 (R2/R3): low 32 bits
// in $v0 (sign-extended), high 32 bits in $v1, matching R5900 64-bit
// syscall return conventions.
func (c *Context) SetReturnU64(v uint64) {
	c.SetGPRU32(2, uint32(v))
	c.SetGPRU32(3, uint32(v>>32))
}

package memory

import "encoding/binary"

// IO sub-region bases, relative to IOBase (0x10000000). These follow the
// EE's real register map closely enough to place timers, VIF, DMA channel
// control, and interrupt registers at addresses guest code actually uses.
const (
	regTimerBase = 0x10000000
	regTimerEnd  = 0x10002000

	regVIF0Base = 0x10003800
	regVIF1Base = 0x10003C00

	regDMAChannelBase = 0x10008000
	regDMAChannelEnd  = 0x1000E000
	dmaChannelStride  = 0x1000

	regDMACStatBase = 0x1000E000

	regINTCStat = 0x10002000
	regINTCMask = 0x10002010

	chcrOffset = 0x00
	madrOffset = 0x10
	qwcOffset  = 0x20
	tadrOffset = 0x30
)

// readIO services a CPU-visible register read. An address inside a
// registered IOHandler's range is answered by its OnRead; every other
// register reads back the value last latched into ioRegion.
func (s *Space) readIO(phys uint32) uint32 {
	s.mu.RLock()
	for _, h := range s.ioHandlers {
		if phys >= h.Start && phys < h.End {
			s.mu.RUnlock()
			return h.OnRead(phys)
		}
	}
	s.mu.RUnlock()

	off := phys - IOBase
	if int(off)+4 > len(s.ioRegion) {
		return 0
	}
	return binary.LittleEndian.Uint32(s.ioRegion[off:])
}

// writeIO services a CPU-visible register write. A registered
// IOHandler's OnWrite runs and the value is then latched. A write to
// INTC_STAT clears the bits written as 1 and is not latched. Any other
// write is latched into ioRegion, so a later plain read sees it, and a
// write in the DMA channel range then runs the channel-trigger handling.
func (s *Space) writeIO(phys, value uint32) {
	s.mu.Lock()
	for _, h := range s.ioHandlers {
		if phys >= h.Start && phys < h.End {
			s.mu.Unlock()
			h.OnWrite(phys, value)
			s.latchIO(phys, value)
			return
		}
	}
	s.mu.Unlock()

	if phys == regINTCStat {
		s.clearINTCBits(value)
		return
	}
	s.latchIO(phys, value)

	if phys >= regDMAChannelBase && phys < regDMAChannelEnd {
		s.handleDMAChannelWrite(phys, value)
	}
}

func (s *Space) latchIO(phys, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := phys - IOBase
	if int(off)+4 > len(s.ioRegion) {
		return
	}
	binary.LittleEndian.PutUint32(s.ioRegion[off:], value)
}

// clearINTCBits applies the EE's write-1-to-clear convention for
// INTC_STAT: writing a 1 to a bit clears the pending interrupt, writing 0
// leaves it untouched.
func (s *Space) clearINTCBits(value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := regINTCStat - IOBase
	if int(off)+4 > len(s.ioRegion) {
		return
	}
	cur := binary.LittleEndian.Uint32(s.ioRegion[off:])
	binary.LittleEndian.PutUint32(s.ioRegion[off:], cur&^value)
}

// ReadIORaw/WriteIORaw expose direct latched-register access for kernel
// code (INTC mask setup, timer configuration) that doesn't go through the
// decoded-instruction Read32/Write32 path.
func (s *Space) ReadIORaw(phys uint32) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	off := phys - IOBase
	if int(off)+4 > len(s.ioRegion) {
		return 0
	}
	return binary.LittleEndian.Uint32(s.ioRegion[off:])
}

func (s *Space) WriteIORaw(phys, value uint32) {
	s.latchIO(phys, value)
}

package memory

import "encoding/binary"

// fastPath reports whether addr (already translated) can be served
// directly from the RDRAM buffer without going through the slow
// side-effecting dispatch the special-address range requires.
func (s *Space) fastPath(phys uint32) bool {
	return !isSpecialAddress(phys) && phys < RDRAMSize
}

func checkAlign(addr uint32, width int) error {
	if addr%uint32(width) != 0 {
		return &AddressError{Addr: addr, Width: width}
	}
	return nil
}

// Read8/16/32/64 read from the (already-translated) physical address,
// dispatching to RDRAM, scratchpad, IO (with side effects), or GS
// privileged registers as appropriate.
func (s *Space) Read8(phys uint32) (uint8, error) {
	if s.fastPath(phys) {
		return s.rdram[phys], nil
	}
	return uint8(s.readSlow(phys, 1)), nil
}

func (s *Space) Read16(phys uint32) (uint16, error) {
	if err := checkAlign(phys, 2); err != nil {
		return 0, err
	}
	if s.fastPath(phys) {
		return binary.LittleEndian.Uint16(s.rdram[phys:]), nil
	}
	return uint16(s.readSlow(phys, 2)), nil
}

func (s *Space) Read32(phys uint32) (uint32, error) {
	if err := checkAlign(phys, 4); err != nil {
		return 0, err
	}
	if s.fastPath(phys) {
		return binary.LittleEndian.Uint32(s.rdram[phys:]), nil
	}
	return s.readSlow(phys, 4), nil
}

func (s *Space) Read64(phys uint32) (uint64, error) {
	if err := checkAlign(phys, 8); err != nil {
		return 0, err
	}
	if s.fastPath(phys) {
		return binary.LittleEndian.Uint64(s.rdram[phys:]), nil
	}
	lo := uint64(s.readSlow(phys, 4))
	hi := uint64(s.readSlow(phys+4, 4))
	return lo | hi<<32, nil
}

// Read128 reads a full 128-bit quadword from RDRAM or the scratchpad;
// anywhere else it returns zero.
func (s *Space) Read128(phys uint32) (lo, hi uint64, err error) {
	if err = checkAlign(phys, 16); err != nil {
		return 0, 0, err
	}
	if s.fastPath(phys) {
		lo = binary.LittleEndian.Uint64(s.rdram[phys:])
		hi = binary.LittleEndian.Uint64(s.rdram[phys+8:])
		return lo, hi, nil
	}
	if phys >= ScratchpadBase && phys < ScratchpadBase+ScratchpadSize {
		off := phys - ScratchpadBase
		lo = binary.LittleEndian.Uint64(s.scratchpad[off:])
		hi = binary.LittleEndian.Uint64(s.scratchpad[off+8:])
		return lo, hi, nil
	}
	return 0, 0, nil
}

func (s *Space) Write8(phys uint32, v uint8) error {
	if s.fastPath(phys) {
		s.rdram[phys] = v
		s.MarkModified(phys)
		return nil
	}
	s.writeSlow(phys, uint32(v), 1)
	return nil
}

func (s *Space) Write16(phys uint32, v uint16) error {
	if err := checkAlign(phys, 2); err != nil {
		return err
	}
	if s.fastPath(phys) {
		binary.LittleEndian.PutUint16(s.rdram[phys:], v)
		s.MarkModified(phys)
		return nil
	}
	s.writeSlow(phys, uint32(v), 2)
	return nil
}

func (s *Space) Write32(phys uint32, v uint32) error {
	if err := checkAlign(phys, 4); err != nil {
		return err
	}
	if s.fastPath(phys) {
		binary.LittleEndian.PutUint32(s.rdram[phys:], v)
		s.MarkModified(phys)
		return nil
	}
	s.writeSlow(phys, v, 4)
	return nil
}

func (s *Space) Write64(phys uint32, v uint64) error {
	if err := checkAlign(phys, 8); err != nil {
		return err
	}
	if s.fastPath(phys) {
		binary.LittleEndian.PutUint64(s.rdram[phys:], v)
		s.MarkModified(phys)
		return nil
	}
	s.writeSlow(phys, uint32(v), 4)
	s.writeSlow(phys+4, uint32(v>>32), 4)
	return nil
}

// Write128 writes a full quadword. Outside RDRAM and the scratchpad this
// is split into two 64-bit writes: lo at phys, hi at phys+8.
func (s *Space) Write128(phys uint32, lo, hi uint64) error {
	if err := checkAlign(phys, 16); err != nil {
		return err
	}
	if s.fastPath(phys) {
		binary.LittleEndian.PutUint64(s.rdram[phys:], lo)
		binary.LittleEndian.PutUint64(s.rdram[phys+8:], hi)
		s.MarkModified(phys)
		return nil
	}
	if phys >= ScratchpadBase && phys < ScratchpadBase+ScratchpadSize {
		off := phys - ScratchpadBase
		binary.LittleEndian.PutUint64(s.scratchpad[off:], lo)
		binary.LittleEndian.PutUint64(s.scratchpad[off+8:], hi)
		return nil
	}
	if err := s.Write64(phys, lo); err != nil {
		return err
	}
	return s.Write64(phys+8, hi)
}

func (s *Space) readSlow(phys uint32, width int) uint32 {
	switch {
	case phys >= ScratchpadBase && phys < ScratchpadBase+ScratchpadSize:
		off := phys - ScratchpadBase
		return readWidth(s.scratchpad, off, width)
	case phys >= IOBase && phys < IOEnd:
		return s.readIO(phys)
	case phys >= GSPrivBase && phys < GSPrivBase+GSPrivSize:
		off := phys - GSPrivBase
		return readWidth(s.gsPriv, off, width)
	case phys < RDRAMSize:
		return readWidth(s.rdram, phys, width)
	default:
		return 0
	}
}

func (s *Space) writeSlow(phys uint32, v uint32, width int) {
	switch {
	case phys >= ScratchpadBase && phys < ScratchpadBase+ScratchpadSize:
		off := phys - ScratchpadBase
		writeWidth(s.scratchpad, off, v, width)
	case phys >= IOBase && phys < IOEnd:
		s.writeIO(phys, v)
	case phys >= GSPrivBase && phys < GSPrivBase+GSPrivSize:
		off := phys - GSPrivBase
		writeWidth(s.gsPriv, off, v, width)
	case phys < RDRAMSize:
		writeWidth(s.rdram, phys, v, width)
		s.MarkModified(phys)
	}
}

func readWidth(buf []byte, off uint32, width int) uint32 {
	if int(off)+width > len(buf) {
		return 0
	}
	switch width {
	case 1:
		return uint32(buf[off])
	case 2:
		return uint32(binary.LittleEndian.Uint16(buf[off:]))
	default:
		return binary.LittleEndian.Uint32(buf[off:])
	}
}

func writeWidth(buf []byte, off uint32, v uint32, width int) {
	if int(off)+width > len(buf) {
		return
	}
	switch width {
	case 1:
		buf[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	default:
		binary.LittleEndian.PutUint32(buf[off:], v)
	}
}

// GSVRAM exposes the raw VRAM buffer for the GS blit path (internal/hostio)
// and the GIF DMA emulation (dma.go). It's read-modify-write only through
// those two call sites, not through the general Read*/Write* accessors:
// GS VRAM is reached only through GIF/VIF DMA emulation.
func (s *Space) GSVRAM() []byte { return s.gsVRAM }

// RDRAM exposes the raw main-memory buffer for bulk operations (ELF
// segment loading, DMA) that don't want per-word overhead.
func (s *Space) RDRAM() []byte { return s.rdram }

// GSPriv exposes the raw GS privileged register buffer.
func (s *Space) GSPriv() []byte { return s.gsPriv }

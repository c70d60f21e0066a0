package memory

import "testing"

func TestReadWrite32RoundTrip(t *testing.T) {
	s := New()
	if err := s.Write32(0x1000, 0xCAFEBABE); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	got, err := s.Read32(0x1000)
	if err != nil {
		t.Fatalf("Read32: %v", err)
	}
	if got != 0xCAFEBABE {
		t.Fatalf("got %#x, want 0xCAFEBABE", got)
	}
}

func TestRead32UnalignedFails(t *testing.T) {
	s := New()
	_, err := s.Read32(0x1001)
	if err == nil {
		t.Fatalf("expected AddressError for unaligned read32")
	}
	ae, ok := err.(*AddressError)
	if !ok {
		t.Fatalf("expected *AddressError, got %T", err)
	}
	if ae.Addr != 0x1001 {
		t.Fatalf("AddressError.Addr = %#x, want 0x1001", ae.Addr)
	}
	msg := ae.Error()
	if msg == "" {
		t.Fatalf("AddressError.Error() returned empty string")
	}
}

func TestWrite64UnalignedFails(t *testing.T) {
	s := New()
	if err := s.Write64(0x1004, 0x1122334455667788); err == nil {
		t.Fatalf("expected AddressError for unaligned write64")
	}
}

func TestReadWrite128RoundTrip(t *testing.T) {
	s := New()
	if err := s.Write128(0x2000, 0x1111111111111111, 0x2222222222222222); err != nil {
		t.Fatalf("Write128: %v", err)
	}
	lo, hi, err := s.Read128(0x2000)
	if err != nil {
		t.Fatalf("Read128: %v", err)
	}
	if lo != 0x1111111111111111 || hi != 0x2222222222222222 {
		t.Fatalf("got (%#x, %#x)", lo, hi)
	}
}

func TestWrite128OutsideMappedRegionIsSplit(t *testing.T) {
	s := New()
	if err := s.Write128(IOBase, 0xAAAAAAAAAAAAAAAA, 0xBBBBBBBBBBBBBBBB); err != nil {
		t.Fatalf("Write128 into IO region: %v", err)
	}
	got := s.ReadIORaw(IOBase)
	if got != 0xAAAAAAAA {
		t.Fatalf("low word of split 128-bit IO write = %#x, want 0xAAAAAAAA", got)
	}
}

func TestScratchpadReadWrite(t *testing.T) {
	s := New()
	if err := s.Write32(ScratchpadBase+0x10, 0x42); err != nil {
		t.Fatalf("Write32 scratchpad: %v", err)
	}
	got, err := s.Read32(ScratchpadBase + 0x10)
	if err != nil {
		t.Fatalf("Read32 scratchpad: %v", err)
	}
	if got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
}

func TestTranslateKSEG0AndKSEG1AliasSamePhysical(t *testing.T) {
	s := New()
	p0, err := s.Translate(KSEG0Base + 0x1000)
	if err != nil {
		t.Fatalf("Translate KSEG0: %v", err)
	}
	p1, err := s.Translate(KSEG1Base + 0x1000)
	if err != nil {
		t.Fatalf("Translate KSEG1: %v", err)
	}
	if p0 != p1 {
		t.Fatalf("KSEG0 phys %#x != KSEG1 phys %#x", p0, p1)
	}
	if p0 != 0x1000 {
		t.Fatalf("phys = %#x, want 0x1000", p0)
	}
}

func TestTranslateHighVirtualRequiresTLBEntry(t *testing.T) {
	s := New()
	if _, err := s.Translate(TLBVirtualFloor); err == nil {
		t.Fatalf("expected TLBMiss with no entries installed")
	}
	s.AddTLBEntry(TLBEntry{VPN: TLBVirtualFloor, PFN: 0x5000, Mask: 0xFFF, Valid: true})
	phys, err := s.Translate(TLBVirtualFloor + 0x10)
	if err != nil {
		t.Fatalf("Translate after installing TLB entry: %v", err)
	}
	if phys != 0x5010 {
		t.Fatalf("phys = %#x, want 0x5010", phys)
	}
}

func TestCodeModifiedTrackingClearsAndRearm(t *testing.T) {
	s := New()
	s.RegisterCodeRegion(0, 0x1000)

	if s.IsCodeModified(0x40) {
		t.Fatalf("fresh region should not report modified")
	}
	if err := s.Write32(0x40, 1); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if !s.IsCodeModified(0x40) {
		t.Fatalf("expected modified after write")
	}
	s.ClearModifiedFlag(0x40)
	if s.IsCodeModified(0x40) {
		t.Fatalf("expected cleared after ClearModifiedFlag")
	}
}

func TestDMAChannelTriggerCopiesToVRAM(t *testing.T) {
	s := New()
	copy(s.RDRAM()[0x8000:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})

	base := uint32(regDMAChannelBase + 2*dmaChannelStride) // GIF channel
	if err := s.Write32(base+madrOffset, 0x8000); err != nil {
		t.Fatalf("Write32 MADR: %v", err)
	}
	if err := s.Write32(base+qwcOffset, 1); err != nil {
		t.Fatalf("Write32 QWC: %v", err)
	}
	if err := s.Write32(base+chcrOffset, chcrTrigger); err != nil {
		t.Fatalf("Write32 CHCR: %v", err)
	}

	vram := s.GSVRAM()
	for i := 0; i < 16; i++ {
		if vram[i] != byte(i+1) {
			t.Fatalf("vram[%d] = %d, want %d", i, vram[i], i+1)
		}
	}

	chcr := s.ReadIORaw(base + chcrOffset)
	if chcr&chcrTrigger != 0 {
		t.Fatalf("CHCR trigger bit should be cleared after transfer completes")
	}
}

func TestINTCStatWriteOneToClear(t *testing.T) {
	s := New()
	s.WriteIORaw(regINTCStat, 0x0F)
	if err := s.Write32(regINTCStat, 0x01); err != nil {
		t.Fatalf("Write32 INTC_STAT: %v", err)
	}
	got := s.ReadIORaw(regINTCStat)
	if got != 0x0E {
		t.Fatalf("INTC_STAT = %#x, want 0x0E after clearing bit 0", got)
	}
}

package hostio

import (
	"testing"
	"time"
)

type fakeMem struct {
	buf      map[uint32]byte
	words    map[uint32]uint32
	gsvram   []byte
	rdram    []byte
	gsPriv   []byte
}

func newFakeMem() *fakeMem {
	return &fakeMem{
		buf:    make(map[uint32]byte),
		words:  make(map[uint32]uint32),
		gsvram: make([]byte, 64),
		rdram:  make([]byte, 64),
		gsPriv: make([]byte, 256),
	}
}

func (m *fakeMem) Write8(addr uint32, v uint8) error {
	m.buf[addr] = v
	return nil
}

func (m *fakeMem) Write32(addr uint32, v uint32) error {
	m.words[addr] = v
	return nil
}

func (m *fakeMem) GSVRAM() []byte { return m.gsvram }
func (m *fakeMem) RDRAM() []byte  { return m.rdram }
func (m *fakeMem) GSPriv() []byte { return m.gsPriv }

func TestScePadReadDefaultsToNoButtonsPressed(t *testing.T) {
	p := NewPadState()
	mem := newFakeMem()

	p.ScePadRead(0x1000, mem)

	if mem.buf[0x1002] != 0xFF || mem.buf[0x1003] != 0xFF {
		t.Fatalf("default button mask = %#x%02x, want 0xFFFF (nothing pressed)",
			mem.buf[0x1003], mem.buf[0x1002])
	}
}

func TestScePadReadReflectsSetButtons(t *testing.T) {
	p := NewPadState()
	mem := newFakeMem()

	p.SetButtons(0xFFFE) // cross pressed (bit 0 cleared), active-low
	p.ScePadRead(0x2000, mem)

	got := uint16(mem.buf[0x2002]) | uint16(mem.buf[0x2003])<<8
	if got != 0xFFFE {
		t.Fatalf("button mask = %#x, want 0xFFFE", got)
	}
}

type fireCounter struct{ n int }

func (f *fireCounter) FireIntc(cause uint32) { f.n++ }

func TestVSyncWorkerTicksAndFiresIntc(t *testing.T) {
	mem := newFakeMem()
	intc := &fireCounter{}
	w := NewVSyncWorker(mem, intc, 0x100, 0x104)
	w.Start()
	defer w.Stop()

	ok := w.WaitVSyncTick()
	if !ok {
		t.Fatalf("WaitVSyncTick returned false before Stop")
	}
	if mem.words[0x100] != 1 {
		t.Fatalf("flag word = %d, want 1 after first tick", mem.words[0x100])
	}
	if mem.words[0x104] == 0 {
		t.Fatalf("tick word = 0, want nonzero after first tick")
	}
	if intc.n == 0 {
		t.Fatalf("expected FireIntc calls for VBLANK start/end")
	}
}

func TestVSyncWorkerStopUnblocksWaiters(t *testing.T) {
	mem := newFakeMem()
	intc := &fireCounter{}
	w := NewVSyncWorker(mem, intc, 0x100, 0x104)
	w.Start()

	done := make(chan bool, 1)
	go func() {
		w.Stop()
	}()
	go func() {
		// Drain one real tick first so this isn't racing Start().
		time.Sleep(5 * time.Millisecond)
		done <- w.WaitVSyncTick()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitVSyncTick never returned after Stop")
	}
}

func TestGSBlitterFallsBackToRDRAMForNonPSMCT32(t *testing.T) {
	mem := newFakeMem()
	// DISPFBUF1 with PSM bits (15..20) set to a nonzero value != PSMCT32.
	mem.gsPriv[dispfbuf1Off+1] = 0x80 // bit 15 set => psm=1

	g := NewGSBlitter()
	g.Blit(mem)

	if g.Image() == nil {
		t.Fatalf("expected an image to be produced even on PSM fallback")
	}
}

func TestGSBlitterReadsPSMCT32FromVRAM(t *testing.T) {
	mem := newFakeMem()
	// DISPFBUF1 left zeroed => FBP=0, FBW=0, PSM=0 (PSMCT32).
	// DISPLAY1 left zeroed => DW=1, DH=1 after +1.
	mem.gsvram[0] = 0xAA
	mem.gsvram[1] = 0xBB
	mem.gsvram[2] = 0xCC
	mem.gsvram[3] = 0xDD

	g := NewGSBlitter()
	g.Blit(mem)

	if g.rgba[0] != 0xAA || g.rgba[1] != 0xBB {
		t.Fatalf("expected first pixel copied from GS VRAM, got %v", g.rgba[:4])
	}
}

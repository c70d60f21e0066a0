package hostio

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// PSM (pixel storage mode) values relevant to the blit path; every mode
// other than PSMCT32 falls back to a default-address RDRAM copy rather
// than decoding the GS's tiled/packed layouts.
const psmct32 = 0

// GSReader is the narrow read surface the blit path needs from the guest
// address space: GS VRAM for the PSMCT32 fast path, RDRAM for the
// fallback, and the two privileged display registers.
type GSReader interface {
	GSVRAM() []byte
	RDRAM() []byte
	GSPriv() []byte
}

const (
	dispfbuf1Off = 0x70 // DISPFBUF1 offset within GSPriv
	display1Off  = 0x80 // DISPLAY1 offset within GSPriv

	fallbackRDRAMAddr = 0

	displayWidthMax  = 640
	displayHeightMax = 448
)

// GSBlitter owns the host-visible ebiten.Image that mirrors GS VRAM (or
// the RDRAM fallback buffer) once per host frame, grounded on
// video_backend_ebiten.go's frameBuffer+WritePixels pattern.
type GSBlitter struct {
	mu     sync.RWMutex
	img    *ebiten.Image
	width  int
	height int
	rgba   []byte
}

// NewGSBlitter creates a blitter sized for the EE's maximum NTSC display.
func NewGSBlitter() *GSBlitter {
	return &GSBlitter{
		width:  displayWidthMax,
		height: displayHeightMax,
		rgba:   make([]byte, displayWidthMax*displayHeightMax*4),
	}
}

func le64(b []byte, off int) uint64 {
	if off+8 > len(b) {
		return 0
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}

// Blit reads DISPFBUF1 (FBP, FBW, PSM) and DISPLAY1 (DW, DH) from GS-priv
// and copies the framebuffer region into the RGBA scratch buffer, then
// uploads it as a single texture update. PSM other than PSMCT32 falls
// back to a raw RDRAM copy at a default address.
func (g *GSBlitter) Blit(mem GSReader) {
	priv := mem.GSPriv()
	dispfbuf1 := le64(priv, dispfbuf1Off)
	display1 := le64(priv, display1Off)

	fbp := uint32(dispfbuf1 & 0x1FF)
	fbw := uint32((dispfbuf1 >> 9) & 0x3F)
	psm := uint32((dispfbuf1 >> 15) & 0x3F)

	dw := uint32(display1&0xFFF) + 1
	dh := uint32((display1>>44)&0x7FF) + 1

	if dw > displayWidthMax {
		dw = displayWidthMax
	}
	if dh > displayHeightMax {
		dh = displayHeightMax
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if psm != psmct32 {
		g.blitFromRDRAM(mem.RDRAM(), dw, dh)
	} else {
		g.blitFromVRAM(mem.GSVRAM(), fbp, fbw, dw, dh)
	}

	if g.img == nil {
		g.img = ebiten.NewImage(g.width, g.height)
	}
	g.img.WritePixels(g.rgba)
}

func (g *GSBlitter) blitFromVRAM(vram []byte, fbp, fbw, dw, dh uint32) {
	rowBytes := dw * 4
	for y := uint32(0); y < dh; y++ {
		srcOff := fbp*2048 + y*fbw*64*4
		dstOff := y * displayWidthMax * 4
		if int(srcOff+rowBytes) > len(vram) || int(dstOff+rowBytes) > len(g.rgba) {
			break
		}
		copy(g.rgba[dstOff:dstOff+rowBytes], vram[srcOff:srcOff+rowBytes])
	}
}

func (g *GSBlitter) blitFromRDRAM(rdram []byte, dw, dh uint32) {
	rowBytes := dw * 4
	for y := uint32(0); y < dh; y++ {
		srcOff := uint32(fallbackRDRAMAddr) + y*dw*4
		dstOff := y * displayWidthMax * 4
		if int(srcOff+rowBytes) > len(rdram) || int(dstOff+rowBytes) > len(g.rgba) {
			break
		}
		copy(g.rgba[dstOff:dstOff+rowBytes], rdram[srcOff:srcOff+rowBytes])
	}
}

// Image returns the current host-visible texture, for a caller's Draw.
func (g *GSBlitter) Image() *ebiten.Image {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.img
}

// Package hostio is the host-facing edge of the runtime: pad input,
// GS-VRAM blit, a silent audio keep-alive stream, and the 60Hz VSync
// worker. Grounded on video_backend_ebiten.go's Ebiten game loop (Draw/
// Update/Layout, keyboard polling via inpututil) and audio_backend_oto.go's
// oto.Context/Player setup, generalized from a retro-computer frontend to
// a pad/GS-VRAM blit surface.
package hostio

import "sync"

// PadState holds the process-wide pad override the host input layer
// writes and scePadRead reads; unset axes/mask default to the EE's
// "nothing pressed" encoding.
type PadState struct {
	mu      sync.RWMutex
	buttons uint16 // active-low: 0 bit = pressed
	rx, ry  uint8
	lx, ly  uint8
}

// NewPadState returns a pad with no buttons pressed and sticks centered.
func NewPadState() *PadState {
	return &PadState{
		buttons: 0xFFFF,
		rx:      0x80, ry: 0x80, lx: 0x80, ly: 0x80,
	}
}

// SetButtons/SetSticks are called by the host input layer (PollKeyboard
// in pad_ebiten.go) to update the override state ScePadRead later
// observes.
func (p *PadState) SetButtons(mask uint16) {
	p.mu.Lock()
	p.buttons = mask
	p.mu.Unlock()
}

func (p *PadState) SetSticks(rx, ry, lx, ly uint8) {
	p.mu.Lock()
	p.rx, p.ry, p.lx, p.ly = rx, ry, lx, ly
	p.mu.Unlock()
}

// snapshot is used by scePadRead to take a consistent read under the lock.
func (p *PadState) snapshot() (buttons uint16, rx, ry, lx, ly uint8) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buttons, p.rx, p.ry, p.lx, p.ly
}

// pad state/mode constants documented by the real sio2/pad API.
const (
	padStateStable  = 6
	padPortMax      = 2
	padSlotMax      = 1
	padModeDigital  = 4
	padModeAnalog   = 7
)

// MemWriter is the narrow slice of memory.Space scePadRead needs, kept
// as an interface so hostio does not import internal/memory directly
// (the kernel package already owns that dependency and passes a *memory.Space
// satisfying this interface at the call site).
type MemWriter interface {
	Write8(addr uint32, v uint8) error
}

// ScePadRead fills the seven-byte frame buffer the EE pad API documents:
// offsets 2-3 are the active-low 16-bit button mask (little-endian),
// 4=rx, 5=ry, 6=lx, 7=ly.
func (p *PadState) ScePadRead(bufAddr uint32, mem MemWriter) {
	buttons, rx, ry, lx, ly := p.snapshot()
	_ = mem.Write8(bufAddr+2, byte(buttons))
	_ = mem.Write8(bufAddr+3, byte(buttons>>8))
	_ = mem.Write8(bufAddr+4, rx)
	_ = mem.Write8(bufAddr+5, ry)
	_ = mem.Write8(bufAddr+6, lx)
	_ = mem.Write8(bufAddr+7, ly)
}

func ScePadGetState() int32   { return padStateStable }
func ScePadGetPortMax() int32 { return padPortMax }
func ScePadGetSlotMax() int32 { return padSlotMax }
func ScePadInfoMode() int32   { return padModeDigital }

package kernel

import "github.com/ran-j/ps2recomp/internal/cpucontext"

// INTC cause bits relevant to recompiled guest code; VBLANK is the only
// interrupt source the host side actually drives (from the VSync worker
// in internal/hostio).
const (
	IntcVBlankStart = 2
	IntcVBlankEnd   = 3
)

type intcHandler struct {
	ID     uint32
	Cause  uint32
	Fn     func(arg uint32) int32
	Mode   uint32
	Arg    uint32
}

// EnableIntc/DisableIntc gate whether FireIntc actually invokes handlers
// registered against that cause, mirroring the real iEnableIntc/
// iDisableIntc pair recompiled code calls around DMA/VBLANK waits.
func (k *Kernel) EnableIntc(ctx *cpucontext.Context) {
	cause := ctx.GPRU32(4)
	k.mu.Lock()
	k.intcEnabled[cause] = true
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) DisableIntc(ctx *cpucontext.Context) {
	cause := ctx.GPRU32(4)
	k.mu.Lock()
	k.intcEnabled[cause] = false
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

// AddIntcHandler registers fn against cause, returning a handler id the
// guest uses with RemoveIntcHandler.
func (k *Kernel) AddIntcHandler(cause uint32, fn func(arg uint32) int32, mode, arg uint32) uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.nextIntcID
	k.nextIntcID++
	k.intcHandlers[id] = &intcHandler{ID: id, Cause: cause, Fn: fn, Mode: mode, Arg: arg}
	if _, ok := k.intcEnabled[cause]; !ok {
		k.intcEnabled[cause] = true
	}
	return id
}

func (k *Kernel) RemoveIntcHandler(id uint32) int32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.intcHandlers[id]; !ok {
		return KE_ERROR
	}
	delete(k.intcHandlers, id)
	return KE_OK
}

// FireIntc invokes every enabled handler registered for cause. Called by
// the VSync worker for IntcVBlankStart/IntcVBlankEnd once per 60Hz tick.
func (k *Kernel) FireIntc(cause uint32) {
	k.mu.Lock()
	if !k.intcEnabled[cause] {
		k.mu.Unlock()
		return
	}
	var handlers []*intcHandler
	for _, h := range k.intcHandlers {
		if h.Cause == cause {
			handlers = append(handlers, h)
		}
	}
	k.mu.Unlock()

	for _, h := range handlers {
		h.Fn(h.Arg)
	}
}

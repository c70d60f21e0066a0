package kernel

import (
	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// GsSetCrt and GsSetVideoMode accept and ignore their CRT-mode/interlace
// arguments: the host GS blit backend always renders progressive at a
// fixed resolution (internal/hostio), so there is no mode to actually
// switch.
func (k *Kernel) GsSetCrt(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) GsSetVideoMode(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

// GsGetIMR/GsPutIMR model the GS privileged interrupt-mask register as
// plain Kernel state rather than routing it through the memory-mapped
// GS-priv window, since recompiled code reaches it exclusively through
// these two syscalls rather than direct loads/stores.
func (k *Kernel) GsGetIMR(ctx *cpucontext.Context) {
	k.mu.Lock()
	v := k.gsIMR
	k.mu.Unlock()
	ctx.SetReturnU32(v)
}

func (k *Kernel) GsPutIMR(ctx *cpucontext.Context) {
	v := ctx.GPRU32(4)
	k.mu.Lock()
	k.gsIMR = v
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

// GetOsdConfigParam/SetOsdConfigParam expose the single packed OSD
// config word (language, aspect ratio, timezone) guest code reads at
// startup to pick a UI language; no actual OSD exists, so the value is
// just held and returned.
func (k *Kernel) GetOsdConfigParam(ctx *cpucontext.Context, mem *memory.Space) {
	ptr := ctx.GPRU32(4)
	k.mu.Lock()
	v := k.osdCfg
	k.mu.Unlock()
	_ = mem.Write32(ptr, v)
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) SetOsdConfigParam(ctx *cpucontext.Context, mem *memory.Space) {
	ptr := ctx.GPRU32(4)
	v, err := mem.Read32(ptr)
	if err != nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	k.mu.Lock()
	k.osdCfg = v
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

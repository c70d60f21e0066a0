package kernel

import (
	"testing"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

func TestDispatchUnknownFallsBackToUnknownHandler(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()
	ctx := cpucontext.New()

	k.Dispatch(0xffff, ctx, mem)
	if rc := int32(ctx.GPRU32(2)); rc != KE_ERROR {
		t.Fatalf("Dispatch(unknown id) rc = %d, want KE_ERROR", rc)
	}
}

func TestDispatchRoutesCreateSema(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	ptr := uint32(0x5000)
	words := []uint32{0, 0, 1, 1} // attr, option, init, max
	for i, w := range words {
		_ = mem.Write32(ptr+uint32(i*4), w)
	}
	ctx := cpucontext.New()
	ctx.SetGPRU32(4, ptr)

	k.Dispatch(sysCreateSema, ctx, mem)

	id := ctx.GPRU32(2)
	k.mu.Lock()
	_, ok := k.semas[id]
	k.mu.Unlock()
	if !ok {
		t.Fatalf("Dispatch(sysCreateSema) did not register a semaphore under id %d", id)
	}
}

func TestDispatchRoutesDeleteSema(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	k.mu.Lock()
	k.semas[7] = newSemaphore(7, 0, 0, 0, 1)
	k.mu.Unlock()

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, 7)
	k.Dispatch(sysDeleteSema, ctx, mem)

	if rc := int32(ctx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysDeleteSema) rc = %d, want KE_OK", rc)
	}
	k.mu.Lock()
	_, ok := k.semas[7]
	k.mu.Unlock()
	if ok {
		t.Fatalf("Dispatch(sysDeleteSema) left the semaphore registered")
	}
}

func TestDispatchRoutesPollSema(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	k.mu.Lock()
	k.semas[1] = newSemaphore(1, 0, 0, 0, 1)
	k.mu.Unlock()

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, 1)
	k.Dispatch(sysPollSema, ctx, mem)

	if rc := int32(ctx.GPRU32(2)); rc != KE_SEMA_ZERO {
		t.Fatalf("Dispatch(sysPollSema) rc = %d, want KE_SEMA_ZERO", rc)
	}
}

func TestDispatchRoutesEventFlagCreateAndPoll(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	ptr := uint32(0x5000)
	words := []uint32{0, 0, 0b01} // attr, option, init_pattern
	for i, w := range words {
		_ = mem.Write32(ptr+uint32(i*4), w)
	}
	createCtx := cpucontext.New()
	createCtx.SetGPRU32(4, ptr)
	k.Dispatch(sysCreateEventFlag, createCtx, mem)
	id := createCtx.GPRU32(2)

	pollCtx := cpucontext.New()
	pollCtx.SetGPRU32(4, id)
	pollCtx.SetGPRU32(5, 0b01)
	pollCtx.SetGPRU32(6, WEF_OR)
	pollCtx.SetGPRU32(7, 0)
	k.Dispatch(sysPollEventFlag, pollCtx, mem)

	if rc := int32(pollCtx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysPollEventFlag) rc = %d, want KE_OK", rc)
	}
}

func TestDispatchRoutesIntcEnableDisable(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	fired := false
	k.AddIntcHandler(IntcVBlankStart, func(arg uint32) int32 {
		fired = true
		return 0
	}, 0, 0)

	disableCtx := cpucontext.New()
	disableCtx.SetGPRU32(4, IntcVBlankStart)
	k.Dispatch(sysDisableIntc, disableCtx, mem)
	k.FireIntc(IntcVBlankStart)
	if fired {
		t.Fatalf("handler fired after Dispatch(sysDisableIntc)")
	}

	enableCtx := cpucontext.New()
	enableCtx.SetGPRU32(4, IntcVBlankStart)
	k.Dispatch(sysEnableIntc, enableCtx, mem)
	k.FireIntc(IntcVBlankStart)
	if !fired {
		t.Fatalf("handler did not fire after Dispatch(sysEnableIntc)")
	}
}

func TestDispatchRoutesCreateThread(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	ptr := uint32(0x6000)
	words := []uint32{0, 0x1000, 0x2000, 0x100, 0, 0, 0}
	for i, w := range words {
		_ = mem.Write32(ptr+uint32(i*4), w)
	}

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, ptr)
	k.Dispatch(sysCreateThread, ctx, mem)

	tid := ctx.GPRU32(2)
	k.mu.Lock()
	th, ok := k.threads[tid]
	k.mu.Unlock()
	if !ok {
		t.Fatalf("Dispatch(sysCreateThread) did not register a thread under id %d", tid)
	}
	if th.Entry != 0x1000 {
		t.Fatalf("thread entry = %#x, want 0x1000", th.Entry)
	}
}

func TestDispatchRoutesGsImrRoundTrip(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	putCtx := cpucontext.New()
	putCtx.SetGPRU32(4, 0xabcd)
	k.Dispatch(sysGsPutIMR, putCtx, mem)

	getCtx := cpucontext.New()
	k.Dispatch(sysGsGetIMR, getCtx, mem)
	if got := getCtx.GPRU32(2); got != 0xabcd {
		t.Fatalf("Dispatch(sysGsGetIMR) = %#x, want 0xabcd", got)
	}
}

func TestDispatchRoutesOsdConfigParamRoundTrip(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	setPtr := uint32(0x7000)
	_ = mem.Write32(setPtr, 0x55)
	setCtx := cpucontext.New()
	setCtx.SetGPRU32(4, setPtr)
	k.Dispatch(sysSetOsdConfigParam, setCtx, mem)
	if rc := int32(setCtx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysSetOsdConfigParam) rc = %d, want KE_OK", rc)
	}

	getPtr := uint32(0x7004)
	getCtx := cpucontext.New()
	getCtx.SetGPRU32(4, getPtr)
	k.Dispatch(sysGetOsdConfigParam, getCtx, mem)
	if rc := int32(getCtx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysGetOsdConfigParam) rc = %d, want KE_OK", rc)
	}
	got, _ := mem.Read32(getPtr)
	if got != 0x55 {
		t.Fatalf("osd config param round trip = %#x, want 0x55", got)
	}
}

func TestDispatchRoutesScePadReadWithoutBackend(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()
	ctx := cpucontext.New()

	k.Dispatch(sysScePadRead, ctx, mem)
	if rc := int32(ctx.GPRU32(2)); rc != KE_ERROR {
		t.Fatalf("Dispatch(sysScePadRead) with no PadRead wired = %d, want KE_ERROR", rc)
	}
}

func TestDispatchRoutesScePadReadWithBackend(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	var sawBufAddr uint32
	k.PadRead = func(bufAddr uint32, mem *memory.Space) {
		sawBufAddr = bufAddr
	}

	ctx := cpucontext.New()
	ctx.SetGPRU32(6, 0x8000)
	k.Dispatch(sysScePadRead, ctx, mem)

	if rc := int32(ctx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysScePadRead) with backend wired = %d, want KE_OK", rc)
	}
	if sawBufAddr != 0x8000 {
		t.Fatalf("PadRead bufAddr = %#x, want 0x8000", sawBufAddr)
	}
}

func TestDispatchRoutesFioOpenClose(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	namePtr := uint32(0x4000)
	for i, b := range []byte("host:dispatch.bin\x00") {
		_ = mem.Write8(namePtr+uint32(i), b)
	}

	openCtx := cpucontext.New()
	openCtx.SetGPRU32(4, namePtr)
	openCtx.SetGPRU32(5, fioSWrOnly|fioSCreat|fioSTrunc)
	k.Dispatch(sysFioOpen, openCtx, mem)
	fd := int32(openCtx.GPRU32(2))
	if fd < 0 {
		t.Fatalf("Dispatch(sysFioOpen) failed: %d", fd)
	}

	closeCtx := cpucontext.New()
	closeCtx.SetGPRU32(4, uint32(fd))
	k.Dispatch(sysFioClose, closeCtx, mem)
}

func TestDispatchRoutesSifBindAndCallRpc(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	bindCtx := cpucontext.New()
	bindCtx.SetGPRU32(4, 0x1000)
	bindCtx.SetGPRU32(5, 42)
	k.Dispatch(sysSifBindRpc, bindCtx, mem)

	callCtx := cpucontext.New()
	callCtx.SetGPRU32(4, 0x1000)
	callCtx.SetGPRU32(6, 0x2000)
	callCtx.SetGPRU32(7, 0)
	k.Dispatch(sysSifCallRpc, callCtx, mem)

	if rc := int32(callCtx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("Dispatch(sysSifCallRpc) rc = %d, want KE_OK", rc)
	}
}

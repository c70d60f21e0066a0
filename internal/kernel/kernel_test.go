package kernel

import (
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

func discardLogger() *log.Logger {
	return log.New(discardWriter{}, "", 0)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestKernel(t *testing.T) (*Kernel, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "kernel-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	mem := memory.New()
	done := make(chan struct{})
	k := New(mem, dir, done, discardLogger())
	return k, func() {
		close(done)
		os.RemoveAll(dir)
	}
}

func TestSemaphoreWaitWakesOnSignal(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	s := newSemaphore(1, 0, 0, 0, 1)
	k.mu.Lock()
	k.semas[1] = s
	k.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	var result int32
	go func() {
		defer wg.Done()
		result = k.WaitSema(1)
	}()

	time.Sleep(20 * time.Millisecond)
	if rc := k.SignalSema(1); rc != KE_OK {
		t.Fatalf("SignalSema = %d, want KE_OK", rc)
	}

	wg.Wait()
	if result != KE_OK {
		t.Fatalf("WaitSema result = %d, want KE_OK", result)
	}
}

func TestSignalSemaOverflow(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	k.mu.Lock()
	k.semas[1] = newSemaphore(1, 0, 0, 1, 1)
	k.mu.Unlock()

	if rc := k.SignalSema(1); rc != KE_SEMA_OVF {
		t.Fatalf("SignalSema at max = %d, want KE_SEMA_OVF", rc)
	}
}

func TestPollSemaZero(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	k.mu.Lock()
	k.semas[1] = newSemaphore(1, 0, 0, 0, 1)
	k.mu.Unlock()

	if rc := k.PollSema(1); rc != KE_SEMA_ZERO {
		t.Fatalf("PollSema on empty = %d, want KE_SEMA_ZERO", rc)
	}
}

func TestClearEventFlagMasksRatherThanClears(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	e := newEventFlag(1, 0, 0, 0)
	e.Pattern = 0b1111
	k.mu.Lock()
	k.eventFlags[1] = e
	k.mu.Unlock()

	if rc := k.ClearEventFlag(1, 0b0011); rc != KE_OK {
		t.Fatalf("ClearEventFlag rc = %d", rc)
	}

	k.mu.Lock()
	got := k.eventFlags[1].Pattern
	k.mu.Unlock()
	if got != 0b0011 {
		t.Fatalf("pattern = %#b, want 0b0011 (EE semantics: pattern &= bits)", got)
	}
}

func TestPollEventFlagORCondition(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	mem := memory.New()
	e := newEventFlag(1, 0, 0, 0b0100)
	k.mu.Lock()
	k.eventFlags[1] = e
	k.mu.Unlock()

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, 1)
	ctx.SetGPRU32(5, 0b0110) // bits
	ctx.SetGPRU32(6, WEF_OR)
	ctx.SetGPRU32(7, 0) // no result ptr

	k.PollEventFlag(ctx, mem)
	if rc := int32(ctx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("PollEventFlag rc = %d, want KE_OK for OR match", rc)
	}
}

func TestPollEventFlagFailsWithoutCondition(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	mem := memory.New()
	e := newEventFlag(1, 0, 0, 0)
	k.mu.Lock()
	k.eventFlags[1] = e
	k.mu.Unlock()

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, 1)
	ctx.SetGPRU32(5, 0b0110)
	ctx.SetGPRU32(6, WEF_OR)
	ctx.SetGPRU32(7, 0)

	k.PollEventFlag(ctx, mem)
	if rc := int32(ctx.GPRU32(2)); rc != KE_EVF_COND {
		t.Fatalf("PollEventFlag rc = %d, want KE_EVF_COND", rc)
	}
}

func TestIntcFiresOnlyWhenEnabled(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()

	fired := false
	k.AddIntcHandler(IntcVBlankStart, func(arg uint32) int32 {
		fired = true
		return 0
	}, 0, 0)

	k.DisableIntc(&cpucontext.Context{})
	ctx := cpucontext.New()
	ctx.SetGPRU32(4, IntcVBlankStart)
	k.DisableIntc(ctx)

	k.FireIntc(IntcVBlankStart)
	if fired {
		t.Fatalf("handler fired while disabled")
	}

	k.EnableIntc(ctx)
	k.FireIntc(IntcVBlankStart)
	if !fired {
		t.Fatalf("handler did not fire once enabled")
	}
}

func TestSifBindAndCallRpcRoundTrip(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	bindCtx := cpucontext.New()
	bindCtx.SetGPRU32(4, 0x1000) // clientPtr
	bindCtx.SetGPRU32(5, 42)     // sid
	k.SifBindRpc(bindCtx)

	for i, b := range []byte("ping") {
		_ = mem.Write8(0x2000+uint32(i), b)
	}

	callCtx := cpucontext.New()
	callCtx.SetGPRU32(4, 0x1000) // clientPtr
	callCtx.SetGPRU32(6, 0x2000) // sendPtr
	callCtx.SetGPRU32(7, 4)      // sendSize
	k.SifCallRpc(callCtx, mem)

	if rc := int32(callCtx.GPRU32(2)); rc != KE_OK {
		t.Fatalf("SifCallRpc rc = %d, want KE_OK", rc)
	}

	statCtx := cpucontext.New()
	statCtx.SetGPRU32(4, 0x1000)
	k.SifCheckStatRpc(statCtx)
	if rc := int32(statCtx.GPRU32(2)); rc != 0 {
		t.Fatalf("SifCheckStatRpc rc = %d, want 0 (done)", rc)
	}
}

func TestSceSifSetDmaRejectsTooManyDescriptors(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, 0x3000)
	ctx.SetGPRU32(5, maxSifDmaDescriptors+1)
	k.SceSifSetDma(ctx, mem)

	if rc := int32(ctx.GPRU32(2)); rc != 0 {
		t.Fatalf("SceSifSetDma rc = %d, want 0", rc)
	}
}

func TestSceSifSetDmaSucceedsAndReportsComplete(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	src, dest := uint32(0x4000), uint32(0x5000)
	payload := []byte{0x11, 0x22, 0x33, 0x44}
	for i, b := range payload {
		_ = mem.Write8(src+uint32(i), b)
	}

	descPtr := uint32(0x3000)
	_ = mem.Write32(descPtr, src)
	_ = mem.Write32(descPtr+4, dest)
	_ = mem.Write32(descPtr+8, uint32(len(payload)))
	_ = mem.Write32(descPtr+12, 0)

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, descPtr)
	ctx.SetGPRU32(5, 1)
	k.SceSifSetDma(ctx, mem)

	dmaID := int32(ctx.GPRU32(2))
	if dmaID <= 0 {
		t.Fatalf("SceSifSetDma rc = %d, want a positive transfer id", dmaID)
	}
	for i, want := range payload {
		got, _ := mem.Read8(dest + uint32(i))
		if got != want {
			t.Fatalf("dest[%d] = %#x, want %#x", i, got, want)
		}
	}

	statCtx := cpucontext.New()
	k.SceSifDmaStat(statCtx)
	if rc := int32(statCtx.GPRU32(2)); rc >= 0 {
		t.Fatalf("SceSifDmaStat rc = %d, want negative (complete)", rc)
	}
}

func TestFioOpenRejectsPathTraversal(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	namePtr := uint32(0x4000)
	for i, b := range []byte("host:../../etc/passwd\x00") {
		_ = mem.Write8(namePtr+uint32(i), b)
	}

	ctx := cpucontext.New()
	ctx.SetGPRU32(4, namePtr)
	ctx.SetGPRU32(5, 0)
	k.FioOpen(ctx, mem)

	if rc := int32(ctx.GPRU32(2)); rc >= 0 {
		t.Fatalf("FioOpen on traversal path = %d, want negative", rc)
	}
}

func TestFioWriteReadRoundTrip(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	namePtr := uint32(0x4000)
	for i, b := range []byte("host:out.bin\x00") {
		_ = mem.Write8(namePtr+uint32(i), b)
	}

	openCtx := cpucontext.New()
	openCtx.SetGPRU32(4, namePtr)
	openCtx.SetGPRU32(5, fioSWrOnly|fioSCreat|fioSTrunc)
	k.FioOpen(openCtx, mem)
	fd := int32(openCtx.GPRU32(2))
	if fd < 0 {
		t.Fatalf("FioOpen for write failed: %d", fd)
	}

	dataPtr := uint32(0x5000)
	payload := []byte("hello world")
	for i, b := range payload {
		_ = mem.Write8(dataPtr+uint32(i), b)
	}

	writeCtx := cpucontext.New()
	writeCtx.SetGPRU32(4, uint32(fd))
	writeCtx.SetGPRU32(5, dataPtr)
	writeCtx.SetGPRU32(6, uint32(len(payload)))
	k.FioWrite(writeCtx, mem)
	if n := int32(writeCtx.GPRU32(2)); n != int32(len(payload)) {
		t.Fatalf("FioWrite wrote %d bytes, want %d", n, len(payload))
	}

	closeCtx := cpucontext.New()
	closeCtx.SetGPRU32(4, uint32(fd))
	k.FioClose(closeCtx)
}

func TestFioLseekRejectsInvalidWhence(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	namePtr := uint32(0x4000)
	for i, b := range []byte("host:seek.bin\x00") {
		_ = mem.Write8(namePtr+uint32(i), b)
	}
	openCtx := cpucontext.New()
	openCtx.SetGPRU32(4, namePtr)
	openCtx.SetGPRU32(5, fioSWrOnly|fioSCreat|fioSTrunc)
	k.FioOpen(openCtx, mem)
	fd := int32(openCtx.GPRU32(2))

	seekCtx := cpucontext.New()
	seekCtx.SetGPRU32(4, uint32(fd))
	seekCtx.SetGPRU32(5, 0)
	seekCtx.SetGPRU32(6, 99)
	k.FioLseek(seekCtx)
	if rc := int32(seekCtx.GPRU32(2)); rc != KE_ERROR {
		t.Fatalf("FioLseek with bad whence = %d, want KE_ERROR", rc)
	}
}

func TestStartThreadTransitionsDormantToRunningAndBack(t *testing.T) {
	k, cleanup := newTestKernel(t)
	defer cleanup()
	mem := memory.New()

	ptr := uint32(0x6000)
	words := []uint32{0, 0x1000, 0x2000, 0x100, 0, 0, 0}
	for i, w := range words {
		_ = mem.Write32(ptr+uint32(i*4), w)
	}

	createCtx := cpucontext.New()
	createCtx.SetGPRU32(4, ptr)
	k.CreateThread(createCtx, mem)
	tid := createCtx.GPRU32(2)

	done := make(chan struct{})
	rc := k.StartThread(tid, 0, cpucontext.New(), func(*cpucontext.Context) {
		close(done)
	})
	if rc != KE_OK {
		t.Fatalf("StartThread = %d, want KE_OK", rc)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("spawned thread never ran")
	}

	time.Sleep(10 * time.Millisecond)
	k.mu.Lock()
	status := k.threads[tid].Status
	k.mu.Unlock()
	if status != ThreadDormant {
		t.Fatalf("thread status = %#x, want ThreadDormant after return", status)
	}
}

package runtime

import (
	"log"
	"testing"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

func discardLogger() *log.Logger {
	return log.New(discardWriter{}, "", 0)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestGuestHeapMallocFreeReuse(t *testing.T) {
	h := NewGuestHeap()
	h.Configure(0x1000, 0x2000)

	a := h.Malloc(64, 8)
	if a == 0 {
		t.Fatalf("Malloc returned null")
	}
	h.Free(a)

	b := h.Malloc(32, 8)
	if b < 0x1000 || b >= 0x1000+64 {
		t.Fatalf("reused block b=0x%x not within freed region", b)
	}
}

func TestGuestHeapOutOfMemoryReturnsNull(t *testing.T) {
	h := NewGuestHeap()
	h.Configure(0x1000, 0x1010)
	if got := h.Malloc(1000, 8); got != 0 {
		t.Fatalf("Malloc = 0x%x, want 0 (null) for oversized request", got)
	}
}

func TestGuestHeapCoalescesAdjacentFreeBlocks(t *testing.T) {
	h := NewGuestHeap()
	h.Configure(0x1000, 0x1100)

	a := h.Malloc(16, 8)
	b := h.Malloc(16, 8)
	h.Free(a)
	h.Free(b)

	big := h.Malloc(0x100-8, 8)
	if big == 0 {
		t.Fatalf("expected coalesced free space to satisfy a larger allocation")
	}
}

func TestDispatchLoopRaisesUnknownFunction(t *testing.T) {
	r := New(discardLogger())
	ctx := cpucontext.New()
	ctx.PC = 0xDEADBEEF
	ctx.SetGPRU32(2, 0x11111111)

	r.DispatchLoop(ctx)

	if ctx.GPRU32(2) != 0 {
		t.Fatalf("$v0 = %#x, want 0 after unknown-function fallback", ctx.GPRU32(2))
	}
}

func TestSignalExceptionIntegerOverflow(t *testing.T) {
	r := New(discardLogger())
	ctx := cpucontext.New()
	ctx.PC = 0x100000

	r.SignalException(ctx, ExceptionIntegerOverflow)

	if ctx.COP0.EPC != 0x100000 {
		t.Fatalf("COP0.EPC = %#x, want 0x100000", ctx.COP0.EPC)
	}
	if ctx.PC != defaultExceptionVector {
		t.Fatalf("PC = %#x, want exception vector", ctx.PC)
	}
}

func TestRunRefusesEmptyFunctionTable(t *testing.T) {
	r := New(discardLogger())
	if err := r.Run(make(chan struct{})); err == nil {
		t.Fatalf("expected error for empty function table")
	}
}

func TestRegisterLookupHasFunction(t *testing.T) {
	r := New(discardLogger())
	called := false
	r.RegisterFunction(0x1000, func(ctx *cpucontext.Context, mem *memory.Space) {
		called = true
	})

	if !r.HasFunction(0x1000) {
		t.Fatalf("expected HasFunction(0x1000) true")
	}
	fn, ok := r.LookupFunction(0x1000)
	if !ok {
		t.Fatalf("expected LookupFunction to find registered function")
	}
	fn(cpucontext.New(), memory.New())
	if !called {
		t.Fatalf("expected registered function to run")
	}
}

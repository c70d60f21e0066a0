package runtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/elfimage"
	"github.com/ran-j/ps2recomp/internal/kernel"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// HostFunction is the signature every emitted (or stub) recompiled function
// has: it reads/writes ctx and mem directly and returns when it wants the
// dispatch loop to re-read ctx.PC.
type HostFunction func(ctx *cpucontext.Context, mem *memory.Space)

const (
	entryStackPointer = 0x02000000
	heapDefaultBase   = 0x02800000
	heapDefaultLimit  = 0x03000000

	// schedulerKickSemaphoreAddr is the well-known RDRAM address Run's event
	// loop pokes once per tick. This is a heuristic carried over from the
	// original host harness to unstick guest code that busy-polls an SDK
	// scheduler semaphore; it is not part of the EE kernel contract (open
	// question, resolved as specified).
	schedulerKickSemaphoreAddr = 0x00001000
)

// Runtime is PS2Runtime: memory, CPU context, function table, guest heap,
// loaded-module list, and a stop flag.
type Runtime struct {
	Mem    *memory.Space
	Ctx    *cpucontext.Context
	Heap   *GuestHeap
	Kernel *kernel.Kernel

	Logger *log.Logger

	mu        sync.RWMutex
	functions map[uint32]HostFunction
	modules   []string

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Runtime with a fresh memory space, zeroed CPU context,
// and an unconfigured heap.
func New(logger *log.Logger) *Runtime {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runtime{
		Mem:       memory.New(),
		Ctx:       cpucontext.New(),
		Heap:      NewGuestHeap(),
		Logger:    logger,
		functions: make(map[uint32]HostFunction),
		ctx:       ctx,
		cancel:    cancel,
	}
	active = r
	return r
}

// LoadELF parses path's ELF image, copies its PT_LOAD segments into guest
// RAM, registers executable segments as code regions, and sets pc to the
// entry point.
func (r *Runtime) LoadELF(path string, data []byte) error {
	img, err := elfimage.Parse(data)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	segments, execRanges := img.LoadSegments()
	for vaddr, bytes := range segments {
		for i, b := range bytes {
			if err := r.Mem.Write8(vaddr+uint32(i), b); err != nil {
				return fmt.Errorf("loading segment at 0x%08X: %w", vaddr, err)
			}
		}
	}
	for _, rng := range execRanges {
		r.Mem.RegisterCodeRegion(rng[0], rng[1])
	}

	r.Ctx.PC = uint64(img.EntryPoint)
	r.mu.Lock()
	r.modules = append(r.modules, path)
	r.mu.Unlock()
	return nil
}

// RegisterFunction installs a host function under its guest start address.
func (r *Runtime) RegisterFunction(addr uint32, fn HostFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[addr] = fn
}

// LookupFunction returns the host function registered at addr, if any.
func (r *Runtime) LookupFunction(addr uint32) (HostFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[addr]
	return fn, ok
}

// HasFunction reports whether addr has a registered host function.
func (r *Runtime) HasFunction(addr uint32) bool {
	_, ok := r.LookupFunction(addr)
	return ok
}

// RequestStop signals cooperative shutdown. Sticky: once requested, it
// stays requested.
func (r *Runtime) RequestStop() { r.cancel() }

// IsStopRequested reports whether RequestStop has been called.
func (r *Runtime) IsStopRequested() bool {
	select {
	case <-r.ctx.Done():
		return true
	default:
		return false
	}
}

// Done returns the context every blocking syscall selects on alongside its
// own condition.
func (r *Runtime) Done() <-chan struct{} { return r.ctx.Done() }

// DispatchLoop repeatedly looks up ctx.PC and calls it until stop is
// requested. A missing function raises UnknownFunctionError, which is
// logged; $v0 is set to 0 and the loop returns.
func (r *Runtime) DispatchLoop(ctx *cpucontext.Context) {
	for !r.IsStopRequested() {
		fn, ok := r.LookupFunction(uint32(ctx.PC))
		if !ok {
			r.Logger.Printf("dispatch: %v", &UnknownFunctionError{Addr: uint32(ctx.PC)})
			ctx.SetReturnU32(0)
			return
		}
		fn(ctx, r.Mem)
	}
}

// SignalException saves pc into cop0_epc, sets cop0_cause, and for
// INTEGER_OVERFLOW and the address-error kinds transfers to the default
// exception vector; other kinds are logged and control returns to the
// dispatcher.
func (r *Runtime) SignalException(ctx *cpucontext.Context, kind ExceptionKind) {
	switch kind {
	case ExceptionIntegerOverflow, ExceptionAddressErrorLoad, ExceptionAddressErrorStore:
		ctx.COP0.EPC = uint32(ctx.PC)
		var excCode uint32
		switch kind {
		case ExceptionIntegerOverflow:
			excCode = excCodeIntegerOverflow
		case ExceptionAddressErrorLoad:
			excCode = excCodeAddressErrorLoad
		case ExceptionAddressErrorStore:
			excCode = excCodeAddressErrorStore
		}
		ctx.COP0.Cause = (ctx.COP0.Cause &^ (0x1F << cop0CauseExcCodeShift)) | (excCode << cop0CauseExcCodeShift)
		ctx.PC = uint64(defaultExceptionVector)
	default:
		r.Logger.Printf("exception: %s at pc=0x%08X", kind, ctx.PC)
	}
}

// GuestCalloc allocates size bytes aligned to align and zero-fills them
// through Mem, unlike GuestHeap.Calloc which only reserves the range.
func (r *Runtime) GuestCalloc(size, align uint32) uint32 {
	addr := r.Heap.Malloc(size, align)
	if addr == 0 {
		return 0
	}
	for i := uint32(0); i < size; i++ {
		_ = r.Mem.Write8(addr+i, 0)
	}
	return addr
}

// GuestRealloc grows the block at addr in place if the following block is
// free and large enough, else allocates, copies min(oldSize,newSize) bytes,
// and frees the original.
func (r *Runtime) GuestRealloc(addr, newSize, align uint32) uint32 {
	if addr == 0 {
		return r.Heap.Malloc(newSize, align)
	}
	oldSize := r.Heap.BlockSize(addr)
	if oldSize == 0 {
		return 0
	}
	if r.Heap.CanGrowInPlace(addr, newSize) {
		r.Heap.GrowInPlace(addr, newSize)
		return addr
	}
	newAddr := r.Heap.Malloc(newSize, align)
	if newAddr == 0 {
		return 0
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	for i := uint32(0); i < n; i++ {
		b, _ := r.Mem.Read8(addr + i)
		_ = r.Mem.Write8(newAddr+i, b)
	}
	r.Heap.Free(addr)
	return newAddr
}

// ConfigureDefaultHeap installs the heap arena at the conventional
// post-RDRAM-image addresses used when no ELF-specific layout is known.
func (r *Runtime) ConfigureDefaultHeap() {
	r.Heap.Configure(heapDefaultBase, heapDefaultLimit)
}

// PrepareEntryRegisters sets up the ABI registers run() specifies: $a0=0,
// $a1=0, $sp=0x02000000.
func (r *Runtime) PrepareEntryRegisters() {
	r.Ctx.SetGPRU32(4, 0)                  // $a0
	r.Ctx.SetGPRU32(5, 0)                  // $a1
	r.Ctx.SetGPRU32(29, entryStackPointer) // $sp
}

// KickScheduler posts to the well-known scheduler semaphore address, the
// heuristic Run's event loop applies once per tick.
func (r *Runtime) KickScheduler() {
	_ = r.Mem.Write32(schedulerKickSemaphoreAddr, 1)
}

// Run sets up entry registers, looks up the entry function, and runs the
// dispatch loop until stop is requested. Refuses to start with an empty
// function table: a recompile that registered nothing is a build
// mistake, not a guest program with no code to run.
func (r *Runtime) Run(tick <-chan struct{}) error {
	r.mu.RLock()
	empty := len(r.functions) == 0
	r.mu.RUnlock()
	if empty {
		return fmt.Errorf("runtime: no functions registered; call RegisterFunction before Run")
	}

	r.ConfigureDefaultHeap()
	r.PrepareEntryRegisters()

	if !r.HasFunction(uint32(r.Ctx.PC)) {
		return &UnknownFunctionError{Addr: uint32(r.Ctx.PC)}
	}

	go r.DispatchLoop(r.Ctx)

	for {
		select {
		case <-r.Done():
			return nil
		case <-tick:
			r.KickScheduler()
		}
	}
}

package kernel

import (
	"log"
	"sync"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// Kernel holds every EE-kernel object table plus the host-facing state
// (fio cwd, SIF servers, INTC handlers) that the emulated syscalls
// mutate. One Kernel is shared by every guest thread: a single mutex
// guards table mutation, and each blocking object carries its own
// mutex+condvar.
type Kernel struct {
	Logger *log.Logger
	Mem    *memory.Space

	// Done is closed when the owning runtime requests a cooperative stop;
	// every blocking primitive below selects on it.
	Done <-chan struct{}

	mu         sync.Mutex
	threads    map[uint32]*Thread
	nextThread uint32

	semas     map[uint32]*Semaphore
	nextSema  uint32

	eventFlags   map[uint32]*EventFlag
	nextEvent    uint32

	intcHandlers map[uint32]*intcHandler
	intcEnabled  map[uint32]bool
	nextIntcID   uint32

	sifServers map[uint32]*sifServer
	sifClients map[uint32]*sifClient
	nextSifDma int32

	fioFiles   map[int32]*fioFile
	nextFD     int32
	emulatedCwd string

	gsIMR  uint32
	osdCfg uint32

	baseDir string

	// PadRead backs the scePadRead syscall. Left nil in headless/test
	// configurations; cmd/runtime wires it to hostio.PadState.ScePadRead
	// once a pad backend exists, keeping this package free of a hostio
	// import (hostio's consumers are wired at the cmd/runtime call site).
	PadRead func(bufAddr uint32, mem *memory.Space)
}

// New creates a Kernel rooted at baseDir for fio sandboxing.
func New(mem *memory.Space, baseDir string, done <-chan struct{}, logger *log.Logger) *Kernel {
	if logger == nil {
		logger = log.Default()
	}
	return &Kernel{
		Logger:       logger,
		Mem:          mem,
		Done:         done,
		threads:      make(map[uint32]*Thread),
		nextThread:   2, // main thread is 1
		semas:        make(map[uint32]*Semaphore),
		nextSema:     1,
		eventFlags:   make(map[uint32]*EventFlag),
		nextEvent:    1,
		intcHandlers: make(map[uint32]*intcHandler),
		intcEnabled:  make(map[uint32]bool),
		nextIntcID:   1,
		sifServers:   make(map[uint32]*sifServer),
		sifClients:   make(map[uint32]*sifClient),
		nextSifDma:   1,
		fioFiles:     make(map[int32]*fioFile),
		nextFD:       3, // 0/1/2 reserved, matching host stdio conventions
		baseDir:      baseDir,
	}
}

// stopRequested reports whether Done has fired.
func (k *Kernel) stopRequested() bool {
	select {
	case <-k.Done:
		return true
	default:
		return false
	}
}

// Unknown is the TODO handler: logs PC, RA, $v1, $a0..$a3 and returns -1.
func (k *Kernel) Unknown(ctx *cpucontext.Context, mem *memory.Space) {
	k.Logger.Printf("TODO unimplemented syscall: pc=0x%08X ra=0x%08X v1=0x%08X a0=0x%08X a1=0x%08X a2=0x%08X a3=0x%08X",
		ctx.PC, ctx.GPRU32(31), ctx.GPRU32(3), ctx.GPRU32(4), ctx.GPRU32(5), ctx.GPRU32(6), ctx.GPRU32(7))
	ctx.SetReturnS32(KE_ERROR)
}

// ScePadReadSyscall fills scePadRead's data buffer ($a2: port and slot in
// $a0/$a1 are ignored, matching PadState's single-pad model) via PadRead,
// or returns KE_ERROR untouched if no pad backend was wired.
func (k *Kernel) ScePadReadSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	if k.PadRead == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}
	k.PadRead(ctx.GPRU32(6), mem)
	ctx.SetReturnS32(KE_OK)
}

package kernel

import (
	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// Thread is the EE thread object.
type Thread struct {
	ID        uint32
	Entry     uint32
	Stack     uint32
	StackSize uint32
	GP        uint32
	Priority  uint32
	Attr      uint32
	Option    uint32
	Arg       uint32
	Started   bool
	Status    uint32
}

// knownBrokenAudioEntries lists guest entry addresses the host audio
// backend never actually runs (its host-side PCM device, not the
// recompiled thread, drives timing) — StartThread accepts them without
// spawning a goroutine so the caller's bookkeeping still succeeds.
var knownBrokenAudioEntries = map[uint32]bool{}

// CreateThread reads the seven-word parameter block pointed to by $a0
// (attr, entry, stack, stack_size, priority, gp, option), allocates an ID
// >= 2, and stores the thread in DORMANT state.
func (k *Kernel) CreateThread(ctx *cpucontext.Context, mem *memory.Space) {
	ptr := ctx.GPRU32(4)
	attr, _ := mem.Read32(ptr)
	entry, _ := mem.Read32(ptr + 4)
	stack, _ := mem.Read32(ptr + 8)
	stackSize, _ := mem.Read32(ptr + 12)
	priority, _ := mem.Read32(ptr + 16)
	gp, _ := mem.Read32(ptr + 20)
	option, _ := mem.Read32(ptr + 24)

	k.mu.Lock()
	id := k.nextThread
	k.nextThread++
	k.threads[id] = &Thread{
		ID:        id,
		Entry:     entry,
		Stack:     stack,
		StackSize: stackSize,
		GP:        gp,
		Priority:  priority,
		Attr:      attr,
		Option:    option,
		Status:    ThreadDormant,
	}
	k.mu.Unlock()

	ctx.SetReturnU32(id)
}

// StartThread spawns a host goroutine that sets up the child's register
// file ($sp = stack+stack_size, $gp = gp, $a0 = arg, pc = entry) and calls
// into the dispatch loop via runFn. Known-broken audio
// thread entries are accepted but not actually spawned.
func (k *Kernel) StartThread(tid, arg uint32, ctx *cpucontext.Context, runFn func(*cpucontext.Context)) int32 {
	k.mu.Lock()
	th, ok := k.threads[tid]
	if !ok {
		k.mu.Unlock()
		return KE_UNKNOWN_THID
	}
	if th.Status != ThreadDormant {
		k.mu.Unlock()
		return KE_DORMANT
	}
	th.Started = true
	th.Status = ThreadRunning
	entry, stack, stackSize, gp := th.Entry, th.Stack, th.StackSize, th.GP
	k.mu.Unlock()

	if knownBrokenAudioEntries[entry] {
		return KE_OK
	}

	childCtx := *ctx
	childCtx.SetGPRU32(29, stack+stackSize) // $sp
	childCtx.SetGPRU32(28, gp)              // $gp
	childCtx.SetGPRU32(4, arg)              // $a0
	childCtx.PC = uint64(entry)

	go func() {
		runFn(&childCtx)
		k.mu.Lock()
		th.Status = ThreadDormant
		k.mu.Unlock()
	}()

	return KE_OK
}

// ReferThreadStatus writes the 10-word ee_thread_status_t struct at $a1
// for thread $a0.
func (k *Kernel) ReferThreadStatus(ctx *cpucontext.Context, mem *memory.Space) {
	tid := ctx.GPRU32(4)
	out := ctx.GPRU32(5)

	k.mu.Lock()
	th, ok := k.threads[tid]
	k.mu.Unlock()
	if !ok {
		ctx.SetReturnS32(KE_ILLEGAL_THID)
		return
	}

	words := [10]uint32{0, th.Status, th.Entry, th.Stack, th.StackSize, th.GP, th.Priority, th.Priority, th.Attr, th.Option}
	for i, w := range words {
		_ = mem.Write32(out+uint32(i*4), w)
	}
	ctx.SetReturnS32(KE_OK)
}

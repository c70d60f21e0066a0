package kernel

import (
	"sync"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// EventFlag is the EE event-flag object: a 32-bit pattern threads wait on
// in OR or AND combination.
type EventFlag struct {
	ID          uint32
	Attr        uint32
	Option      uint32
	InitPattern uint32
	Pattern     uint32
	Waiters     int
	Deleted     bool

	mu   sync.Mutex
	cond *sync.Cond
}

func newEventFlag(id, attr, option, init uint32) *EventFlag {
	e := &EventFlag{ID: id, Attr: attr, Option: option, InitPattern: init, Pattern: init}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// CreateEventFlag reads (attr, option, init_pattern) from the three-word
// block at $a0.
func (k *Kernel) CreateEventFlag(ctx *cpucontext.Context, mem *memory.Space) {
	ptr := ctx.GPRU32(4)
	attr, _ := mem.Read32(ptr)
	option, _ := mem.Read32(ptr + 4)
	init, _ := mem.Read32(ptr + 8)

	k.mu.Lock()
	id := k.nextEvent
	k.nextEvent++
	k.eventFlags[id] = newEventFlag(id, attr, option, init)
	k.mu.Unlock()

	ctx.SetReturnU32(id)
}

func (k *Kernel) findEventFlag(id uint32) *EventFlag {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.eventFlags[id]
}

// SetEventFlag ORs bits into the pattern and wakes every waiter.
func (k *Kernel) SetEventFlag(id, bits uint32) int32 {
	e := k.findEventFlag(id)
	if e == nil {
		return KE_ERROR
	}
	e.mu.Lock()
	e.Pattern |= bits
	e.cond.Broadcast()
	e.mu.Unlock()
	return KE_OK
}

// ClearEventFlag applies the EE's counter-intuitive clear semantics:
// pattern &= bits, not pattern &= ^bits. A bit not set in the bits
// argument is cleared regardless of its prior state; only bits present
// in both the argument and the current pattern survive.
func (k *Kernel) ClearEventFlag(id, bits uint32) int32 {
	e := k.findEventFlag(id)
	if e == nil {
		return KE_ERROR
	}
	e.mu.Lock()
	e.Pattern &= bits
	e.mu.Unlock()
	return KE_OK
}

func conditionMet(pattern, bits, mode uint32) bool {
	if mode&WEF_OR != 0 {
		return pattern&bits != 0
	}
	return pattern&bits == bits
}

func applyWaitSideEffect(e *EventFlag, bits, mode uint32) {
	switch {
	case mode&WEF_CLEAR_ALL != 0:
		e.Pattern = 0
	case mode&WEF_CLEAR != 0:
		e.Pattern &^= bits
	}
}

// WaitEventFlag blocks until the OR/AND condition over bits is satisfied
// (or the flag is deleted, or a stop is requested), applies the
// CLEAR/CLEAR_ALL side effect, and writes the observed pattern to
// resultPtr if non-zero.
func (k *Kernel) WaitEventFlag(ctx *cpucontext.Context, mem *memory.Space) {
	id := ctx.GPRU32(4)
	bits := ctx.GPRU32(5)
	mode := ctx.GPRU32(6)
	resultPtr := ctx.GPRU32(7)

	e := k.findEventFlag(id)
	if e == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stopped := false
	go func() {
		<-k.Done
		e.mu.Lock()
		stopped = true
		e.cond.Broadcast()
		e.mu.Unlock()
	}()

	e.Waiters++
	for !conditionMet(e.Pattern, bits, mode) && !e.Deleted && !stopped {
		e.cond.Wait()
	}
	e.Waiters--

	if e.Deleted || stopped {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	observed := e.Pattern
	applyWaitSideEffect(e, bits, mode)

	if resultPtr != 0 {
		_ = mem.Write32(resultPtr, observed)
	}
	ctx.SetReturnS32(KE_OK)
}

// PollEventFlag is the non-blocking variant of WaitEventFlag: it returns
// KE_EVF_COND immediately instead of blocking when the condition is not
// yet satisfied.
func (k *Kernel) PollEventFlag(ctx *cpucontext.Context, mem *memory.Space) {
	id := ctx.GPRU32(4)
	bits := ctx.GPRU32(5)
	mode := ctx.GPRU32(6)
	resultPtr := ctx.GPRU32(7)

	e := k.findEventFlag(id)
	if e == nil {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !conditionMet(e.Pattern, bits, mode) {
		ctx.SetReturnS32(KE_EVF_COND)
		return
	}

	observed := e.Pattern
	applyWaitSideEffect(e, bits, mode)

	if resultPtr != 0 {
		_ = mem.Write32(resultPtr, observed)
	}
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) SetEventFlagSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.SetEventFlag(ctx.GPRU32(4), ctx.GPRU32(5)))
}

func (k *Kernel) ClearEventFlagSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.ClearEventFlag(ctx.GPRU32(4), ctx.GPRU32(5)))
}

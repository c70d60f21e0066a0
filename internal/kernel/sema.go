package kernel

import (
	"sync"

	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// Semaphore is the EE semaphore object, with a per-object mutex+condvar
// for blocking.
type Semaphore struct {
	ID       uint32
	Attr     uint32
	Option   uint32
	InitCount uint32
	Count    uint32
	MaxCount uint32
	Waiters  int
	Deleted  bool

	mu   sync.Mutex
	cond *sync.Cond
}

func newSemaphore(id, attr, option, init, max uint32) *Semaphore {
	s := &Semaphore{ID: id, Attr: attr, Option: option, InitCount: init, Count: init, MaxCount: max}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// CreateSema supports both the EE parameter layout (attr, option,
// initCount, maxCount) and the legacy layout (attr, option_low, init,
// max) at the same four-word offsets; the two layouts agree on word
// order so no format sniffing is needed beyond reading the four words.
func (k *Kernel) CreateSema(ctx *cpucontext.Context, mem *memory.Space) {
	ptr := ctx.GPRU32(4)
	attr, _ := mem.Read32(ptr)
	option, _ := mem.Read32(ptr + 4)
	init, _ := mem.Read32(ptr + 8)
	max, _ := mem.Read32(ptr + 12)
	if max == 0 {
		max = 1
	}

	k.mu.Lock()
	id := k.nextSema
	k.nextSema++
	k.semas[id] = newSemaphore(id, attr, option, init, max)
	k.mu.Unlock()

	ctx.SetReturnU32(id)
}

func (k *Kernel) findSema(id uint32) *Semaphore {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.semas[id]
}

// WaitSema blocks until count > 0 or the semaphore is deleted or a stop is
// requested, then decrements and returns 0.
func (k *Kernel) WaitSema(id uint32) int32 {
	s := k.findSema(id)
	if s == nil {
		return KE_UNKNOWN_SEMID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := false
	go func() {
		<-k.Done
		s.mu.Lock()
		stopped = true
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	s.Waiters++
	for s.Count == 0 && !s.Deleted && !stopped {
		s.cond.Wait()
	}
	s.Waiters--

	if s.Deleted || stopped {
		return KE_ERROR
	}
	s.Count--
	return KE_OK
}

// PollSema decrements if possible, else returns KE_SEMA_ZERO without
// blocking.
func (k *Kernel) PollSema(id uint32) int32 {
	s := k.findSema(id)
	if s == nil {
		return KE_UNKNOWN_SEMID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Count == 0 {
		return KE_SEMA_ZERO
	}
	s.Count--
	return KE_OK
}

// SignalSema increments up to max_count; overflow returns KE_SEMA_OVF.
func (k *Kernel) SignalSema(id uint32) int32 {
	s := k.findSema(id)
	if s == nil {
		return KE_UNKNOWN_SEMID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Count >= s.MaxCount {
		return KE_SEMA_OVF
	}
	s.Count++
	s.cond.Broadcast()
	return KE_OK
}

// ReferSemaStatus writes the six-word ee_sema_t at ptr: attr, option,
// init count and max count in the order CreateSema reads them, then the
// current count and the number of waiters.
func (k *Kernel) ReferSemaStatus(id uint32, ptr uint32, mem *memory.Space) int32 {
	s := k.findSema(id)
	if s == nil {
		return KE_UNKNOWN_SEMID
	}
	s.mu.Lock()
	words := [6]uint32{s.Attr, s.Option, s.InitCount, s.MaxCount, s.Count, uint32(s.Waiters)}
	s.mu.Unlock()

	for i, w := range words {
		_ = mem.Write32(ptr+uint32(i*4), w)
	}
	return KE_OK
}

// DeleteSema marks the semaphore deleted and wakes every waiter, which
// then observes Deleted and returns KE_ERROR.
func (k *Kernel) DeleteSema(id uint32) int32 {
	s := k.findSema(id)
	if s == nil {
		return KE_UNKNOWN_SEMID
	}
	s.mu.Lock()
	s.Deleted = true
	s.cond.Broadcast()
	s.mu.Unlock()

	k.mu.Lock()
	delete(k.semas, id)
	k.mu.Unlock()
	return KE_OK
}

// CreateSemaSyscall, WaitSemaSyscall, etc. are the register-level
// wrappers emitted SYSCALL translations call into directly.
func (k *Kernel) WaitSemaSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.WaitSema(ctx.GPRU32(4)))
}

func (k *Kernel) PollSemaSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.PollSema(ctx.GPRU32(4)))
}

func (k *Kernel) SignalSemaSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.SignalSema(ctx.GPRU32(4)))
}

func (k *Kernel) ReferSemaStatusSyscall(ctx *cpucontext.Context, mem *memory.Space) {
	ctx.SetReturnS32(k.ReferSemaStatus(ctx.GPRU32(4), ctx.GPRU32(5), mem))
}

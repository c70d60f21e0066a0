package runtime

import "sync"

// heapBlock is one arena block.
type heapBlock struct {
	addr uint32
	size uint32
	free bool
}

// GuestHeap is a single contiguous first-fit arena with free-neighbour
// coalescing, protected by one mutex — the only synchronisation inside the
// allocator.
type GuestHeap struct {
	mu     sync.Mutex
	base   uint32
	limit  uint32
	blocks []heapBlock
}

// NewGuestHeap builds an unconfigured heap; call Configure before use.
func NewGuestHeap() *GuestHeap { return &GuestHeap{} }

// Configure resets the arena to a single free block spanning [base, limit).
func (h *GuestHeap) Configure(base, limit uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = base
	h.limit = limit
	h.blocks = []heapBlock{{addr: base, size: limit - base, free: true}}
}

func normalizeAlign(align uint32) uint32 {
	if align == 0 {
		return 8
	}
	// round up to next power of two
	v := align
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	if v < 8 {
		v = 8
	}
	return v
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// Malloc returns a guest pointer to a free region of at least size bytes,
// aligned to align (normalised to a power of two, minimum 8). Returns 0
// (guest null) on failure.
func (h *GuestHeap) Malloc(size, align uint32) uint32 {
	if size == 0 {
		return 0
	}
	align = normalizeAlign(align)

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, b := range h.blocks {
		if !b.free {
			continue
		}
		alignedAddr := alignUp(b.addr, align)
		pad := alignedAddr - b.addr
		if pad+size > b.size {
			continue
		}
		h.splitBlockLocked(i, pad, size)
		return alignedAddr
	}
	return 0
}

// splitBlockLocked carves [pad, pad+size) out of blocks[i] as an allocated
// block, leaving any leading/trailing remainder as separate free blocks.
func (h *GuestHeap) splitBlockLocked(i int, pad, size uint32) {
	b := h.blocks[i]
	var out []heapBlock
	out = append(out, h.blocks[:i]...)
	if pad > 0 {
		out = append(out, heapBlock{addr: b.addr, size: pad, free: true})
	}
	out = append(out, heapBlock{addr: b.addr + pad, size: size, free: false})
	if rem := b.size - pad - size; rem > 0 {
		out = append(out, heapBlock{addr: b.addr + pad + size, size: rem, free: true})
	}
	out = append(out, h.blocks[i+1:]...)
	h.blocks = out
}

// Calloc is Malloc plus caller-visible zeroing; the zero fill itself is the
// caller's responsibility since GuestHeap has no memory.Space reference —
// Runtime.GuestCalloc performs the write.
func (h *GuestHeap) Calloc(size, align uint32) uint32 {
	return h.Malloc(size, align)
}

// Free marks the block at addr free and coalesces it with free neighbours.
func (h *GuestHeap) Free(addr uint32) {
	if addr == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := -1
	for i, b := range h.blocks {
		if b.addr == addr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	h.blocks[idx].free = true
	h.coalesceLocked()
}

func (h *GuestHeap) coalesceLocked() {
	out := h.blocks[:0:0]
	for _, b := range h.blocks {
		if len(out) > 0 && out[len(out)-1].free && b.free {
			out[len(out)-1].size += b.size
			continue
		}
		out = append(out, b)
	}
	h.blocks = out
}

// blockSizeLocked returns the size and index of the block at addr, or 0
// and -1 if not found — used by BlockSize, CanGrowInPlace and GrowInPlace.
func (h *GuestHeap) blockSizeLocked(addr uint32) (uint32, int) {
	for i, b := range h.blocks {
		if b.addr == addr {
			return b.size, i
		}
	}
	return 0, -1
}

// CanGrowInPlace reports whether the allocated block at addr can be
// widened to newSize by absorbing an immediately-following free block,
// without moving data. Runtime.GuestRealloc uses this before falling back
// to allocate+copy+free.
func (h *GuestHeap) CanGrowInPlace(addr, newSize uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	size, i := h.blockSizeLocked(addr)
	if i < 0 || size >= newSize {
		return size >= newSize
	}
	need := newSize - size
	if i+1 >= len(h.blocks) || !h.blocks[i+1].free || h.blocks[i+1].size < need {
		return false
	}
	return true
}

// GrowInPlace performs the widen CanGrowInPlace validated as possible.
func (h *GuestHeap) GrowInPlace(addr, newSize uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	size, i := h.blockSizeLocked(addr)
	if i < 0 || size >= newSize {
		return
	}
	need := newSize - size
	h.blocks[i].size = newSize
	h.blocks[i+1].addr += need
	h.blocks[i+1].size -= need
	if h.blocks[i+1].size == 0 {
		h.blocks = append(h.blocks[:i+1], h.blocks[i+2:]...)
	}
}

// BlockSize is the public, locking accessor Runtime.GuestRealloc uses to
// learn how much of the old block to copy.
func (h *GuestHeap) BlockSize(addr uint32) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	size, _ := h.blockSizeLocked(addr)
	return size
}

package kernel

import (
	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

const maxSifDmaDescriptors = 32

// sifServer is a registered RPC endpoint, keyed by service id (sid). The
// recompiled IOP-side stub that would normally answer an RPC call does
// not exist here: SifCallRpc only records the last request buffer's
// address and size on the server and writes no reply.
type sifServer struct {
	SID     uint32
	BufPtr  uint32
	BufSize uint32
}

// sifClient tracks the bind a guest made against a server, so
// SifCheckStatRpc/SifCallRpc can report completion against the right
// client handle.
type sifClient struct {
	ClientPtr uint32
	SID       uint32
	Mode      uint32
	Done      bool
}

func (k *Kernel) SifInitRpc(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

// SifBindRpc associates clientPtr with sid, creating a placeholder
// server if none has registered that sid yet.
func (k *Kernel) SifBindRpc(ctx *cpucontext.Context) {
	clientPtr := ctx.GPRU32(4)
	sid := ctx.GPRU32(5)
	mode := ctx.GPRU32(6)

	k.mu.Lock()
	if _, ok := k.sifServers[sid]; !ok {
		k.sifServers[sid] = &sifServer{SID: sid}
	}
	k.sifClients[clientPtr] = &sifClient{ClientPtr: clientPtr, SID: sid, Mode: mode}
	k.mu.Unlock()

	ctx.SetReturnS32(KE_OK)
}

// SifCallRpc reads the send buffer, records its address and size on the
// bound server, and marks the client done. Nothing is written to the
// receive buffer and no semaphore is signalled, whatever the mode.
func (k *Kernel) SifCallRpc(ctx *cpucontext.Context, mem *memory.Space) {
	clientPtr := ctx.GPRU32(4)
	sendPtr := ctx.GPRU32(6)
	sendSize := ctx.GPRU32(7)

	k.mu.Lock()
	cl, ok := k.sifClients[clientPtr]
	k.mu.Unlock()
	if !ok {
		ctx.SetReturnS32(KE_ERROR)
		return
	}

	buf := make([]byte, sendSize)
	for i := uint32(0); i < sendSize; i++ {
		b, _ := mem.Read8(sendPtr + i)
		buf[i] = b
	}

	k.mu.Lock()
	srv := k.sifServers[cl.SID]
	srv.BufPtr = sendPtr
	srv.BufSize = sendSize
	cl.Done = true
	k.mu.Unlock()

	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) SifCheckStatRpc(ctx *cpucontext.Context) {
	clientPtr := ctx.GPRU32(4)
	k.mu.Lock()
	cl, ok := k.sifClients[clientPtr]
	k.mu.Unlock()
	if !ok || !cl.Done {
		ctx.SetReturnS32(1) // SIF_RPC_BUSY
		return
	}
	ctx.SetReturnS32(0) // SIF_RPC_DONE
}

func (k *Kernel) SifSetRpcQueue(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) SifRemoveRpcQueue(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

// SifRegisterRpc remaps any client already bound to sid onto a fresh
// server registration, matching the real API's allowance for a server
// to (re)register after clients have already bound.
func (k *Kernel) SifRegisterRpc(ctx *cpucontext.Context) {
	sid := ctx.GPRU32(5)
	k.mu.Lock()
	k.sifServers[sid] = &sifServer{SID: sid}
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

func (k *Kernel) SifRemoveRpc(ctx *cpucontext.Context) {
	sid := ctx.GPRU32(5)
	k.mu.Lock()
	delete(k.sifServers, sid)
	k.mu.Unlock()
	ctx.SetReturnS32(KE_OK)
}

// sifDmaDescriptor mirrors the four-word {src, dest, size, attr} layout
// sceSifSetDma reads N of from the array at $a0.
type sifDmaDescriptor struct {
	src, dest, size, attr uint32
}

// SceSifSetDma copies every descriptor's [src, src+size) into [dest,
// dest+size). count > maxSifDmaDescriptors, or a descriptor word that
// cannot be read (an unaligned array pointer), rejects the call before
// any byte is written. The endpoints are not range-checked: Read8 and
// Write8 report no error for any address, so an address that maps to
// nothing reads as zero and a write there is dropped. On
// rejection it returns 0, not a negative error code: the real BIOS call
// reports a DMA id on success and 0 on failure, never a negative value.
func (k *Kernel) SceSifSetDma(ctx *cpucontext.Context, mem *memory.Space) {
	arrPtr := ctx.GPRU32(4)
	count := ctx.GPRU32(5)

	if count > maxSifDmaDescriptors {
		ctx.SetReturnS32(0)
		return
	}

	descs := make([]sifDmaDescriptor, count)
	for i := uint32(0); i < count; i++ {
		base := arrPtr + i*16
		src, errSrc := mem.Read32(base)
		dest, errDest := mem.Read32(base + 4)
		size, errSize := mem.Read32(base + 8)
		attr, errAttr := mem.Read32(base + 12)
		if errSrc != nil || errDest != nil || errSize != nil || errAttr != nil {
			ctx.SetReturnS32(0)
			return
		}
		descs[i] = sifDmaDescriptor{src, dest, size, attr}
	}

	for _, d := range descs {
		for i := uint32(0); i < d.size; i++ {
			if _, err := mem.Read8(d.src + i); err != nil {
				ctx.SetReturnS32(0)
				return
			}
			if _, err := mem.Read8(d.dest + i); err != nil {
				ctx.SetReturnS32(0)
				return
			}
		}
	}

	for _, d := range descs {
		for i := uint32(0); i < d.size; i++ {
			b, _ := mem.Read8(d.src + i)
			_ = mem.Write8(d.dest+i, b)
		}
	}

	k.mu.Lock()
	id := k.nextSifDma
	k.nextSifDma++
	k.mu.Unlock()
	ctx.SetReturnS32(id)
}

// SceSifDmaStat reports a transfer as complete with a negative return
// value (there is no async DMA queue here, so every transfer is already
// complete by the time guest code can ask).
func (k *Kernel) SceSifDmaStat(ctx *cpucontext.Context) {
	ctx.SetReturnS32(-1)
}

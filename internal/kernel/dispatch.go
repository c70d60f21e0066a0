package kernel

import (
	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
)

// EE BIOS syscall numbers, the conventional IDs the PS2 SDK's libkernel
// assigns (loaded into $v1 by the syscall stub immediately before the
// syscall instruction). Only the subset this kernel implements is named;
// everything else falls through Dispatch to Unknown.
const (
	sysCreateSema        = 0x3c
	sysDeleteSema         = 0x3d
	sysSignalSema         = 0x3e
	sysWaitSema           = 0x40
	sysPollSema           = 0x41
	sysReferSemaStatus    = 0x42

	sysCreateEventFlag  = 0x46
	sysSetEventFlag     = 0x48
	sysClearEventFlag   = 0x49
	sysWaitEventFlag     = 0x4b
	sysPollEventFlag     = 0x4c

	sysEnableIntc  = 0x71
	sysDisableIntc = 0x72

	sysCreateThread = 0x3a

	sysSifInitRpc        = 0x96
	sysSifBindRpc        = 0x99
	sysSifCallRpc        = 0x9a
	sysSifCheckStatRpc   = 0x9b
	sysSifSetRpcQueue    = 0x97
	sysSifRemoveRpcQueue = 0x98
	sysSifRegisterRpc    = 0x9c
	sysSifRemoveRpc      = 0x9d
	sysSifSetDma         = 0x9e
	sysSifDmaStat        = 0x9f

	sysFioOpen    = 0x03
	sysFioClose   = 0x04
	sysFioRead    = 0x05
	sysFioWrite   = 0x06
	sysFioLseek   = 0x07
	sysFioMkdir   = 0x0a
	sysFioRmdir   = 0x0b
	sysFioRemove  = 0x0c
	sysFioChdir   = 0x0e
	sysFioGetstat = 0x0f

	sysSetAlarm    = 0x10
	sysCancelAlarm = 0x11

	sysGsSetCrt          = 0x02
	sysGsGetIMR          = 0x56
	sysGsPutIMR          = 0x57
	sysGetOsdConfigParam = 0x73
	sysSetOsdConfigParam = 0x74

	sysScePadRead = 0x13
)

// Dispatch routes a syscall number to the kernel object it targets.
// Unrecognized ids fall through to Unknown, which logs and returns
// KE_ERROR so guest code that checks its return value degrades instead of
// silently doing nothing.
func (k *Kernel) Dispatch(id uint32, ctx *cpucontext.Context, mem *memory.Space) {
	switch id {
	case sysCreateSema:
		k.CreateSema(ctx, mem)
	case sysDeleteSema:
		ctx.SetReturnS32(k.DeleteSema(ctx.GPRU32(4)))
	case sysSignalSema:
		k.SignalSemaSyscall(ctx, mem)
	case sysWaitSema:
		k.WaitSemaSyscall(ctx, mem)
	case sysPollSema:
		k.PollSemaSyscall(ctx, mem)
	case sysReferSemaStatus:
		k.ReferSemaStatusSyscall(ctx, mem)

	case sysCreateEventFlag:
		k.CreateEventFlag(ctx, mem)
	case sysSetEventFlag:
		k.SetEventFlagSyscall(ctx, mem)
	case sysClearEventFlag:
		k.ClearEventFlagSyscall(ctx, mem)
	case sysWaitEventFlag:
		k.WaitEventFlag(ctx, mem)
	case sysPollEventFlag:
		k.PollEventFlag(ctx, mem)

	case sysEnableIntc:
		k.EnableIntc(ctx)
	case sysDisableIntc:
		k.DisableIntc(ctx)

	case sysCreateThread:
		k.CreateThread(ctx, mem)

	case sysSifInitRpc:
		k.SifInitRpc(ctx)
	case sysSifBindRpc:
		k.SifBindRpc(ctx)
	case sysSifCallRpc:
		k.SifCallRpc(ctx, mem)
	case sysSifCheckStatRpc:
		k.SifCheckStatRpc(ctx)
	case sysSifSetRpcQueue:
		k.SifSetRpcQueue(ctx)
	case sysSifRemoveRpcQueue:
		k.SifRemoveRpcQueue(ctx)
	case sysSifRegisterRpc:
		k.SifRegisterRpc(ctx)
	case sysSifRemoveRpc:
		k.SifRemoveRpc(ctx)
	case sysSifSetDma:
		k.SceSifSetDma(ctx, mem)
	case sysSifDmaStat:
		k.SceSifDmaStat(ctx)

	case sysFioOpen:
		k.FioOpen(ctx, mem)
	case sysFioClose:
		k.FioClose(ctx)
	case sysFioRead:
		k.FioRead(ctx, mem)
	case sysFioWrite:
		k.FioWrite(ctx, mem)
	case sysFioLseek:
		k.FioLseek(ctx)
	case sysFioMkdir:
		k.FioMkdir(ctx, mem)
	case sysFioRmdir:
		k.FioRmdir(ctx, mem)
	case sysFioRemove:
		k.FioRemove(ctx, mem)
	case sysFioChdir:
		k.FioChdir(ctx, mem)
	case sysFioGetstat:
		k.FioGetstat(ctx, mem)

	case sysSetAlarm:
		k.SetAlarm(ctx)
	case sysCancelAlarm:
		k.CancelAlarm(ctx)

	case sysGsSetCrt:
		k.GsSetCrt(ctx)
	case sysGsGetIMR:
		k.GsGetIMR(ctx)
	case sysGsPutIMR:
		k.GsPutIMR(ctx)
	case sysGetOsdConfigParam:
		k.GetOsdConfigParam(ctx, mem)
	case sysSetOsdConfigParam:
		k.SetOsdConfigParam(ctx, mem)

	case sysScePadRead:
		k.ScePadReadSyscall(ctx, mem)

	default:
		k.Unknown(ctx, mem)
	}
}

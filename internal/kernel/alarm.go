package kernel

import "github.com/ran-j/ps2recomp/internal/cpucontext"

// SetAlarm fires its handler immediately rather than after usec elapses:
// cycle-accurate timing is not emulated, so every alarm collapses to
// "ready now." The handler argument is treated as a semaphore id and
// signalled directly, matching the common guest pattern of an alarm
// whose sole job is to post a semaphore a waiting thread blocks on.
func (k *Kernel) SetAlarm(ctx *cpucontext.Context) {
	arg := ctx.GPRU32(6)
	k.SignalSema(arg)
	ctx.SetReturnS32(KE_OK)
}

// CancelAlarm is a no-op: nothing is scheduled to cancel.
func (k *Kernel) CancelAlarm(ctx *cpucontext.Context) {
	ctx.SetReturnS32(KE_OK)
}

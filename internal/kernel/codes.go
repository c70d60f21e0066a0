// Package kernel emulates the EE-kernel syscall surface recompiled code
// calls into: threads, semaphores, event flags, alarms, INTC/DMAC enables,
// SIF RPC/DMA, fio, GS register access, and OSD config.
//
// Grounded on coprocessor_manager.go's ticket/worker table (Go's answer to
// "kernel objects keyed by a monotonically assigned ID, strongly owned by
// the table") and file_io.go's sandboxed host path translation.
package kernel

// EE numeric error codes, returned in $v0 by every syscall below. These are guest-observable return codes, not host errors, so they
// are plain int32 constants rather than Go error values.
const (
	KE_OK    = 0
	KE_ERROR = -1

	KE_ILLEGAL_THID = -406
	KE_UNKNOWN_THID = -407
	KE_UNKNOWN_SEMID = -408
	KE_DORMANT       = -413
	KE_SEMA_ZERO     = -419
	KE_SEMA_OVF      = -420
	KE_EVF_COND      = -421
)

// Wait-mode flags for WaitEventFlag/PollEventFlag.
const (
	WEF_OR        = 0x01
	WEF_CLEAR     = 0x10
	WEF_CLEAR_ALL = 0x20
)

// Thread status values for the 10-word ee_thread_status_t struct.
const (
	ThreadDormant = 0x10
	ThreadReady   = 0x20
	ThreadRunning = 0x40
)

// Package firmware is the hypervisor's client of the real SBI firmware
// collaborator (spec.md §6): legacy console, timer, reset, base
// information queries, remote fence, and PMU. Everything the SBI
// emulation layer cannot service itself is forwarded here; this package
// never emulates, it only declares and exercises the boundary.
package firmware

// Ret mirrors the SBI return convention: an error code in A0 and a value
// in A1 (spec.md §4.3), returned together from pass-through calls so the
// SBI emulation layer can copy both into the guest's GPRs.
type Ret struct {
	Error int64
	Value uint64
}

// SpecVersion is the SBI specification version as (major, minor).
type SpecVersion struct {
	Major uint32
	Minor uint32
}

// ResetKind and ResetCause are the system_reset parameters (spec.md §4.3
// Reset: "shutdown, cause = system failure").
type ResetKind uint32
type ResetCause uint32

const (
	ResetShutdown ResetKind = iota
	ResetColdReboot
	ResetWarmReboot
)

const (
	ResetCauseNone ResetCause = iota
	ResetCauseSystemFailure
)

// Firmware is the real SBI implementation beneath the hypervisor. Console
// methods operate on the legacy console extension (spec.md §4.3 GetChar,
// PutChar).
type Firmware interface {
	// ConsoleGetChar returns the next buffered character, or -1 if none
	// is available (spec.md §4.4.1's usize::MAX sentinel, represented
	// here as -1 since Go has signed integers to spare).
	ConsoleGetChar() int64
	ConsolePutChar(c byte)

	SetTimer(deadline uint64)
	SystemReset(kind ResetKind, cause ResetCause)

	GetSpecVersion() SpecVersion
	GetImplementationID() uint64
	GetImplementationVersion() uint64
	GetMachineVendorID() uint64
	GetMachineArchitectureID() uint64
	GetMachineImplementationID() uint64
	ProbeExtension(extensionID uint64) uint64

	RemoteFenceI(hartMask, hartMaskBase uint64) Ret
	RemoteSFenceVMA(hartMask, hartMaskBase, startAddr, size uint64) Ret

	PMUNumCounters() uint64
	PMUCounterGetInfo(counterIndex uint64) Ret
	PMUCounterStop(counterIndex, counterMask, stopFlags uint64) Ret
}

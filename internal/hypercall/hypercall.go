// Package hypercall defines the tagged unions that cross the boundary
// between the low-level trap decoder, the VM exit handler, and the VMM
// scheduler (spec.md §3: HyperCallMsg, VmmTrap). Go has no sum types, so
// each union is a Kind discriminant plus the payload fields relevant to
// that Kind, the same shape spec.md's own enums take once decoded -
// callers are expected to switch on Kind, never read a payload field
// without checking it first.
package hypercall

// Kind discriminates a decoded guest ecall.
type Kind int

const (
	KindBase Kind = iota
	KindGetChar
	KindPutChar
	KindSetTimer
	KindReset
	KindRemoteFence
	KindPMU
)

// BaseFunction enumerates the SBI Base extension's functions.
type BaseFunction int

const (
	BaseGetSpecificationVersion BaseFunction = iota
	BaseGetImplementationID
	BaseGetImplementationVersion
	BaseGetMachineVendorID
	BaseGetMachineArchitectureID
	BaseGetMachineImplementationID
	BaseProbeSbiExtension
)

// BaseCall carries a Base extension function and its one possible
// argument (the extension ID being probed).
type BaseCall struct {
	Func        BaseFunction
	ExtensionID uint64
}

// RemoteFenceFunction enumerates the SBI RemoteFence extension's
// functions.
type RemoteFenceFunction int

const (
	RemoteFenceI RemoteFenceFunction = iota
	RemoteSFenceVMA
)

// RemoteFenceCall carries a RemoteFence function and its arguments; only
// the fields relevant to Func are meaningful.
type RemoteFenceCall struct {
	Func         RemoteFenceFunction
	HartMask     uint64
	HartMaskBase uint64
	StartAddr    uint64
	Size         uint64
}

// PMUFunction enumerates the SBI PMU extension's functions.
type PMUFunction int

const (
	PMUGetNumCounters PMUFunction = iota
	PMUGetCounterInfo
	PMUStopCounter
)

// PMUCall carries a PMU function and its arguments.
type PMUCall struct {
	Func         PMUFunction
	CounterIndex uint64
	CounterMask  uint64
	StopFlags    uint64
}

// ResetCall carries the guest's requested shutdown reason.
type ResetCall struct {
	Reason uint64
}

// Msg is a decoded guest ecall (spec.md's HyperCallMsg). It is produced
// upstream of the VM exit handler, from the ecall's A7/A6/A0.. registers;
// this core never decodes raw registers into a Msg itself.
type Msg struct {
	Kind        Kind
	Base        BaseCall
	PutChar     byte
	SetTimer    uint64
	Reset       ResetCall
	RemoteFence RemoteFenceCall
	PMU         PMUCall
}

// NewBase builds a Base extension Msg.
func NewBase(call BaseCall) Msg { return Msg{Kind: KindBase, Base: call} }

// NewGetChar builds a GetChar Msg.
func NewGetChar() Msg { return Msg{Kind: KindGetChar} }

// NewPutChar builds a PutChar Msg.
func NewPutChar(c byte) Msg { return Msg{Kind: KindPutChar, PutChar: c} }

// NewSetTimer builds a SetTimer Msg.
func NewSetTimer(t uint64) Msg { return Msg{Kind: KindSetTimer, SetTimer: t} }

// NewReset builds a Reset Msg.
func NewReset(reason uint64) Msg { return Msg{Kind: KindReset, Reset: ResetCall{Reason: reason}} }

// NewRemoteFence builds a RemoteFence Msg.
func NewRemoteFence(call RemoteFenceCall) Msg {
	return Msg{Kind: KindRemoteFence, RemoteFence: call}
}

// NewPMU builds a PMU Msg.
func NewPMU(call PMUCall) Msg { return Msg{Kind: KindPMU, PMU: call} }

// TrapKind discriminates what a VM yields to the scheduler on trap.
type TrapKind int

const (
	TrapSetTimer TrapKind = iota
	TrapTimerInterruptEmulation
)

// Trap is spec.md's VmmTrap: the typed value a VM.Run hands back to the
// scheduler to decide what happens next.
type Trap struct {
	Kind     TrapKind
	Deadline uint64 // meaningful only when Kind == TrapSetTimer
}

// NewSetTimerTrap builds a SetTimer Trap.
func NewSetTimerTrap(deadline uint64) Trap {
	return Trap{Kind: TrapSetTimer, Deadline: deadline}
}

// NewTimerInterruptEmulationTrap builds a TimerInterruptEmulation Trap.
func NewTimerInterruptEmulationTrap() Trap {
	return Trap{Kind: TrapTimerInterruptEmulation}
}

// Package herror classifies the error conditions the hypervisor core can
// raise while emulating a guest exit, mirroring the Cause/Tval shape of
// rv64.ExceptionError: a small typed error carrying enough context to log
// before the scheduler gives up on a VM.
package herror

import "fmt"

// Kind distinguishes the fatal conditions defined in spec.md §7. Every
// Kind is fatal; recoverable SBI failures have no Kind (see the sentinels
// below).
type Kind int

const (
	// KindPageFault: fault address outside any emulable region. Fatal.
	KindPageFault Kind = iota
	// KindDecodeError: instruction word could not be decoded. Fatal.
	KindDecodeError
	// KindInvalidInstruction: decoded into an opcode the PLIC emulator
	// does not accept. Fatal.
	KindInvalidInstruction
	// KindMalformedEcall: Ecall exit carried no decoded HyperCallMsg.
	KindMalformedEcall
	// KindUserPageFault: page fault in U-mode, which this core cannot
	// service.
	KindUserPageFault
	// KindSpuriousInterrupt: external-interrupt exit claimed IRQ 0.
	KindSpuriousInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindPageFault:
		return "page fault"
	case KindDecodeError:
		return "decode error"
	case KindInvalidInstruction:
		return "invalid instruction"
	case KindMalformedEcall:
		return "malformed ecall"
	case KindUserPageFault:
		return "user page fault"
	case KindSpuriousInterrupt:
		return "spurious interrupt"
	default:
		return "unknown"
	}
}

// Error is a typed hypervisor-internal error. Addr and Inst are filled in
// when relevant to the Kind and are zero otherwise.
type Error struct {
	Kind Kind
	Addr uint64
	Inst uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("hypervisor: %s (addr=0x%x inst=0x%x)", e.Kind, e.Addr, e.Inst)
}

// New builds an Error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// WithAddr returns a copy of the error carrying a faulting address.
func (e *Error) WithAddr(addr uint64) *Error {
	cp := *e
	cp.Addr = addr
	return &cp
}

// WithInst returns a copy of the error carrying the offending instruction.
func (e *Error) WithInst(inst uint32) *Error {
	cp := *e
	cp.Inst = inst
	return &cp
}

// Sentinel errors for errors.Is against a bare Kind, one per fatal
// condition spec.md §7 names. Every Kind here is fatal and propagates
// out of VM.Run; the SBI_ERR_NOT_SUPPORTED path never constructs an
// Error, since internal/sbi recovers that case locally by writing its
// own wire error code into the guest's A0.
var (
	ErrPageFault          = New(KindPageFault)
	ErrDecodeError        = New(KindDecodeError)
	ErrInvalidInstruction = New(KindInvalidInstruction)
	ErrMalformedEcall     = New(KindMalformedEcall)
	ErrUserPageFault      = New(KindUserPageFault)
	ErrSpuriousInterrupt  = New(KindSpuriousInterrupt)
)

// Is enables errors.Is against sentinel Kind values wrapped as *Error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Package vcpu defines the external collaborator contracts spec.md §6
// places out of this core's scope: the vCPU that actually enters/exits
// guest mode, the stage-2 page table, and guest instruction fetch. The
// core only ever reaches these through interfaces; the context-switch
// assembly, TLB maintenance, and page table construction behind them are
// not this package's concern.
package vcpu

import (
	"context"

	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/regs"
)

// PrivLevel is the privilege level a page fault trapped from.
type PrivLevel int

const (
	PrivSupervisor PrivLevel = iota
	PrivUser
)

func (p PrivLevel) String() string {
	if p == PrivUser {
		return "user"
	}
	return "supervisor"
}

// ExitKind discriminates VmExitInfo (spec.md §3's VmExitInfo tagged
// union). Variants beyond the four spec.md assigns behavior to collapse
// into ExitOther, which the exit handler no-ops on.
type ExitKind int

const (
	ExitEcall ExitKind = iota
	ExitPageFault
	ExitTimerInterruptEmulation
	ExitExternalInterruptEmulation
	ExitOther
)

// ExitInfo is the value vCPU.Run returns describing why the guest
// exited. Only the fields relevant to Kind are populated; Ecall is nil
// for ExitEcall when the trap frame carried no decodable HyperCallMsg
// (spec.md's Ecall(None)).
type ExitInfo struct {
	Kind ExitKind

	Ecall *hypercall.Msg // ExitEcall

	FaultAddr uint64    // ExitPageFault
	FaultPC   uint64    // ExitPageFault
	Inst      uint32    // ExitPageFault; 0 if the trap frame omitted it
	Priv      PrivLevel // ExitPageFault
}

// VCPU is the hypervisor's view of a guest hart (spec.md §3/§6). Run
// enters guest mode and returns only once a trap has occurred; it is the
// sole suspension point in this core (spec.md §5).
type VCPU interface {
	Run(ctx context.Context) (ExitInfo, error)
	SaveGPRs(dst *regs.GPRs)
	RestoreGPRs(src *regs.GPRs)
	AdvancePC(length int)
	InitPageMap(token uintptr)
}

// StagePageTable is the guest (stage-2) page table handle installed into
// a vCPU at InitPageMap. The hypervisor never mutates it during operation
// (spec.md §6); on-demand population is assumed resolved upstream of the
// PageFault exit this core handles.
type StagePageTable interface {
	Token() uintptr
}

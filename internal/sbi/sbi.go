// Package sbi emulates the subset of the SBI firmware interface spec.md
// §4.3 assigns to the hypervisor itself, forwarding everything it cannot
// service locally to the real Firmware collaborator. Grounded on
// rv64.HandleSBI (internal/hv/riscv/rv64/sbi.go) for the extension
// dispatch shape and on original_source's vm.rs handle_* methods for the
// exact A0/A1 placement per extension.
package sbi

import (
	"github.com/tinyrange/rvhype/internal/csr"
	"github.com/tinyrange/rvhype/internal/firmware"
	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/regs"
)

// SBI error codes (spec.md §4.3, §7).
const (
	ErrSuccess      int64 = 0
	ErrNotSupported int64 = -2
)

// InputBuffer is the per-VM console input queue GetChar drains (spec.md
// §4.3, §4.4.1). The scheduler is the only writer; SBI emulation is the
// only reader.
type InputBuffer interface {
	PopFront() (byte, bool)
}

// Handle emulates a single decoded guest ecall, mutating gprs in place
// per spec.md §4.3's A0=error/A1=value convention. It returns a non-nil
// Trap only for SetTimer; Handle has already cleared the guest's VSTIP by
// then, and the caller yields the Trap to the scheduler.
func Handle(msg hypercall.Msg, gprs *regs.GPRs, fw firmware.Firmware, input InputBuffer, guestCSR csr.Registers) *hypercall.Trap {
	switch msg.Kind {
	case hypercall.KindBase:
		handleBase(msg.Base, gprs, fw)

	case hypercall.KindGetChar:
		if c, ok := input.PopFront(); ok {
			gprs.Set(regs.A0, uint64(c))
		} else {
			gprs.Set(regs.A0, ^uint64(0)) // usize::MAX sentinel
		}

	case hypercall.KindPutChar:
		fw.ConsolePutChar(msg.PutChar)
		gprs.Set(regs.A0, uint64(ErrSuccess))

	case hypercall.KindSetTimer:
		guestCSR.ClearGuestVSTIP()
		gprs.Set(regs.A0, uint64(ErrSuccess))
		trap := hypercall.NewSetTimerTrap(msg.SetTimer)
		return &trap

	case hypercall.KindReset:
		fw.SystemReset(firmware.ResetShutdown, firmware.ResetCauseSystemFailure)
		gprs.Set(regs.A0, uint64(ErrSuccess))

	case hypercall.KindRemoteFence:
		handleRemoteFence(msg.RemoteFence, gprs, fw)

	case hypercall.KindPMU:
		handlePMU(msg.PMU, gprs, fw)

	default:
		notSupported := ErrNotSupported
		gprs.Set(regs.A0, uint64(notSupported))
	}
	return nil
}

func handleBase(call hypercall.BaseCall, gprs *regs.GPRs, fw firmware.Firmware) {
	switch call.Func {
	case hypercall.BaseGetSpecificationVersion:
		v := fw.GetSpecVersion()
		gprs.Set(regs.A1, uint64(v.Major)<<24|uint64(v.Minor))
	case hypercall.BaseGetImplementationID:
		gprs.Set(regs.A1, fw.GetImplementationID())
	case hypercall.BaseGetImplementationVersion:
		gprs.Set(regs.A1, fw.GetImplementationVersion())
	case hypercall.BaseGetMachineVendorID:
		gprs.Set(regs.A1, fw.GetMachineVendorID())
	case hypercall.BaseGetMachineArchitectureID:
		gprs.Set(regs.A1, fw.GetMachineArchitectureID())
	case hypercall.BaseGetMachineImplementationID:
		gprs.Set(regs.A1, fw.GetMachineImplementationID())
	case hypercall.BaseProbeSbiExtension:
		gprs.Set(regs.A1, fw.ProbeExtension(call.ExtensionID))
	}
	gprs.Set(regs.A0, uint64(ErrSuccess))
}

func handleRemoteFence(call hypercall.RemoteFenceCall, gprs *regs.GPRs, fw firmware.Firmware) {
	var ret firmware.Ret
	switch call.Func {
	case hypercall.RemoteFenceI:
		ret = fw.RemoteFenceI(call.HartMask, call.HartMaskBase)
	case hypercall.RemoteSFenceVMA:
		ret = fw.RemoteSFenceVMA(call.HartMask, call.HartMaskBase, call.StartAddr, call.Size)
	}
	gprs.Set(regs.A0, uint64(ret.Error))
	gprs.Set(regs.A1, ret.Value)
}

func handlePMU(call hypercall.PMUCall, gprs *regs.GPRs, fw firmware.Firmware) {
	gprs.Set(regs.A0, uint64(ErrSuccess))
	switch call.Func {
	case hypercall.PMUGetNumCounters:
		gprs.Set(regs.A1, fw.PMUNumCounters())
	case hypercall.PMUGetCounterInfo:
		ret := fw.PMUCounterGetInfo(call.CounterIndex)
		gprs.Set(regs.A0, uint64(ret.Error))
		gprs.Set(regs.A1, ret.Value)
	case hypercall.PMUStopCounter:
		ret := fw.PMUCounterStop(call.CounterIndex, call.CounterMask, call.StopFlags)
		gprs.Set(regs.A0, uint64(ret.Error))
		gprs.Set(regs.A1, ret.Value)
	}
}

// Package vmexit implements the VM exit dispatch loop (spec.md §4.2): it
// owns one guest's vCPU, PLIC shadow, console input queue, and CSR
// collaborator, and turns repeated vCPU exits into either local
// emulation or a Trap handed up to the VMM scheduler. Grounded on the
// vm.rs run/run_and_save_state/restore_state/handle_page_fault/handle_irq
// methods in original_source, restructured as a single Run call per
// spec.md's VmmTrap-yielding VM.run(vcpu_id) contract.
package vmexit

import (
	"context"
	"fmt"

	"github.com/tinyrange/rvhype/internal/csr"
	"github.com/tinyrange/rvhype/internal/firmware"
	"github.com/tinyrange/rvhype/internal/herror"
	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/plic"
	"github.com/tinyrange/rvhype/internal/regs"
	"github.com/tinyrange/rvhype/internal/sbi"
	"github.com/tinyrange/rvhype/internal/trap"
	"github.com/tinyrange/rvhype/internal/vcpu"
)

// externalInterruptContext is the real PLIC context this core claims
// external interrupts against (spec.md §9 Open Question 2: hart 0,
// S-mode).
const externalInterruptContext = 1

// VM is one guest: its vCPU, the PLIC shadow it is told it owns, its
// console input queue, and the CSR/real-PLIC collaborators it shares
// with the rest of the hart (spec.md §3, §6).
type VM struct {
	VCPU     vcpu.VCPU
	Fetcher  trap.InstructionFetcher
	Shadow   *plic.Shadow
	RealPLIC plic.RealPLIC
	CSR      csr.Registers
	Firmware firmware.Firmware
	Input    *InputQueue

	deadline uint64
}

// NewVM assembles a VM from its collaborators.
func NewVM(vc vcpu.VCPU, fetcher trap.InstructionFetcher, shadow *plic.Shadow, realPLIC plic.RealPLIC, csrRegs csr.Registers, fw firmware.Firmware) *VM {
	return &VM{
		VCPU:     vc,
		Fetcher:  fetcher,
		Shadow:   shadow,
		RealPLIC: realPLIC,
		CSR:      csrRegs,
		Firmware: fw,
		Input:    &InputQueue{},
		deadline: ^uint64(0),
	}
}

// Deadline returns this VM's last requested timer deadline, used by the
// scheduler to decide which VMs need a virtual timer interrupt injected
// (spec.md §4.5).
func (v *VM) Deadline() uint64 { return v.deadline }

// AddCharToInputBuffer queues a byte of console input for this VM,
// called by the scheduler's console multiplexer (spec.md §4.4.1).
func (v *VM) AddCharToInputBuffer(c byte) { v.Input.PushBack(c) }

// Run drives this VM's vCPU until a trap occurs that the scheduler must
// act on: a SetTimer hypercall or a TimerInterruptEmulation exit.
// Everything else (Ecall besides SetTimer, PageFault, external
// interrupt emulation) is handled locally and the loop continues
// (spec.md §4.2).
func (v *VM) Run(ctx context.Context) (hypercall.Trap, error) {
	var gprs regs.GPRs

	for {
		advancePC := false
		instLen := 4

		exit, err := v.VCPU.Run(ctx)
		if err != nil {
			return hypercall.Trap{}, fmt.Errorf("vcpu run: %w", err)
		}
		v.VCPU.SaveGPRs(&gprs)

		var yield *hypercall.Trap

		switch exit.Kind {
		case vcpu.ExitEcall:
			if exit.Ecall == nil {
				return hypercall.Trap{}, herror.New(herror.KindMalformedEcall)
			}
			yield = sbi.Handle(*exit.Ecall, &gprs, v.Firmware, v.Input, v.CSR)
			if yield != nil && yield.Kind == hypercall.TrapSetTimer {
				v.deadline = yield.Deadline
			}
			advancePC = true

		case vcpu.ExitPageFault:
			if exit.Priv == vcpu.PrivUser {
				return hypercall.Trap{}, herror.New(herror.KindUserPageFault).WithAddr(exit.FaultAddr)
			}
			result, err := trap.HandlePageFault(v.Shadow, v.Fetcher, &gprs, exit.FaultPC, exit.FaultAddr, exit.Inst)
			if err != nil {
				return hypercall.Trap{}, err
			}
			if result.Completed && v.RealPLIC != nil {
				if err := v.RealPLIC.CompleteExternal(result.CompletedCtx, result.CompletedIRQ); err != nil {
					return hypercall.Trap{}, fmt.Errorf("complete external irq: %w", err)
				}
			}
			instLen = result.Length
			advancePC = true

		case vcpu.ExitTimerInterruptEmulation:
			t := hypercall.NewTimerInterruptEmulationTrap()
			yield = &t

		case vcpu.ExitExternalInterruptEmulation:
			irq, err := v.RealPLIC.ClaimExternal(externalInterruptContext)
			if err != nil {
				return hypercall.Trap{}, fmt.Errorf("claim external irq: %w", err)
			}
			if irq == 0 {
				return hypercall.Trap{}, herror.New(herror.KindSpuriousInterrupt)
			}
			v.Shadow.SetClaimed(externalInterruptContext, irq)
			v.CSR.SetGuestVSEIP()

		case vcpu.ExitOther:
			// no-op
		}

		v.VCPU.RestoreGPRs(&gprs)
		if advancePC {
			v.VCPU.AdvancePC(instLen)
		}

		if yield != nil {
			return *yield, nil
		}
	}
}

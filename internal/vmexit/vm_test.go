package vmexit

import (
	"context"
	"errors"
	"testing"

	"github.com/tinyrange/rvhype/internal/csr"
	"github.com/tinyrange/rvhype/internal/firmware"
	"github.com/tinyrange/rvhype/internal/herror"
	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/plic"
	"github.com/tinyrange/rvhype/internal/regs"
	"github.com/tinyrange/rvhype/internal/vcpu"
)

type stubFetcher struct{}

func (stubFetcher) FetchGuestInstruction(gva uint64) (uint32, error) { return 0, nil }

func newTestVM(exits []vcpu.ExitInfo) (*VM, *vcpu.Fake) {
	fake := &vcpu.Fake{Exits: exits}
	shadow := plic.NewShadow(plic.DefaultBase)
	real := plic.NewFakeRealPLIC()
	csrRegs := csr.NewSimulated()
	fw := firmware.NewFake()
	return NewVM(fake, stubFetcher{}, shadow, real, csrRegs, fw), fake
}

func TestVMRunSetTimerYields(t *testing.T) {
	vm, _ := newTestVM([]vcpu.ExitInfo{
		{
			Kind:  vcpu.ExitEcall,
			Ecall: msgPtr(hypercall.NewSetTimer(12345)),
		},
	})

	tr, err := vm.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Kind != hypercall.TrapSetTimer || tr.Deadline != 12345 {
		t.Errorf("expected SetTimer trap with deadline 12345, got %+v", tr)
	}
	if vm.Deadline() != 12345 {
		t.Errorf("expected VM deadline to be recorded, got %d", vm.Deadline())
	}
	if vm.CSR.GuestVSTIP() {
		t.Errorf("expected SetTimer to have cleared GuestVSTIP")
	}
}

func TestVMRunMalformedEcallIsFatal(t *testing.T) {
	vm, _ := newTestVM([]vcpu.ExitInfo{
		{Kind: vcpu.ExitEcall, Ecall: nil},
	})

	_, err := vm.Run(context.Background())

	var herr *herror.Error
	if !errors.As(err, &herr) || herr.Kind != herror.KindMalformedEcall {
		t.Fatalf("expected KindMalformedEcall, got %v", err)
	}
}

func TestVMRunExternalInterruptClaimsAndInjects(t *testing.T) {
	exits := []vcpu.ExitInfo{
		{Kind: vcpu.ExitExternalInterruptEmulation},
		{Kind: vcpu.ExitEcall, Ecall: msgPtr(hypercall.NewSetTimer(1))},
	}
	vm, _ := newTestVM(exits)
	real := vm.RealPLIC.(*plic.FakeRealPLIC)
	real.QueueIRQ(1, 7)

	tr, err := vm.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Kind != hypercall.TrapSetTimer {
		t.Fatalf("expected to fall through to the SetTimer exit, got %+v", tr)
	}
	if got := vm.Shadow.Claimed(1); got != 7 {
		t.Errorf("expected shadow to record claimed irq 7, got %d", got)
	}
	if !vm.CSR.GuestVSEIP() {
		t.Errorf("expected GuestVSEIP to be set after external interrupt emulation")
	}
}

func TestVMRunSpuriousInterruptIsFatal(t *testing.T) {
	vm, _ := newTestVM([]vcpu.ExitInfo{{Kind: vcpu.ExitExternalInterruptEmulation}})
	real := vm.RealPLIC.(*plic.FakeRealPLIC)
	real.QueueIRQ(1, 0)

	_, err := vm.Run(context.Background())

	var herr *herror.Error
	if !errors.As(err, &herr) || herr.Kind != herror.KindSpuriousInterrupt {
		t.Fatalf("expected KindSpuriousInterrupt, got %v", err)
	}
}

func TestVMRunTimerInterruptEmulationYields(t *testing.T) {
	vm, _ := newTestVM([]vcpu.ExitInfo{{Kind: vcpu.ExitTimerInterruptEmulation}})

	tr, err := vm.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Kind != hypercall.TrapTimerInterruptEmulation {
		t.Errorf("expected TimerInterruptEmulation trap, got %+v", tr)
	}
	if vm.CSR.GuestVSTIP() {
		t.Errorf("VM.Run must not inject GuestVSTIP itself; deadline-gated injection is the scheduler's job")
	}
}

func TestVMRunPageFaultAdvancesPCAndForwardsCompletion(t *testing.T) {
	addr := plic.DefaultBase + 0x20_0004 + plic.ContextStride*1
	shadow := plic.NewShadow(plic.DefaultBase)
	shadow.SetClaimed(1, 3)

	// sw a1, 0(a0); a1 holds the echoed irq 3.
	sw := (uint32(regs.A1) << 20) | (uint32(regs.A0) << 15) | (0b010 << 12) | 0b0100011
	fake := &vcpu.Fake{
		Exits: []vcpu.ExitInfo{
			{Kind: vcpu.ExitPageFault, FaultAddr: addr, Inst: sw, Priv: vcpu.PrivSupervisor},
			{Kind: vcpu.ExitEcall, Ecall: msgPtr(hypercall.NewSetTimer(1))},
		},
	}
	fake.GPRs.Set(regs.A1, 3)

	real := plic.NewFakeRealPLIC()
	vm := NewVM(fake, stubFetcher{}, shadow, real, csr.NewSimulated(), firmware.NewFake())

	_, err := vm.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.Advanced) == 0 || fake.Advanced[0] != 4 {
		t.Errorf("expected PC advanced by 4 after page fault, got %v", fake.Advanced)
	}
	if completed := real.Completed(); len(completed) != 1 || completed[0] != 3 {
		t.Errorf("expected completion forwarded for irq 3, got %v", completed)
	}
}

func msgPtr(m hypercall.Msg) *hypercall.Msg { return &m }

package sbi

import (
	"testing"

	"github.com/tinyrange/rvhype/internal/csr"
	"github.com/tinyrange/rvhype/internal/firmware"
	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/regs"
)

type queue struct{ buf []byte }

func (q *queue) PopFront() (byte, bool) {
	if len(q.buf) == 0 {
		return 0, false
	}
	c := q.buf[0]
	q.buf = q.buf[1:]
	return c, true
}

func TestHandleGetCharDrainsInputBuffer(t *testing.T) {
	var gprs regs.GPRs
	q := &queue{buf: []byte{'x'}}

	Handle(hypercall.NewGetChar(), &gprs, firmware.NewFake(), q, csr.NewSimulated())
	if got := gprs.Get(regs.A0); got != uint64('x') {
		t.Errorf("expected A0='x', got %d", got)
	}
}

func TestHandleGetCharEmptyReturnsSentinel(t *testing.T) {
	var gprs regs.GPRs
	q := &queue{}

	Handle(hypercall.NewGetChar(), &gprs, firmware.NewFake(), q, csr.NewSimulated())
	if got := gprs.Get(regs.A0); got != ^uint64(0) {
		t.Errorf("expected A0=usize::MAX sentinel, got 0x%x", got)
	}
}

func TestHandlePutCharForwardsToFirmware(t *testing.T) {
	var gprs regs.GPRs
	fw := firmware.NewFake()

	Handle(hypercall.NewPutChar('y'), &gprs, fw, &queue{}, csr.NewSimulated())
	if len(fw.Output) != 1 || fw.Output[0] != 'y' {
		t.Errorf("expected firmware output to contain 'y', got %v", fw.Output)
	}
	if got := gprs.Get(regs.A0); got != uint64(ErrSuccess) {
		t.Errorf("expected success, got %d", got)
	}
}

func TestHandleSetTimerClearsVSTIPAndYieldsTrap(t *testing.T) {
	var gprs regs.GPRs
	csrRegs := csr.NewSimulated()
	csrRegs.SetGuestVSTIP()

	trap := Handle(hypercall.NewSetTimer(999), &gprs, firmware.NewFake(), &queue{}, csrRegs)
	if trap == nil || trap.Kind != hypercall.TrapSetTimer || trap.Deadline != 999 {
		t.Fatalf("expected a SetTimer trap with deadline 999, got %+v", trap)
	}
	if csrRegs.GuestVSTIP() {
		t.Errorf("expected GuestVSTIP to be cleared")
	}
	if got := gprs.Get(regs.A0); got != uint64(ErrSuccess) {
		t.Errorf("expected success, got %d", got)
	}
}

func TestHandleResetForwardsShutdown(t *testing.T) {
	var gprs regs.GPRs
	fw := firmware.NewFake()

	Handle(hypercall.NewReset(0), &gprs, fw, &queue{}, csr.NewSimulated())
	if !fw.ResetCalled || fw.ResetKind != firmware.ResetShutdown || fw.ResetCause != firmware.ResetCauseSystemFailure {
		t.Errorf("expected a shutdown/system-failure reset, got %+v", fw)
	}
}

func TestHandleBaseProbeExtension(t *testing.T) {
	var gprs regs.GPRs
	fw := firmware.NewFake()
	fw.SupportedExts[0x735049] = true

	Handle(hypercall.NewBase(hypercall.BaseCall{
		Func:        hypercall.BaseProbeSbiExtension,
		ExtensionID: 0x735049,
	}), &gprs, fw, &queue{}, csr.NewSimulated())

	if got := gprs.Get(regs.A1); got != 1 {
		t.Errorf("expected probe to report extension present, got %d", got)
	}
}

func TestHandleUnknownKindReportsNotSupported(t *testing.T) {
	var gprs regs.GPRs

	Handle(hypercall.Msg{Kind: hypercall.Kind(99)}, &gprs, firmware.NewFake(), &queue{}, csr.NewSimulated())
	if got := int64(gprs.Get(regs.A0)); got != ErrNotSupported {
		t.Errorf("expected SBI_ERR_NOT_SUPPORTED, got %d", got)
	}
}

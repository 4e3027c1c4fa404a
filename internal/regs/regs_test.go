package regs

import "testing"

func TestZeroRegisterIsAlwaysZero(t *testing.T) {
	var g GPRs
	g.Set(Zero, 0xdeadbeef)
	if got := g.Get(Zero); got != 0 {
		t.Errorf("expected x0 to read 0 after a write, got 0x%x", got)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	var g GPRs
	g.Set(A0, 42)
	if got := g.Get(A0); got != 42 {
		t.Errorf("expected A0=42, got %d", got)
	}
}

package csr

import "testing"

func TestSimulatedBitsAreIndependent(t *testing.T) {
	s := NewSimulated()

	s.SetHostSTIE()
	s.SetGuestVSEIP()

	if !s.HostSTIE() {
		t.Errorf("expected HostSTIE set")
	}
	if s.GuestVSTIP() {
		t.Errorf("expected GuestVSTIP still clear")
	}
	if !s.GuestVSEIP() {
		t.Errorf("expected GuestVSEIP set")
	}

	s.ClearHostSTIE()
	if s.HostSTIE() {
		t.Errorf("expected HostSTIE cleared")
	}
	if !s.GuestVSEIP() {
		t.Errorf("expected GuestVSEIP unaffected by clearing HostSTIE")
	}
}

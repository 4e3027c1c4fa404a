// Package csr models the two H-extension control/status registers the
// hypervisor core mutates: the host sie.STIE bit and the guest hvip
// VSTIP/VSEIP bits. spec.md §6 lists these as external collaborators
// accessed through atomic read-modify-write primitives; this package is
// the interface contract plus an in-memory implementation suitable for
// simulation and tests. A real deployment backs the same interface with
// inline CSRRS/CSRRC access to the hart's physical registers.
package csr

import "sync/atomic"

// Registers is the CSR collaborator the vmexit and scheduler packages
// mutate. All methods must be safe to call from the single hart that owns
// the scheduler; no concurrent callers are assumed (spec.md §5).
type Registers interface {
	SetHostSTIE()
	ClearHostSTIE()
	HostSTIE() bool

	SetGuestVSTIP()
	ClearGuestVSTIP()
	GuestVSTIP() bool

	SetGuestVSEIP()
	ClearGuestVSEIP()
	GuestVSEIP() bool
}

const (
	bitSTIE  = 1 << 0
	bitVSTIP = 1 << 1
	bitVSEIP = 1 << 2
)

// Simulated is an in-memory Registers backed by a single atomic word, the
// way rv64.CLINT tracks its msip bit with atomic.Uint32. It has no
// connection to real hardware and exists for tests and for hosts without
// H-extension access.
type Simulated struct {
	bits atomic.Uint32
}

// NewSimulated returns a Registers with all bits clear.
func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) set(bit uint32) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (s *Simulated) clear(bit uint32) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

func (s *Simulated) SetHostSTIE()      { s.set(bitSTIE) }
func (s *Simulated) ClearHostSTIE()    { s.clear(bitSTIE) }
func (s *Simulated) HostSTIE() bool    { return s.bits.Load()&bitSTIE != 0 }
func (s *Simulated) SetGuestVSTIP()    { s.set(bitVSTIP) }
func (s *Simulated) ClearGuestVSTIP()  { s.clear(bitVSTIP) }
func (s *Simulated) GuestVSTIP() bool  { return s.bits.Load()&bitVSTIP != 0 }
func (s *Simulated) SetGuestVSEIP()    { s.set(bitVSEIP) }
func (s *Simulated) ClearGuestVSEIP()  { s.clear(bitVSEIP) }
func (s *Simulated) GuestVSEIP() bool  { return s.bits.Load()&bitVSEIP != 0 }

var _ Registers = (*Simulated)(nil)

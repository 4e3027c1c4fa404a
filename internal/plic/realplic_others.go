//go:build !linux

package plic

import "fmt"

// MMIOPLIC is unavailable outside Linux; construct a FakeRealPLIC for
// simulation and tests on other platforms.
type MMIOPLIC struct{}

// NewMMIOPLIC always fails on non-Linux platforms.
func NewMMIOPLIC(fd int, mmapOffset int64, size int) (*MMIOPLIC, error) {
	return nil, fmt.Errorf("plic: real PLIC MMIO access is only implemented on linux")
}

func (p *MMIOPLIC) ClaimExternal(context int) (uint32, error) {
	return 0, fmt.Errorf("plic: real PLIC MMIO access is only implemented on linux")
}

func (p *MMIOPLIC) CompleteExternal(context int, irq uint32) error {
	return fmt.Errorf("plic: real PLIC MMIO access is only implemented on linux")
}

var _ RealPLIC = (*MMIOPLIC)(nil)

//go:build linux

package plic

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MMIOPLIC implements RealPLIC by mmap'ing the physical PLIC's MMIO window
// from an open handle to the device's physical memory (e.g. /dev/mem, or a
// VFIO/UIO resource fd) and touching the claim/complete register through
// that mapping, the way the teacher's internal/hv/kvm package mmaps the
// kvm_run structure and VM memory slots in kvm.go.
type MMIOPLIC struct {
	mem []byte
}

// NewMMIOPLIC maps size bytes of the PLIC's MMIO window from fd at
// mmapOffset. The caller owns fd and is responsible for closing it; the
// mapping persists independently once established.
func NewMMIOPLIC(fd int, mmapOffset int64, size int) (*MMIOPLIC, error) {
	mem, err := unix.Mmap(fd, mmapOffset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("plic: mmap real PLIC window: %w", err)
	}
	return &MMIOPLIC{mem: mem}, nil
}

// Close unmaps the PLIC MMIO window.
func (p *MMIOPLIC) Close() error {
	return unix.Munmap(p.mem)
}

func (p *MMIOPLIC) regPointer(context int) (*uint32, error) {
	off := claimCompleteBase + ContextStride*uint64(context)
	if off+4 > uint64(len(p.mem)) {
		return nil, fmt.Errorf("plic: context %d claim/complete register out of mapped range", context)
	}
	return (*uint32)(unsafe.Pointer(&p.mem[off])), nil
}

// ClaimExternal implements RealPLIC.
func (p *MMIOPLIC) ClaimExternal(context int) (uint32, error) {
	reg, err := p.regPointer(context)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(reg), nil
}

// CompleteExternal implements RealPLIC.
func (p *MMIOPLIC) CompleteExternal(context int, irq uint32) error {
	reg, err := p.regPointer(context)
	if err != nil {
		return err
	}
	atomic.StoreUint32(reg, irq)
	return nil
}

var _ RealPLIC = (*MMIOPLIC)(nil)

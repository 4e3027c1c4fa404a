package plic

// FakeRealPLIC is an in-process RealPLIC for simulation and tests: it lets
// callers queue an IRQ to be claimed and records completions, without any
// real MMIO.
type FakeRealPLIC struct {
	pending    map[int]uint32
	completed  []uint32
}

// NewFakeRealPLIC returns a FakeRealPLIC with nothing pending.
func NewFakeRealPLIC() *FakeRealPLIC {
	return &FakeRealPLIC{pending: make(map[int]uint32)}
}

// QueueIRQ arranges for the next claim on context to return irq.
func (f *FakeRealPLIC) QueueIRQ(context int, irq uint32) {
	f.pending[context] = irq
}

// ClaimExternal implements RealPLIC.
func (f *FakeRealPLIC) ClaimExternal(context int) (uint32, error) {
	return f.pending[context], nil
}

// CompleteExternal implements RealPLIC.
func (f *FakeRealPLIC) CompleteExternal(context int, irq uint32) error {
	if f.pending[context] == irq {
		delete(f.pending, context)
	}
	f.completed = append(f.completed, irq)
	return nil
}

// Completed returns the IRQs acknowledged so far, in order.
func (f *FakeRealPLIC) Completed() []uint32 {
	return f.completed
}

var _ RealPLIC = (*FakeRealPLIC)(nil)

package plic

// RealPLIC is the hypervisor's client of the physical PLIC's claim/complete
// register for a given context (spec.md §4.4, §6). Context 1 is S-mode for
// hart 0.
type RealPLIC interface {
	// ClaimExternal performs a volatile read of the claim/complete
	// register for context, returning the claimed IRQ. A return of 0
	// indicates a spurious interrupt.
	ClaimExternal(context int) (uint32, error)
	// CompleteExternal performs a volatile write of irq to the
	// claim/complete register for context, acknowledging completion.
	CompleteExternal(context int, irq uint32) error
}

package scheduler

import "time"

// Clock is the monotonic time source the scheduler compares vCPU timer
// deadlines against. Grounded on rv64.CLINT's getMtime (internal/hv/riscv/
// rv64/clint.go): a start time plus a fixed tick rate, so deadlines and
// "now" share the same unit the guest's SetTimer hypercalls are expressed
// in.
type Clock struct {
	start     time.Time
	nsPerTick uint64
}

// NewClock returns a Clock ticking at nsPerTick nanoseconds per unit,
// starting now.
func NewClock(nsPerTick uint64) *Clock {
	return &Clock{start: time.Now(), nsPerTick: nsPerTick}
}

// Now returns the current tick count since the Clock was created.
func (c *Clock) Now() uint64 {
	return uint64(time.Since(c.start).Nanoseconds()) / c.nsPerTick
}

package vcpu

import (
	"context"

	"github.com/tinyrange/rvhype/internal/regs"
)

// Fake is an in-process VCPU double for simulation and tests. Exits is
// consumed front-to-back by Run; once exhausted, Run reports a timer
// interrupt emulation exit on every call, the way a real vCPU would
// keep getting interrupted by the host timer the scheduler armed, so
// callers that don't supply a scripted Exits sequence still make
// progress and remain responsive to ctx cancellation.
type Fake struct {
	Exits []ExitInfo

	GPRs       regs.GPRs
	Advanced   []int
	RunCalls   int
	PageMapTok uintptr
}

func (f *Fake) Run(ctx context.Context) (ExitInfo, error) {
	if err := ctx.Err(); err != nil {
		return ExitInfo{}, err
	}
	f.RunCalls++
	if len(f.Exits) == 0 {
		return ExitInfo{Kind: ExitTimerInterruptEmulation}, nil
	}
	next := f.Exits[0]
	f.Exits = f.Exits[1:]
	return next, nil
}

func (f *Fake) SaveGPRs(dst *regs.GPRs)    { *dst = f.GPRs }
func (f *Fake) RestoreGPRs(src *regs.GPRs) { f.GPRs = *src }
func (f *Fake) AdvancePC(length int)       { f.Advanced = append(f.Advanced, length) }
func (f *Fake) InitPageMap(token uintptr)  { f.PageMapTok = token }

var _ VCPU = (*Fake)(nil)

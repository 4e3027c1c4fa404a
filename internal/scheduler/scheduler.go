// Package scheduler implements the VMM round-robin scheduler (spec.md
// §4.5): it owns every VM on the hart, arms and rearms the real timer in
// response to each VM's yielded Trap, sweeps expired deadlines into
// guest virtual timer interrupts, and multiplexes a single physical
// console across VMs on a time-slice boundary. Grounded on vmm.rs's
// run/set_switch_vm_timer loop in original_source, restructured around
// Go's context.Context for cancellation in place of the original's
// non-returning loop, and logged with log/slog the way
// internal/hv/riscv/ccvm/vm.go logs its own run loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinyrange/rvhype/internal/hypercall"
	"github.com/tinyrange/rvhype/internal/vmexit"
)

// TimeSlice is the number of clock ticks a VM runs before the scheduler
// reconsiders which VM should hold the console and whose turn is next
// (spec.md §4.5, reference value 200_000).
const TimeSlice = 200_000

// ConsoleEOF is the sentinel ConsoleGetChar returns when no input is
// buffered (spec.md §4.4.1's usize::MAX, represented as -1 in this
// core's signed Firmware.ConsoleGetChar).
const ConsoleEOF = -1

// FocusSwitchByte is the console byte that rotates which VM receives
// subsequently typed input, rather than being forwarded as a character
// (spec.md §4.4.1).
const FocusSwitchByte = 0x60 // backtick

// TimeSource is the monotonic clock the scheduler compares deadlines
// against.
type TimeSource interface {
	Now() uint64
}

// Config carries the scheduler's tunables, following the teacher's
// VMConfig/SimpleVMConfig split (internal/hv/common.go) of a plain
// struct of overridable fields consumed once at construction. A zero
// Config uses the package defaults.
type Config struct {
	// TimeSlice overrides TimeSlice when non-zero.
	TimeSlice uint64
}

func (c Config) timeSlice() uint64 {
	if c.TimeSlice == 0 {
		return TimeSlice
	}
	return c.TimeSlice
}

// Scheduler round-robins a fixed set of VMs on one hart.
type Scheduler struct {
	vms        []*vmexit.VM
	clock      TimeSource
	log        *slog.Logger
	cfg        Config
	switchAt   uint64
	focusedIdx int
}

// New returns a Scheduler over vms, which must be non-empty. A nil
// logger falls back to slog.Default(), so tests and one-off tools don't
// have to thread one through.
func New(vms []*vmexit.VM, clock TimeSource, log *slog.Logger, cfg Config) (*Scheduler, error) {
	if len(vms) == 0 {
		return nil, fmt.Errorf("scheduler: no VMs to run")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{vms: vms, clock: clock, log: log, cfg: cfg}, nil
}

// Run drives the scheduler until ctx is cancelled or a VM raises a
// fatal error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("vmm starting", "vm_count", len(s.vms))

	id := 0
	s.armTimer(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		next, err := s.step(ctx, id)
		if err != nil {
			return err
		}
		id = next
	}
}

// armTimer re-enables the host timer interrupt, schedules the next
// time-slice boundary, and arms the real firmware timer for it (spec.md
// §4.5's set_switch_vm_timer).
func (s *Scheduler) armTimer(id int) {
	vm := s.vms[id]
	s.switchAt = s.clock.Now() + s.cfg.timeSlice()
	vm.CSR.SetHostSTIE()
	vm.Firmware.SetTimer(s.switchAt)
}

// step runs the currently scheduled VM until it yields, handles the
// yielded Trap, and returns the index of the VM that should run next.
func (s *Scheduler) step(ctx context.Context, id int) (int, error) {
	vm := s.vms[id]

	tr, err := vm.Run(ctx)
	if err != nil {
		return id, fmt.Errorf("vm %d: %w", id, err)
	}

	switch tr.Kind {
	case hypercall.TrapSetTimer:
		vm.CSR.SetHostSTIE()
		vm.Firmware.SetTimer(tr.Deadline)
		return id, nil

	case hypercall.TrapTimerInterruptEmulation:
		return s.handleTimerInterrupt(vm, id), nil

	default:
		return id, nil
	}
}

// handleTimerInterrupt implements spec.md §4.5's TimerInterruptEmulation
// handling: disable the host timer, inject a guest virtual timer
// interrupt into every VM whose deadline has passed, and if the current
// time slice has elapsed, drain console input and advance to the next
// VM.
func (s *Scheduler) handleTimerInterrupt(vm *vmexit.VM, id int) int {
	vm.CSR.ClearHostSTIE()

	now := s.clock.Now()
	for _, other := range s.vms {
		if now > other.Deadline() {
			other.CSR.SetGuestVSTIP()
		}
	}

	if now <= s.switchAt {
		return id
	}

	s.log.Debug("time slice expired", "now", now, "switch_at", s.switchAt)
	s.drainConsoleInput(vm)

	next := (id + 1) % len(s.vms)
	s.armTimer(next)
	return next
}

// drainConsoleInput reads every buffered console byte, rotating the
// focused VM on FocusSwitchByte and appending everything else to the
// focused VM's input queue (spec.md §4.4.1).
func (s *Scheduler) drainConsoleInput(vm *vmexit.VM) {
	for {
		c := vm.Firmware.ConsoleGetChar()
		if c == ConsoleEOF {
			return
		}
		if c == FocusSwitchByte {
			s.focusedIdx = (s.focusedIdx + 1) % len(s.vms)
			s.log.Info("console focus changed", "vm", s.focusedIdx)
			continue
		}
		s.vms[s.focusedIdx].AddCharToInputBuffer(byte(c))
	}
}

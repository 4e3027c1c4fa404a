// rvhyped boots the VMM scheduler over a fixed number of simulated
// guests. It exists to exercise internal/scheduler end to end; the real
// vCPU, stage-2 page table, and boot path it would drive in production
// are external collaborators (spec.md §6) this command stands in for
// with in-process doubles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinyrange/rvhype/internal/csr"
	"github.com/tinyrange/rvhype/internal/firmware"
	"github.com/tinyrange/rvhype/internal/plic"
	"github.com/tinyrange/rvhype/internal/scheduler"
	"github.com/tinyrange/rvhype/internal/vcpu"
	"github.com/tinyrange/rvhype/internal/vmexit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rvhyped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	numVMs := flag.Int("vms", 2, "number of simulated guests")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *numVMs < 1 {
		return fmt.Errorf("-vms must be at least 1, got %d", *numVMs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vms := make([]*vmexit.VM, *numVMs)
	realPLIC := plic.NewFakeRealPLIC()
	for i := range vms {
		vms[i] = vmexit.NewVM(
			&vcpu.Fake{},
			noopFetcher{},
			plic.NewShadow(plic.DefaultBase),
			realPLIC,
			csr.NewSimulated(),
			firmware.NewFake(),
		)
	}

	sched, err := scheduler.New(vms, scheduler.NewClock(100), slog.Default(), scheduler.Config{})
	if err != nil {
		return err
	}

	slog.Info("rvhyped starting", "vms", *numVMs)
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	slog.Info("rvhyped stopped")
	return nil
}

type noopFetcher struct{}

func (noopFetcher) FetchGuestInstruction(gva uint64) (uint32, error) {
	return 0, fmt.Errorf("rvhyped: no guest memory backing to fetch from at 0x%x", gva)
}

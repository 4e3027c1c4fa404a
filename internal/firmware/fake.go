package firmware

// Fake is an in-process Firmware double for simulation and tests. It
// queues console input, records output and reset calls, and returns
// canned values for the informational SBI queries.
type Fake struct {
	Input  []byte // consumed front-to-back by ConsoleGetChar
	Output []byte // appended to by ConsolePutChar

	LastTimer uint64
	ResetCalled bool
	ResetKind   ResetKind
	ResetCause  ResetCause

	Spec          SpecVersion
	ImplID        uint64
	ImplVersion   uint64
	MVendorID     uint64
	MArchID       uint64
	MImplID       uint64
	SupportedExts map[uint64]bool

	NumCounters uint64
}

// NewFake returns a Fake with reasonable defaults.
func NewFake() *Fake {
	return &Fake{
		Spec:          SpecVersion{Major: 1, Minor: 0},
		SupportedExts: make(map[uint64]bool),
	}
}

func (f *Fake) ConsoleGetChar() int64 {
	if len(f.Input) == 0 {
		return -1
	}
	c := f.Input[0]
	f.Input = f.Input[1:]
	return int64(c)
}

func (f *Fake) ConsolePutChar(c byte) {
	f.Output = append(f.Output, c)
}

func (f *Fake) SetTimer(deadline uint64) { f.LastTimer = deadline }

func (f *Fake) SystemReset(kind ResetKind, cause ResetCause) {
	f.ResetCalled = true
	f.ResetKind = kind
	f.ResetCause = cause
}

func (f *Fake) GetSpecVersion() SpecVersion          { return f.Spec }
func (f *Fake) GetImplementationID() uint64          { return f.ImplID }
func (f *Fake) GetImplementationVersion() uint64     { return f.ImplVersion }
func (f *Fake) GetMachineVendorID() uint64           { return f.MVendorID }
func (f *Fake) GetMachineArchitectureID() uint64     { return f.MArchID }
func (f *Fake) GetMachineImplementationID() uint64   { return f.MImplID }

func (f *Fake) ProbeExtension(extensionID uint64) uint64 {
	if f.SupportedExts[extensionID] {
		return 1
	}
	return 0
}

func (f *Fake) RemoteFenceI(hartMask, hartMaskBase uint64) Ret {
	return Ret{Error: 0, Value: 0}
}

func (f *Fake) RemoteSFenceVMA(hartMask, hartMaskBase, startAddr, size uint64) Ret {
	return Ret{Error: 0, Value: 0}
}

func (f *Fake) PMUNumCounters() uint64 { return f.NumCounters }

func (f *Fake) PMUCounterGetInfo(counterIndex uint64) Ret {
	return Ret{Error: 0, Value: 0}
}

func (f *Fake) PMUCounterStop(counterIndex, counterMask, stopFlags uint64) Ret {
	return Ret{Error: 0, Value: 0}
}

var _ Firmware = (*Fake)(nil)

// Package trap decodes the guest-page-fault exits that land inside the
// PLIC shadow window (spec.md §4.2.1). It never touches stage-2 page
// tables or the trap vector itself (spec.md §6); it only classifies and
// decodes the faulting instruction and performs the PLIC register
// access the guest intended. Bit-field extraction is grounded on
// rv64.Execute's opcode/rd/funct3/rs2 helpers and instruction-length
// classification and compressed-instruction expansion on
// rv64.ExpandCompressed (internal/hv/riscv/rv64/{execute,compressed}.go).
package trap

import (
	"github.com/tinyrange/rvhype/internal/herror"
	"github.com/tinyrange/rvhype/internal/plic"
	"github.com/tinyrange/rvhype/internal/regs"
)

// InstructionFetcher reads the 32-bit word at a guest virtual address
// when the trap frame omitted the faulting instruction (spec.md
// §4.2.1's "if the trap frame didn't include it"). Grounded on
// vcpu.StagePageTable as the other stage-2-backed collaborator this
// core only ever reaches through an interface.
type InstructionFetcher interface {
	FetchGuestInstruction(gva uint64) (uint32, error)
}

// RISC-V opcodes and funct3 values this decoder accepts. Anything else
// is an InvalidInstruction fatal error (spec.md §4.2.1).
const (
	opLoad  = 0b0000011
	opStore = 0b0100011
	funct3W = 0b010 // LW / SW word width
)

func opcode(insn uint32) uint32 { return insn & 0x7f }
func rd(insn uint32) uint32     { return (insn >> 7) & 0x1f }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs2(insn uint32) uint32    { return (insn >> 20) & 0x1f }

func cOp(insn uint16) uint16     { return insn & 0x3 }
func cFunct3(insn uint16) uint16 { return (insn >> 13) & 0x7 }
func cRd_(insn uint16) uint32    { return uint32(((insn>>2)&0x7)+8) }
func cRs1_(insn uint16) uint32   { return uint32(((insn>>7)&0x7)+8) }
func cRs2_(insn uint16) uint32   { return uint32(((insn>>2)&0x7)+8) }

// expandCompressed expands the C.LW/C.SW quadrant-0 forms into their
// 32-bit equivalent, the only compressed forms a PLIC MMIO access can
// take. Anything else compressed is not a valid PLIC access.
func expandCompressed(insn uint16) (uint32, bool) {
	if cOp(insn) != 0b00 {
		return 0, false
	}
	switch cFunct3(insn) {
	case 0b010: // C.LW
		imm := ((uint32(insn) >> 6) & 0x1) << 2
		imm |= ((uint32(insn) >> 10) & 0x7) << 3
		imm |= ((uint32(insn) >> 5) & 0x1) << 6
		rs1 := cRs1_(insn)
		rdv := cRd_(insn)
		return (imm << 20) | (rs1 << 15) | (0b010 << 12) | (rdv << 7) | 0b0000011, true
	case 0b110: // C.SW
		imm := ((uint32(insn) >> 6) & 0x1) << 2
		imm |= ((uint32(insn) >> 10) & 0x7) << 3
		imm |= ((uint32(insn) >> 5) & 0x1) << 6
		rs1 := cRs1_(insn)
		rs2v := cRs2_(insn)
		immHi := (imm >> 5) & 0x7f
		immLo := imm & 0x1f
		return (immHi << 25) | (rs2v << 20) | (rs1 << 15) | (0b010 << 12) | (immLo << 7) | 0b0100011, true
	default:
		return 0, false
	}
}

// instructionLength classifies a 16-bit prefix as 2 or 4 bytes per the
// standard RISC-V encoding (spec.md §4.2.1: "2 (compressed) or 4; any
// other classification is unreachable by construction").
func instructionLength(lo16 uint16) (int, error) {
	if lo16&0x3 != 0x3 {
		return 2, nil
	}
	if lo16&0x1c != 0x1c {
		return 4, nil
	}
	return 0, herror.New(herror.KindInvalidInstruction)
}

// Result is what a decoded PLIC MMIO access produced, beyond the
// instruction length needed to advance the guest's PC. CompletedIRQ is
// non-zero only when the access was a claim/complete write that echoed
// the claimed IRQ, which the exit handler must forward to the real
// PLIC's CompleteExternal (spec.md §4.1, §4.4).
type Result struct {
	Length       int
	Completed    bool
	CompletedCtx int
	CompletedIRQ uint32
}

// HandlePageFault implements spec.md §4.2.1: verify the fault lands
// inside the PLIC shadow window, fetch and classify the faulting
// instruction if the trap frame didn't carry it, decode only SW (guest
// writes to the PLIC) and LW (guest reads from the PLIC), and return
// the instruction's length so the caller can advance the guest's PC.
func HandlePageFault(shadow *plic.Shadow, fetcher InstructionFetcher, gprs *regs.GPRs, faultPC, faultAddr uint64, inst uint32) (Result, error) {
	if !shadow.Contains(faultAddr) {
		return Result{}, herror.New(herror.KindPageFault).WithAddr(faultAddr)
	}

	if inst == 0 {
		fetched, err := fetcher.FetchGuestInstruction(faultPC)
		if err != nil {
			return Result{}, herror.New(herror.KindDecodeError).WithAddr(faultPC)
		}
		inst = fetched
	}

	length, err := instructionLength(uint16(inst))
	if err != nil {
		return Result{}, err
	}

	full := inst
	if length == 2 {
		expanded, ok := expandCompressed(uint16(inst))
		if !ok {
			return Result{}, herror.New(herror.KindInvalidInstruction).WithInst(inst)
		}
		full = expanded
	}

	switch {
	case opcode(full) == opStore && funct3(full) == funct3W:
		value := uint32(gprs.Get(int(rs2(full))))
		ctx, irq, completed := shadow.WriteU32(faultAddr, value)
		return Result{Length: length, Completed: completed, CompletedCtx: ctx, CompletedIRQ: irq}, nil

	case opcode(full) == opLoad && funct3(full) == funct3W:
		value := shadow.ReadU32(faultAddr)
		gprs.Set(int(rd(full)), uint64(value))
		return Result{Length: length}, nil

	default:
		return Result{}, herror.New(herror.KindInvalidInstruction).WithInst(inst)
	}
}

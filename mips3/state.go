package mips3

import (
	"encoding/binary"
	"fmt"
	"io"
)

const STATE_VERSION = 1

var stateMagic = [4]byte{'M', 'I', 'P', '3'}

type stateHeader struct {
	Magic      [4]byte
	Version    uint32
	Flavor     uint32
	BigEndian  bool
	TLBEntries uint32
}

// Everything but the TLB rows. Field order is the blob layout
type cpuState struct {
	Regs          [35]uint64
	PC            uint32
	PPC           uint32
	NextPC        uint32
	Cpr           [3][32]uint64
	Ccr           [3][32]uint64
	Cf            [4][8]bool
	LLValue       uint64
	LLPhys        uint32
	LLBit         bool
	Cycles        uint64
	CountZeroTime uint64
	CompareArmed  bool
	Mode          uint32
}

// Writes the CPU state to `w` as a little endian blob
func (cpu *CPU) SaveState(w io.Writer) error {
	hdr := stateHeader{
		Magic:      stateMagic,
		Version:    STATE_VERSION,
		Flavor:     uint32(cpu.Config.Flavor),
		BigEndian:  cpu.Config.BigEndian,
		TLBEntries: uint32(len(cpu.TLB.Entries)),
	}
	state := cpuState{
		Regs:          cpu.Regs,
		PC:            cpu.PC,
		PPC:           cpu.PPC,
		NextPC:        cpu.NextPC,
		Cpr:           cpu.Cpr,
		Ccr:           cpu.Ccr,
		Cf:            cpu.Cf,
		LLValue:       cpu.llValue,
		LLPhys:        cpu.llPhys,
		LLBit:         cpu.llBit,
		Cycles:        cpu.Time.Cycles,
		CountZeroTime: cpu.Time.CountZeroTime,
		CompareArmed:  cpu.Time.CompareArmed,
		Mode:          cpu.Mode(),
	}

	for _, v := range []interface{}{&hdr, &state, cpu.TLB.Entries} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("mips3: writing state: %w", err)
		}
	}
	return nil
}

// Restores a state written by SaveState. The blob must come from a CPU with
// the same flavor, byte order and TLB size. On error the CPU is left untouched
func (cpu *CPU) LoadState(r io.Reader) error {
	var hdr stateHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: header: %v", ErrBadState, err)
	}
	switch {
	case hdr.Magic != stateMagic:
		return fmt.Errorf("%w: bad magic %q", ErrBadState, hdr.Magic[:])
	case hdr.Version != STATE_VERSION:
		return fmt.Errorf("%w: version %d, expected %d", ErrBadState, hdr.Version, STATE_VERSION)
	case Flavor(hdr.Flavor) != cpu.Config.Flavor:
		return fmt.Errorf("%w: saved by %s, running %s", ErrBadState, Flavor(hdr.Flavor), cpu.Config.Flavor)
	case hdr.BigEndian != cpu.Config.BigEndian:
		return fmt.Errorf("%w: byte order mismatch", ErrBadState)
	case int(hdr.TLBEntries) != len(cpu.TLB.Entries):
		return fmt.Errorf("%w: %d TLB entries, expected %d", ErrBadState, hdr.TLBEntries, len(cpu.TLB.Entries))
	}

	var state cpuState
	if err := binary.Read(r, binary.LittleEndian, &state); err != nil {
		return fmt.Errorf("%w: registers: %v", ErrBadState, err)
	}
	entries := make([]TLBEntry, hdr.TLBEntries)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return fmt.Errorf("%w: tlb: %v", ErrBadState, err)
	}

	cpu.Regs = state.Regs
	cpu.Regs[0] = 0
	cpu.PC = state.PC
	cpu.PPC = state.PPC
	cpu.NextPC = state.NextPC
	cpu.Cpr = state.Cpr
	cpu.Ccr = state.Ccr
	cpu.Cf = state.Cf
	cpu.llValue = state.LLValue
	cpu.llPhys = state.LLPhys
	cpu.llBit = state.LLBit
	cpu.Time.Cycles = state.Cycles
	cpu.Time.CountZeroTime = state.CountZeroTime
	cpu.Time.CompareArmed = state.CompareArmed
	cpu.delaySlot = false
	cpu.fetchFaults = 0
	copy(cpu.TLB.Entries, entries)

	if mode := cpu.Mode(); mode != state.Mode {
		cpu.log.Warnf("state mode %d does not match status register (mode %d)", state.Mode, mode)
	}

	cpu.TLB.RemapAll(cpu.asid())
	if cpu.drc != nil {
		cpu.drc.Flush()
	}
	cpu.updateCycleCounting()
	cpu.log.Debugf("state loaded, pc 0x%08x", cpu.PC)
	return nil
}

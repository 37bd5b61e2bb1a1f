package mips3

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Sentinel stored in NextPC when no branch is pending
const NO_BRANCH uint32 = 0xffffffff

// Register file indices of HI and LO
const (
	REG_HI = 32
	REG_LO = 33
)

// Extra cycles burned by slow instructions
const (
	MULT_CYCLES       = 3
	DIV_CYCLES        = 35
	DMULT_CYCLES      = 7
	DDIV_CYCLES       = 67
	COUNT_READ_CYCLES = 250
	CAUSE_READ_CYCLES = 250
)

// CPU state
type CPU struct {
	Regs   [35]uint64    // General purpose registers, HI and LO. The first value is always 0
	PC     uint32        // The program counter register
	PPC    uint32        // Address of the instruction being executed
	NextPC uint32        // Pending branch target, NO_BRANCH if none
	Cpr    [3][32]uint64 // Coprocessor registers
	Ccr    [3][32]uint64 // Coprocessor control registers
	Cf     [4][8]bool    // Coprocessor condition flags
	Mem    AddressSpace  // Physical address space
	TLB    *TLB          // Translation lookaside buffer
	Time   *TimeHandler  // Cycle counter
	Config Config        // Immutable configuration
	Order  binary.ByteOrder

	delaySlot      bool
	exceptionTaken bool
	badcop         uint32
	llValue        uint64 // Value latched by LL/LLD
	llBit          bool   // Set by LL/LLD, cleared by ERET and by stores to the linked address
	llPhys         uint32 // Physical address linked by LL/LLD
	fetchFaults    int
	fastRAM        []FastRAM
	hotspots       []Hotspot
	drc            *DRC
	debugger       *Debugger
	log            *logrus.Entry
}

// Creates a new CPU connected to `mem`. The CPU is reset before being returned
func NewCPU(cfg Config, mem AddressSpace) (*CPU, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if mem == nil {
		return nil, fmt.Errorf("mips3: no address space given")
	}

	cpu := &CPU{
		Mem:    mem,
		Config: cfg,
		Time:   NewTimeHandler(),
		Order:  binary.LittleEndian,
	}
	if cfg.BigEndian {
		cpu.Order = binary.BigEndian
	}
	cpu.TLB = NewTLB(cfg.TLBEntries, cfg.Flavor.PFNMask())
	cpu.log = logrus.WithFields(logrus.Fields{
		"cpu":    cfg.Flavor.String(),
		"endian": endianName(cfg.BigEndian),
	})
	if cfg.DRC {
		cpu.drc = NewDRC(cpu)
	}

	cpu.Reset()
	return cpu, nil
}

func endianName(big bool) string {
	if big {
		return "big"
	}
	return "little"
}

// Replaces the logger used by the core
func (cpu *CPU) SetLogger(entry *logrus.Entry) {
	cpu.log = entry
}

// Returns the logger used by the core
func (cpu *CPU) Logger() *logrus.Entry {
	return cpu.log
}

// Returns the recompiler, or nil when running the interpreter
func (cpu *CPU) DRC() *DRC {
	return cpu.drc
}

// Puts the CPU in its power-on state
func (cpu *CPU) Reset() {
	cpu.NextPC = NO_BRANCH
	cpu.delaySlot = false
	cpu.llBit = false
	for i := range cpu.Cf {
		for j := range cpu.Cf[i] {
			cpu.Cf[i][j] = false
		}
	}
	cpu.PC = 0xbfc00000
	cpu.PPC = cpu.PC

	cpu.Cpr[0][COP0_Status] = uint64(SR_BEV | SR_ERL)
	cpu.Cpr[0][COP0_Wired] = 0
	cpu.Cpr[0][COP0_Compare] = 0xffffffff
	cpu.Cpr[0][COP0_Count] = 0
	cpu.Cpr[0][COP0_Config] = uint64(cpu.Config.configRegister())
	cpu.Cpr[0][COP0_PRId] = uint64(cpu.Config.Flavor.PRId())
	cpu.Time.CountZeroTime = cpu.Time.Cycles
	cpu.Time.CompareArmed = false

	cpu.TLB.Reset()

	if cpu.drc != nil {
		cpu.drc.Flush()
	}
	cpu.updateCycleCounting()
	cpu.log.Debugf("reset, config 0x%08x prid 0x%04x", uint32(cpu.Cpr[0][COP0_Config]), uint32(cpu.Cpr[0][COP0_PRId]))
}

// Returns the register value at `index`. The first register is always zero
func (cpu *CPU) Reg(index uint32) uint64 {
	return cpu.Regs[index]
}

// Sets the value at the `index` register. Writes to the first register are discarded
func (cpu *CPU) SetReg(index uint32, val uint64) {
	if index != 0 {
		cpu.Regs[index] = val
	}
}

// Returns the low 32 bits of register `index`
func (cpu *CPU) reg32(index uint32) uint32 {
	return uint32(cpu.Regs[index])
}

// Sets register `index` to the sign-extended 32 bit value `val`
func (cpu *CPU) setReg32(index uint32, val uint32) {
	if index != 0 {
		cpu.Regs[index] = uint64(int64(int32(val)))
	}
}

// Returns true if the CPU is in a delay slot
func (cpu *CPU) InDelaySlot() bool {
	return cpu.delaySlot
}

// Returns the status register
func (cpu *CPU) sr() uint32 {
	return uint32(cpu.Cpr[0][COP0_Status])
}

func (cpu *CPU) setSR(val uint32) {
	cpu.Cpr[0][COP0_Status] = uint64(val)
}

// Returns true when running with kernel privileges
func (cpu *CPU) isKernel() bool {
	sr := cpu.sr()
	return sr&(SR_EXL|SR_ERL) != 0 || sr&SR_KSU_MASK == SR_KSU_KERNEL
}

// Returns true when running with user privileges
func (cpu *CPU) isUser() bool {
	sr := cpu.sr()
	return sr&(SR_EXL|SR_ERL) == 0 && sr&SR_KSU_MASK == SR_KSU_USER
}

// Returns the execution mode used to key compiled blocks: privilege level and
// the FPU register addressing mode
func (cpu *CPU) Mode() uint32 {
	var mode uint32
	if cpu.isUser() {
		mode = 2
	} else if !cpu.isKernel() {
		mode = 1
	}
	if cpu.sr()&SR_FR != 0 {
		mode |= 4
	}
	return mode
}

// Runs the CPU for `budget` cycles and returns the number of cycles executed.
// A pending delay slot is always executed, so the result may exceed `budget`
func (cpu *CPU) ExecuteRun(budget uint64) uint64 {
	th := cpu.Time
	start := th.Cycles
	th.Begin(budget)

	for !th.Done() {
		cpu.fireCompare()
		cpu.checkIrqs()
		cpu.updateCycleCounting()

		if cpu.drc != nil && !cpu.debugger.attached() {
			cpu.drc.Run()
		} else {
			cpu.interpret()
		}
	}
	return th.Cycles - start
}

// Ends the current ExecuteRun call at the next instruction boundary
func (cpu *CPU) Stop() {
	cpu.Time.Stop()
}

// Burns the configured cycles if `op` at `pc` is a hotspot
func (cpu *CPU) burnHotspot(pc uint32, op Instruction) {
	if cycles := cpu.hotspotCycles(pc, op); cycles != 0 {
		cpu.Time.Tick(cycles)
	}
}

// Returns the extra cycles burned by `op` at `pc`, 0 if it is not a hotspot
func (cpu *CPU) hotspotCycles(pc uint32, op Instruction) uint64 {
	idx := slices.IndexFunc(cpu.hotspots, func(hs Hotspot) bool {
		return hs.PC == pc && hs.Opcode == op
	})
	if idx < 0 {
		return 0
	}
	return cpu.hotspots[idx].Cycles
}

// A (pc, opcode) pair that burns extra cycles every time it executes. Used to
// speed up idle loops
type Hotspot struct {
	PC     uint32
	Opcode Instruction
	Cycles uint64
}

// Registers a hotspot
func (cpu *CPU) AddHotspot(pc uint32, op Instruction, cycles uint64) error {
	if len(cpu.hotspots) >= MAX_HOTSPOTS {
		return fmt.Errorf("%w: limit is %d", ErrTooManyHotspots, MAX_HOTSPOTS)
	}
	cpu.hotspots = append(cpu.hotspots, Hotspot{PC: pc, Opcode: op, Cycles: cycles})
	if cpu.drc != nil {
		cpu.drc.Invalidate()
	}
	return nil
}

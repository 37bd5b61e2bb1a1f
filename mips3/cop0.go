package mips3

// Coprocessor 0 register indices
const (
	COP0_Index    = 0
	COP0_Random   = 1
	COP0_EntryLo0 = 2
	COP0_EntryLo1 = 3
	COP0_Context  = 4
	COP0_PageMask = 5
	COP0_Wired    = 6
	COP0_BadVAddr = 8
	COP0_Count    = 9
	COP0_EntryHi  = 10
	COP0_Compare  = 11
	COP0_Status   = 12
	COP0_Cause    = 13
	COP0_EPC      = 14
	COP0_PRId     = 15
	COP0_Config   = 16
	COP0_LLAddr   = 17
	COP0_WatchLo  = 18
	COP0_WatchHi  = 19
	COP0_XContext = 20
	COP0_ECC      = 26
	COP0_CacheErr = 27
	COP0_TagLo    = 28
	COP0_TagHi    = 29
	COP0_ErrorPC  = 30
)

// Names of the COP0 registers, indexed by register number
var Cop0RegisterNames = [32]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "Reserved7",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "LLAddr", "WatchLo", "WatchHi", "XContext", "Reserved21", "Reserved22", "Reserved23",
	"Reserved24", "Reserved25", "ECC", "CacheErr", "TagLo", "TagHi", "ErrorPC", "Reserved31",
}

// Status register bits
const (
	SR_IE         uint32 = 0x00000001 // Interrupt enable
	SR_EXL        uint32 = 0x00000002 // Exception level
	SR_ERL        uint32 = 0x00000004 // Error level
	SR_KSU_MASK   uint32 = 0x00000018
	SR_KSU_KERNEL uint32 = 0x00000000
	SR_KSU_SUPERV uint32 = 0x00000008
	SR_KSU_USER   uint32 = 0x00000010
	SR_IMSW0      uint32 = 0x00000100
	SR_IMSW1      uint32 = 0x00000200
	SR_IMEX0      uint32 = 0x00000400
	SR_IMEX1      uint32 = 0x00000800
	SR_IMEX2      uint32 = 0x00001000
	SR_IMEX3      uint32 = 0x00002000
	SR_IMEX4      uint32 = 0x00004000
	SR_IMEX5      uint32 = 0x00008000 // Timer interrupt mask
	SR_DE         uint32 = 0x00010000
	SR_CE         uint32 = 0x00020000
	SR_CH         uint32 = 0x00040000
	SR_SR         uint32 = 0x00100000
	SR_TS         uint32 = 0x00200000
	SR_BEV        uint32 = 0x00400000 // Bootstrap exception vectors
	SR_RE         uint32 = 0x02000000 // Reverse endian in user mode
	SR_FR         uint32 = 0x04000000 // 32 64 bit FPU registers
	SR_RP         uint32 = 0x08000000
	SR_COP0       uint32 = 0x10000000
	SR_COP1       uint32 = 0x20000000
	SR_COP2       uint32 = 0x40000000
	SR_COP3       uint32 = 0x80000000
)

// Reads COP0 register `idx`, applying the read side effects
func (cpu *CPU) getCop0Reg(idx uint32) uint64 {
	switch idx {
	case COP0_Count:
		// slow access, burns cycles to speed up loops polling this register
		cpu.Time.Burn(COUNT_READ_CYCLES)
		return uint64(cpu.Time.Count())
	case COP0_Cause:
		cpu.Time.Burn(CAUSE_READ_CYCLES)
	case COP0_Random:
		return uint64(cpu.randomIndex())
	}
	return cpu.Cpr[0][idx]
}

// Returns the Random register derived from the elapsed cycles
func (cpu *CPU) randomIndex() uint32 {
	wired := uint32(cpu.Cpr[0][COP0_Wired]) & 0x3f
	if wired >= 48 {
		return 47
	}
	rng := uint64(48 - wired)
	return uint32((cpu.Time.Cycles-cpu.Time.CountZeroTime)%rng+uint64(wired)) & 0x3f
}

// Writes COP0 register `idx`, applying the write side effects
func (cpu *CPU) setCop0Reg(idx uint32, val uint64) {
	switch idx {
	case COP0_Cause:
		cause := (uint32(cpu.Cpr[0][COP0_Cause]) & 0xfc00) | (uint32(val) &^ 0xfc00)
		cpu.Cpr[0][COP0_Cause] = uint64(cause)
		if cpu.softIrqPending() {
			// the interrupt is taken after the pending branch
			if cpu.NextPC != NO_BRANCH {
				cpu.PC = cpu.NextPC
				cpu.NextPC = NO_BRANCH
			}
			cpu.generateException(EXCEPTION_INTERRUPT, false)
		}

	case COP0_Status:
		diff := cpu.sr() ^ uint32(val)
		cpu.Cpr[0][COP0_Status] = val
		if diff&SR_IMEX5 != 0 {
			cpu.updateCycleCounting()
		}
		cpu.checkIrqs()

	case COP0_Count:
		cpu.Cpr[0][COP0_Count] = val
		cpu.Time.SetCount(uint32(val))
		cpu.updateCycleCounting()

	case COP0_Compare:
		cpu.Time.CompareArmed = true
		cpu.Cpr[0][COP0_Cause] &^= 0x8000
		cpu.Cpr[0][COP0_Compare] = val & 0xffffffff
		cpu.updateCycleCounting()

	case COP0_PRId:
		// read only

	case COP0_Config:
		cpu.Cpr[0][COP0_Config] = (cpu.Cpr[0][COP0_Config] &^ 7) | (val & 7)

	case COP0_EntryHi:
		old := cpu.Cpr[0][COP0_EntryHi]
		cpu.Cpr[0][COP0_EntryHi] = val
		if (old^val)&0xff != 0 {
			cpu.asidChanged()
		}

	default:
		cpu.Cpr[0][idx] = val
	}
}

// Returns true if a software interrupt written to Cause must be taken now
func (cpu *CPU) softIrqPending() bool {
	sr := cpu.sr()
	cause := uint32(cpu.Cpr[0][COP0_Cause])
	return cause&sr&0x300 != 0 && sr&SR_IE != 0 && sr&(SR_EXL|SR_ERL) == 0
}

// Returns true if COP0 instructions may execute
func (cpu *CPU) cop0Usable() bool {
	return cpu.isKernel() || cpu.sr()&SR_COP0 != 0
}

// Executes a COP0 instruction
func (cpu *CPU) handleCop0(op Instruction) {
	if !cpu.cop0Usable() {
		cpu.badCop(0)
		return
	}

	t := op.T()
	d := op.D()

	switch op.CopFunction() {
	case 0x00: // MFC0
		if t != 0 {
			cpu.Regs[t] = sext32(cpu.getCop0Reg(d))
		}
	case 0x01: // DMFC0
		if t != 0 {
			cpu.Regs[t] = cpu.getCop0Reg(d)
		}
	case 0x02: // CFC0
		cpu.setReg32(t, uint32(cpu.Ccr[0][d]))
	case 0x04: // MTC0
		cpu.setCop0Reg(d, uint64(cpu.reg32(t)))
	case 0x05: // DMTC0
		cpu.setCop0Reg(d, cpu.Regs[t])
	case 0x06: // CTC0
		cpu.Ccr[0][d] = uint64(cpu.reg32(t))
	case 0x08: // BC0
		switch t {
		case 0x00: // BC0F
			if !cpu.Cf[0][0] {
				cpu.branch(op)
			}
		case 0x01: // BC0T
			if cpu.Cf[0][0] {
				cpu.branch(op)
			}
		default:
			cpu.invalidInstruction(op)
		}
	case 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
		0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f:
		switch op.Subfunction() {
		case 0x01: // TLBR
			cpu.tlbRead()
		case 0x02: // TLBWI
			cpu.tlbWriteIndex()
		case 0x06: // TLBWR
			cpu.tlbWriteRandom()
		case 0x08: // TLBP
			cpu.tlbProbe()
		case 0x18: // ERET
			cpu.eret()
		case 0x20: // WAIT
		default: // RFE is not implemented by MIPS III
			cpu.invalidInstruction(op)
		}
	default:
		cpu.invalidInstruction(op)
	}
}

// Returns from an exception
func (cpu *CPU) eret() {
	if cpu.sr()&SR_ERL != 0 {
		cpu.PC = uint32(cpu.Cpr[0][COP0_ErrorPC])
		cpu.setSR(cpu.sr() &^ SR_ERL)
	} else {
		cpu.PC = uint32(cpu.Cpr[0][COP0_EPC])
		cpu.setSR(cpu.sr() &^ SR_EXL)
	}
	cpu.llBit = false
	cpu.checkIrqs()
}
